//go:build !linux

package main

import (
	"fmt"

	"github.com/makalin/soniclink/audio"
)

func openSource() (audio.Source, error) {
	return nil, fmt.Errorf("no audio hardware backend on this platform")
}

func openSink() (audio.Sink, error) {
	return nil, fmt.Errorf("no audio hardware backend on this platform")
}
