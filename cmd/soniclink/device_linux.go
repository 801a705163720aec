//go:build linux

package main

import "github.com/makalin/soniclink/audio"

func openSource() (audio.Source, error) { return audio.NewALSACapture() }
func openSink() (audio.Sink, error)     { return audio.NewALSAPlayback() }
