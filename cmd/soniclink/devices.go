package main

import (
	"fmt"

	"github.com/makalin/soniclink/audio"
)

func runDevices() error {
	devices, err := audio.ListDevices()
	if err != nil {
		return fmt.Errorf("devices: %w", err)
	}
	if len(devices) == 0 {
		fmt.Println("no audio devices found")
		return nil
	}
	for _, d := range devices {
		fmt.Printf("%-32s input=%-5v output=%v\n", d.Name, d.Input, d.Output)
	}
	return nil
}
