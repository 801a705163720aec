package main

import (
	"crypto/rand"
	"crypto/rsa"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/makalin/soniclink/audio"
	"github.com/makalin/soniclink/config"
	"github.com/makalin/soniclink/ofdm"
	"github.com/makalin/soniclink/pipeline"
)

const testPayload = "soniclink loopback self-test"

// runTest mirrors soniclink/core.py's SonicLink.test() loopback
// self-check: it sends a fixed payload through the pipeline, writes the
// waveform to a WAV file and reads it back (exercising audio.WavFile as
// the boundary, with no real hardware involved), runs it back through
// the pipeline, and reports whether the payload round-tripped. It also
// renders waveform diagnostics PNGs alongside the WAV file.
func runTest(cfg config.Config, log pipeline.Logger, args []string) error {
	fs := flag.NewFlagSet("test", flag.ExitOnError)
	dir := fs.String("dir", ".", "directory to write the loopback WAV and PNG diagnostics into")
	if err := fs.Parse(args); err != nil {
		return err
	}

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return fmt.Errorf("test: %w", err)
	}

	p := pipeline.New(cfg, log)
	waveform, err := p.Send([]byte(testPayload), &priv.PublicKey)
	if err != nil {
		return fmt.Errorf("test: send stage: %w", err)
	}

	wavPath := filepath.Join(*dir, "loopback.wav")
	sink := audio.NewWavFileSink(wavPath)
	if err := sink.Set(cfg); err != nil {
		return fmt.Errorf("test: %w", err)
	}
	if err := audio.Transmit(sink, waveform, int(cfg.ChunkSize)); err != nil {
		return fmt.Errorf("test: transmit to wav: %w", err)
	}

	source, err := audio.NewWavFileSource(wavPath)
	if err != nil {
		return fmt.Errorf("test: %w", err)
	}
	if err := source.Set(cfg); err != nil {
		return fmt.Errorf("test: %w", err)
	}
	recorded, err := audio.Receive(source, 5*time.Second)
	if err != nil {
		return fmt.Errorf("test: receive from wav: %w", err)
	}

	result := p.Receive(recorded, priv)
	if result.Err != nil {
		return fmt.Errorf("test: receive stage: %w", result.Err)
	}
	ok := string(result.Bytes) == testPayload

	waveformPNG := filepath.Join(*dir, "waveform.png")
	if err := ofdm.PlotWaveform(waveformPNG, waveform, int(cfg.SampleRate)); err != nil {
		log.Warning("test: could not render waveform diagnostics", "error", err.Error())
	}
	constellationPNG := filepath.Join(*dir, "constellation.png")
	if err := ofdm.PlotConstellation(constellationPNG, nil); err != nil {
		log.Warning("test: could not render constellation diagnostics", "error", err.Error())
	}

	fmt.Fprintf(os.Stdout, "loopback wav: %s\nwaveform plot: %s\nconstellation plot: %s\n", wavPath, waveformPNG, constellationPNG)
	if !ok {
		return fmt.Errorf("test: payload did not round-trip: got %q, want %q", result.Bytes, testPayload)
	}
	fmt.Fprintln(os.Stdout, "loopback self-test: OK")
	return nil
}
