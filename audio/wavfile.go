package audio

import (
	"fmt"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/makalin/soniclink/config"
)

const wavFormat = 1 // PCM, per the WAV spec's format tag.

// WavFile is a file-backed Source and Sink using go-audio/wav, adapted
// from exp/flac/decode.go's encoder-construction pattern (minus the
// FLAC decode step this modem has no use for: it exchanges raw
// ultrasonic PCM, never a compressed container). Used by the `test`
// CLI subcommand's loopback path as a deterministic, hardware-free
// audio channel.
type WavFile struct {
	path       string
	sampleRate int
	chunkSize  uint
	running    bool

	// Read side.
	samples []float64
	pos     int

	// Write side.
	written []float64
}

// NewWavFileSource opens an existing WAV file for chunked reading.
func NewWavFileSource(path string) (*WavFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audio: open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("audio: decode %s: %w", path, err)
	}
	samples := make([]float64, len(buf.Data))
	fullScale := float64(int(1) << uint(buf.SourceBitDepth-1))
	for i, v := range buf.Data {
		samples[i] = float64(v) / fullScale
	}
	return &WavFile{path: path, sampleRate: int(dec.SampleRate), samples: samples}, nil
}

// NewWavFileSink returns a sink for path. Nothing is written until Stop,
// which creates (or truncates) the file and encodes the WAV data.
func NewWavFileSink(path string) *WavFile {
	return &WavFile{path: path}
}

func (w *WavFile) Name() string { return w.path }

// Set records the chunk size and, for a sink, the sample rate to
// encode the WAV header with.
func (w *WavFile) Set(c config.Config) error {
	w.chunkSize = c.ChunkSize
	if w.sampleRate == 0 {
		w.sampleRate = int(c.SampleRate)
	}
	return nil
}

func (w *WavFile) Start() error {
	w.running = true
	return nil
}

// Stop finalizes a write-side WavFile, encoding the accumulated
// samples to a mono 16-bit WAV file.
func (w *WavFile) Stop() error {
	w.running = false
	if w.written == nil {
		return nil
	}
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("audio: create %s: %w", w.path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, w.sampleRate, 16, 1, wavFormat)
	defer enc.Close()

	data := make([]int, len(w.written))
	for i, s := range w.written {
		data[i] = int(clampSample(s) * (1<<15 - 1))
	}
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: w.sampleRate},
		SourceBitDepth: 16,
		Data:           data,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("audio: encode %s: %w", w.path, err)
	}
	return nil
}

func (w *WavFile) IsRunning() bool { return w.running }

// ReadChunk returns the next chunkSize samples, or fewer for the last
// chunk; once the file is exhausted it returns an error.
func (w *WavFile) ReadChunk() ([]float64, error) {
	if !w.running {
		return nil, fmt.Errorf("audio: wav source not started")
	}
	if w.pos >= len(w.samples) {
		return nil, fmt.Errorf("audio: end of file")
	}
	end := w.pos + int(w.chunkSize)
	if end > len(w.samples) {
		end = len(w.samples)
	}
	chunk := w.samples[w.pos:end]
	w.pos = end
	return chunk, nil
}

// WriteChunk appends samples to the in-memory buffer encoded on Stop.
func (w *WavFile) WriteChunk(samples []float64) error {
	if !w.running {
		return fmt.Errorf("audio: wav sink not started")
	}
	w.written = append(w.written, samples...)
	return nil
}

func clampSample(s float64) float64 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
