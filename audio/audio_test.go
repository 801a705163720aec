package audio

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/makalin/soniclink/config"
)

// fakeDevice is an in-memory Source/Sink used to exercise Transmit,
// Receive and Listen without real hardware.
type fakeDevice struct {
	mu      sync.Mutex
	running bool
	chunks  [][]float64
	pos     int
	written []float64
}

func (d *fakeDevice) Name() string            { return "fake" }
func (d *fakeDevice) Set(c config.Config) error { return nil }

func (d *fakeDevice) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = true
	return nil
}

func (d *fakeDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = false
	return nil
}

func (d *fakeDevice) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

func (d *fakeDevice) ReadChunk() ([]float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pos >= len(d.chunks) {
		return nil, fmt.Errorf("no more chunks")
	}
	c := d.chunks[d.pos]
	d.pos++
	return c, nil
}

func (d *fakeDevice) WriteChunk(samples []float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := make([]float64, len(samples))
	copy(cp, samples)
	d.written = append(d.written, cp...)
	return nil
}

func TestTransmitNormalizesAndChunks(t *testing.T) {
	sink := &fakeDevice{}
	waveform := make([]float64, 2500)
	for i := range waveform {
		waveform[i] = 0.2 * math.Sin(2*math.Pi*float64(i)/100)
	}
	waveform[10] = 0.4 // largest magnitude sample, drives normalization.

	if err := Transmit(sink, waveform, 1024); err != nil {
		t.Fatal(err)
	}
	if len(sink.written) != 3*1024 {
		t.Fatalf("written length = %d, want %d (3 padded chunks)", len(sink.written), 3*1024)
	}
	var maxAbs float64
	for _, s := range sink.written[:len(waveform)] {
		if a := math.Abs(s); a > maxAbs {
			maxAbs = a
		}
	}
	if math.Abs(maxAbs-0.8) > 1e-9 {
		t.Errorf("peak amplitude after normalization = %v, want 0.8", maxAbs)
	}
}

func TestReceiveStopsOnLowEnergy(t *testing.T) {
	var chunks [][]float64
	loud := make([]float64, 64)
	for i := range loud {
		loud[i] = 0.5
	}
	silent := make([]float64, 64)
	for i := 0; i < 15; i++ {
		chunks = append(chunks, loud)
	}
	chunks = append(chunks, silent, silent)
	// Extra chunks the energy heuristic should never reach.
	chunks = append(chunks, loud, loud)

	source := &fakeDevice{chunks: chunks}
	got, err := Receive(source, 10*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	wantChunks := 17 // 15 loud + 2 silent confirming end.
	if len(got) != wantChunks*64 {
		t.Errorf("received %d samples, want %d (stopped early on silence)", len(got), wantChunks*64)
	}
}

func TestReceiveReturnsNoAudioWhenSourceNeverProducesData(t *testing.T) {
	source := &fakeDevice{}
	_, err := Receive(source, 50*time.Millisecond)
	if err == nil {
		t.Fatal("expected an error when no audio arrives")
	}
	var audioErr *Error
	if !asAudioError(err, &audioErr) {
		t.Fatalf("expected *audio.Error, got %T: %v", err, err)
	}
	if audioErr.Kind != NoAudio {
		t.Errorf("Kind = %v, want NoAudio", audioErr.Kind)
	}
}

func asAudioError(err error, target **Error) bool {
	e, ok := err.(*Error)
	if ok {
		*target = e
	}
	return ok
}

func TestChunkQueueEvictsOldestPastCapacity(t *testing.T) {
	q := newChunkQueue(10)
	q.push(make([]float64, 6))
	q.push(make([]float64, 6))
	q.push(make([]float64, 6))

	got := q.drain()
	if len(got) != 6 {
		t.Errorf("drained %d samples, want 6 (two oldest 6-sample chunks evicted)", len(got))
	}
	if again := q.drain(); again != nil {
		t.Errorf("second drain should be empty, got %d samples", len(again))
	}
}

func TestListenDeliversCapturedAudioToCallback(t *testing.T) {
	chunks := make([][]float64, 5)
	for i := range chunks {
		chunks[i] = []float64{float64(i)}
	}
	source := &fakeDevice{chunks: chunks}

	var mu sync.Mutex
	var received []float64
	stop, err := Listen(source, 48000, func(samples []float64) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, samples...)
	})
	if err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(received)
		mu.Unlock()
		if n >= 5 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err := stop(); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 5 {
		t.Fatalf("callback received %d samples, want 5", len(received))
	}
}
