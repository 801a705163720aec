package audio

import (
	"fmt"
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// fullScale16 rescales a normalized [-1, 1] sample back to the int16
// amplitude domain the energy threshold below was tuned against
// (soniclink/audio.py's _calculate_energy operates on raw int16
// samples read straight off the device).
const fullScale16 = 1 << 15

// End-of-transmission detection parameters, grounded on
// soniclink/audio.py's receive loop: after more than 10 chunks, a
// chunk whose mean-square energy falls below the threshold is
// provisionally treated as silence; one further chunk is read to
// confirm before the reception is ended.
const (
	endEnergyThreshold   = 100.0
	minChunksBeforeCheck = 10
)

// Transmit normalizes waveform to 0.8 of full scale (leaving headroom
// against clipping, per soniclink/audio.py's _normalize_audio),
// chunks it at chunkSize samples (zero-padding the final chunk), and
// writes each chunk to sink in turn.
func Transmit(sink Sink, waveform []float64, chunkSize int) error {
	if err := sink.Start(); err != nil {
		return &Error{Kind: DeviceFailure, Err: fmt.Errorf("start sink: %w", err)}
	}
	defer sink.Stop()

	normalized := normalize(waveform)
	for i := 0; i < len(normalized); i += chunkSize {
		end := i + chunkSize
		if end > len(normalized) {
			end = len(normalized)
		}
		chunk := normalized[i:end]
		if len(chunk) < chunkSize {
			padded := make([]float64, chunkSize)
			copy(padded, chunk)
			chunk = padded
		}
		if err := sink.WriteChunk(chunk); err != nil {
			return &Error{Kind: DeviceFailure, Err: fmt.Errorf("write chunk at sample %d: %w", i, err)}
		}
	}
	return nil
}

// normalize scales waveform so its largest-magnitude sample sits at
// 0.8. A silent waveform is returned unchanged.
func normalize(waveform []float64) []float64 {
	var maxAbs float64
	for _, s := range waveform {
		if a := math.Abs(s); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs == 0 {
		return waveform
	}
	scale := 0.8 / maxAbs
	out := make([]float64, len(waveform))
	for i, s := range waveform {
		out[i] = s * scale
	}
	return out
}

// Receive captures audio from source until timeout elapses or the
// mean-square-energy end-of-transmission heuristic fires, returning
// the concatenated waveform.
func Receive(source Source, timeout time.Duration) ([]float64, error) {
	if err := source.Start(); err != nil {
		return nil, &Error{Kind: DeviceFailure, Err: fmt.Errorf("start source: %w", err)}
	}
	defer source.Stop()

	var chunks [][]float64
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		chunk, err := source.ReadChunk()
		if err != nil {
			break
		}
		chunks = append(chunks, chunk)

		if len(chunks) > minChunksBeforeCheck && chunkEnergy(chunk) < endEnergyThreshold {
			next, err := source.ReadChunk()
			if err != nil {
				break
			}
			chunks = append(chunks, next)
			if chunkEnergy(next) < endEnergyThreshold {
				break
			}
		}
	}

	if len(chunks) == 0 {
		return nil, &Error{Kind: NoAudio, Err: fmt.Errorf("no audio received within %s", timeout)}
	}
	return concatenate(chunks), nil
}

// chunkEnergy returns the mean-square energy of chunk, scaled to the
// int16 amplitude domain the threshold is tuned against.
func chunkEnergy(chunk []float64) float64 {
	squares := make([]float64, len(chunk))
	for i, s := range chunk {
		v := s * fullScale16
		squares[i] = v * v
	}
	return stat.Mean(squares, nil)
}

func concatenate(chunks [][]float64) []float64 {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	out := make([]float64, 0, total)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

// chunkQueue is the bounded single-producer/single-consumer queue
// behind Listen: a background producer goroutine pushes captured
// chunks; the listening worker drains them on its own schedule. A
// capacity cap (in samples) evicts the oldest chunk first, mirroring
// soniclink/audio.py's buffer_lock-guarded audio_buffer with its
// 5-second retention window.
type chunkQueue struct {
	mu         sync.Mutex
	chunks     [][]float64
	samples    int
	maxSamples int
}

func newChunkQueue(maxSamples int) *chunkQueue {
	return &chunkQueue{maxSamples: maxSamples}
}

func (q *chunkQueue) push(chunk []float64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.chunks = append(q.chunks, chunk)
	q.samples += len(chunk)
	for q.samples > q.maxSamples && len(q.chunks) > 1 {
		evicted := q.chunks[0]
		q.chunks = q.chunks[1:]
		q.samples -= len(evicted)
	}
}

func (q *chunkQueue) drain() []float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.chunks) == 0 {
		return nil
	}
	out := concatenate(q.chunks)
	q.chunks = nil
	q.samples = 0
	return out
}

// listenPollInterval is how often the listening worker checks the
// queue for newly arrived audio.
const listenPollInterval = 100 * time.Millisecond

// Listen starts source and runs continuous listening mode per spec.md
// §4.6/§5: a producer goroutine continuously reads chunks into a
// bounded queue, and a listening worker goroutine periodically drains
// the queue and invokes callback with whatever arrived since the last
// drain. The returned stop function stops source first, so a producer
// blocked in ReadChunk is interrupted, then joins both goroutines with
// a bounded ~1s wait; any audio still sitting in the queue past that
// point is discarded rather than delivered to callback.
func Listen(source Source, sampleRate uint, callback func([]float64)) (stop func() error, err error) {
	if err := source.Start(); err != nil {
		return nil, &Error{Kind: DeviceFailure, Err: fmt.Errorf("start source: %w", err)}
	}

	q := newChunkQueue(int(5 * sampleRate))
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			chunk, err := source.ReadChunk()
			if err != nil {
				return
			}
			q.push(chunk)
		}
	}()

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(listenPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if chunk := q.drain(); chunk != nil {
					callback(chunk)
				}
			}
		}
	}()

	stop = func() error {
		close(done)
		stopErr := source.Stop()

		joined := make(chan struct{})
		go func() {
			wg.Wait()
			close(joined)
		}()
		select {
		case <-joined:
		case <-time.After(listenStopTimeout):
			// Residual callback data sitting in q is discarded; the
			// producer goroutine may still be blocked in a ReadChunk
			// that source.Stop() failed to interrupt promptly.
		}

		if stopErr != nil {
			return stopErr
		}
		return nil
	}
	return stop, nil
}

// listenStopTimeout bounds how long Listen's stop function waits for
// its goroutines to exit once the source has been stopped.
const listenStopTimeout = 1 * time.Second
