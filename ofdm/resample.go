package ofdm

import "github.com/mjibson/go-dsp/fft"

// resample re-samples a real-valued sequence to length num using the
// Fourier method (zero-pad or truncate the spectrum around its Nyquist
// bin), the same approach scipy.signal.resample takes and the one the
// original modulator relies on to stretch an 80-sample symbol out to
// samples-per-symbol. Reuses the teacher's go-dsp/fft dependency.
func resample(x []float64, num int) []float64 {
	n := len(x)
	if n == 0 || num == n {
		out := make([]float64, num)
		copy(out, x)
		return out
	}

	in := make([]complex128, n)
	for i, v := range x {
		in[i] = complex(v, 0)
	}
	spectrum := fft.FFT(in)

	newSpectrum := make([]complex128, num)
	minLen := n
	if num < minLen {
		minLen = num
	}
	half := minLen / 2

	for i := 0; i <= half; i++ {
		newSpectrum[i] = spectrum[i]
	}
	for i := 1; i < minLen-half; i++ {
		newSpectrum[num-i] = spectrum[n-i]
	}

	// When the shared Nyquist bin is even-indexed in both sequences,
	// scipy splits its energy across the two new edge bins so the
	// conjugate symmetry of a real signal is preserved.
	if minLen%2 == 0 {
		if num > n {
			newSpectrum[half] /= 2
			newSpectrum[num-half] = newSpectrum[half]
		} else if num < n {
			newSpectrum[half] = spectrum[half] + spectrum[n-half]
		}
	}

	out := fft.IFFT(newSpectrum)
	scale := float64(num) / float64(n)
	result := make([]float64, num)
	for i, v := range out {
		result[i] = real(v) * scale
	}
	return result
}
