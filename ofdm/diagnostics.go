package ofdm

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotConstellation renders the fixed 64-QAM constellation table to a
// PNG, overlaying any received points supplied by the caller (typically
// the raw frequency-domain bins a Demodulator recovered, for visually
// spotting channel noise before it causes a misdemap).
func PlotConstellation(path string, received []complex128) error {
	p := plot.New()
	p.Title.Text = "64-QAM constellation"
	p.X.Label.Text = "I"
	p.Y.Label.Text = "Q"

	ideal := make(plotter.XYs, len(constellation))
	for i, c := range constellation {
		ideal[i].X = real(c)
		ideal[i].Y = imag(c)
	}
	idealScatter, err := plotter.NewScatter(ideal)
	if err != nil {
		return fmt.Errorf("ofdm: plot constellation: %w", err)
	}
	idealScatter.GlyphStyle.Shape = plotter.CrossGlyph{}
	p.Add(idealScatter)

	if len(received) > 0 {
		rx := make(plotter.XYs, len(received))
		for i, c := range received {
			rx[i].X = real(c)
			rx[i].Y = imag(c)
		}
		rxScatter, err := plotter.NewScatter(rx)
		if err != nil {
			return fmt.Errorf("ofdm: plot received points: %w", err)
		}
		p.Add(rxScatter)
	}

	return p.Save(6*vg.Inch, 6*vg.Inch, path)
}

// PlotWaveform renders a time-domain waveform (a modulated frame, or a
// captured recording) to a PNG for visual sanity checking.
func PlotWaveform(path string, samples []float64, sampleRate int) error {
	p := plot.New()
	p.Title.Text = "waveform"
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "amplitude"

	pts := make(plotter.XYs, len(samples))
	for i, v := range samples {
		pts[i].X = float64(i) / float64(sampleRate)
		pts[i].Y = v
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("ofdm: plot waveform: %w", err)
	}
	p.Add(line)

	return p.Save(10*vg.Inch, 4*vg.Inch, path)
}
