// SPDX-License-Identifier: MIT
package render

import (
	"image"
	"image/color"
)

var (
	scopeBackground = color.RGBA{R: 10, G: 12, B: 16, A: 255}
	scopeGridColor  = color.RGBA{R: 60, G: 66, B: 74, A: 255}
	scopeTraceColor = color.RGBA{R: 64, G: 255, B: 96, A: 255}
)

// Oscilloscope draws the time-domain snapshot as a single polyline over
// a center-cross reference grid. Every frame starts from a hard clear;
// unlike the harmonograph there is no trail effect.
//
// Mapping: sample index i of N goes to x = i*width/N, amplitude v in
// [-1,1] goes to y = (v+1)*height/2, so -1 is the top edge, +1 the
// bottom, 0 the vertical center.
type Oscilloscope struct {
	surface *Surface
	samples []float64    // Snapshot buffer, length fixed to the source FFT size.
	points  [][2]float64 // Reused trace points, one per sample.
}

// NewOscilloscope sizes the snapshot buffers once against the source;
// lengths are constant for the renderer's lifetime.
func NewOscilloscope(surface *Surface, src SampleSource) *Oscilloscope {
	n := src.FFTSize()
	return &Oscilloscope{
		surface: surface,
		samples: make([]float64, n),
		points:  make([][2]float64, n),
	}
}

func (o *Oscilloscope) Name() string { return "oscilloscope" }

// Draw renders one frame. A failed or empty read leaves the cleared
// frame with just the grid; the trace simply isn't drawn.
func (o *Oscilloscope) Draw(src SampleSource) {
	o.surface.Fill(scopeBackground)
	o.drawGrid()

	if err := src.TimeDataInto(o.samples); err != nil {
		return
	}
	pts := o.trace(o.samples)
	if len(pts) < 2 {
		return
	}
	o.surface.StrokePolyline(pts, scopeTraceColor, 1.5)
}

// trace maps the sample window onto screen coordinates, reusing the
// point buffer. N points yield an N-1 segment polyline; N=0 yields none.
func (o *Oscilloscope) trace(samples []float64) [][2]float64 {
	n := len(samples)
	if n == 0 {
		return o.points[:0]
	}

	w := float64(o.surface.Width())
	h := float64(o.surface.Height())
	pts := o.points[:n]
	for i, v := range samples {
		pts[i][0] = float64(i) * w / float64(n)
		pts[i][1] = (v + 1) * h / 2
	}
	return pts
}

func (o *Oscilloscope) drawGrid() {
	w := float64(o.surface.Width())
	h := float64(o.surface.Height())

	o.surface.StrokePolyline([][2]float64{{0, h / 2}, {w, h / 2}}, scopeGridColor, 1)
	o.surface.StrokePolyline([][2]float64{{w / 2, 0}, {w / 2, h}}, scopeGridColor, 1)
}

// Resize rescales the backing surface. Snapshot buffer lengths depend
// only on the source FFT size and are unaffected.
func (o *Oscilloscope) Resize(width, height int, scale float64) error {
	return o.surface.Resize(width, height, scale)
}

// Image exposes the rendered frame.
func (o *Oscilloscope) Image() *image.RGBA { return o.surface.Image() }
