// SPDX-License-Identifier: MIT
package render

import (
	"image"
	"image/color"
)

// Spectrogram scrolls a frequency-over-time waterfall: row 0 always
// holds the newest frame's palette strip, older rows shift down one per
// draw, and the bottom row falls off the edge and is lost.
//
// The history lives in the surface's own backing image at a 1:1 pixel
// ratio regardless of the configured device pixel ratio: accumulating
// scroll history at device resolution costs full-frame memory traffic
// every tick for no visible gain.
//
// Column x of width W samples bin floor((x/W) * M * 0.5) of an M-bin
// spectrum, a linear mapping into the lower (bass/mid) half.
// TODO: a logarithmic mapping would spread the low bins across more
// columns; needs agreement on the reference curve before changing the
// committed linear behavior.
type Spectrogram struct {
	surface *Surface
	freq    []byte // Snapshot buffer, length fixed to the source bin count.
}

// NewSpectrogram pins the surface to a 1:1 pixel ratio and starts from
// an opaque black history.
func NewSpectrogram(surface *Surface, src SampleSource) (*Spectrogram, error) {
	if err := surface.Resize(surface.Width(), surface.Height(), 1); err != nil {
		return nil, err
	}
	surface.Fill(color.RGBA{A: 255})
	return &Spectrogram{
		surface: surface,
		freq:    make([]byte, src.BinCount()),
	}, nil
}

func (sg *Spectrogram) Name() string { return "spectrogram" }

// Draw performs the shift-and-stamp: scroll every row down by one, then
// write the new strip at row 0. The whole operation happens inside this
// call on the owned image, so no intermediate state is ever observable.
func (sg *Spectrogram) Draw(src SampleSource) {
	if len(sg.freq) == 0 {
		return
	}
	if err := src.FrequencyDataInto(sg.freq); err != nil {
		return
	}

	img := sg.surface.Image()
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	if w == 0 || h == 0 {
		return
	}

	// Scroll: one overlapping copy moves every row down a slot (Go's
	// copy has memmove semantics). The former bottom row is overwritten,
	// which is exactly the eviction the waterfall wants.
	pix := img.Pix
	stride := img.Stride
	copy(pix[stride:], pix[:len(pix)-stride])

	// Stamp the fresh strip at row 0.
	m := len(sg.freq)
	for x := 0; x < w; x++ {
		idx := x * m / (2 * w) // floor((x/w) * m * 0.5)
		r, g, b := heatColor(sg.freq[idx])
		off := x * 4
		pix[off+0] = r
		pix[off+1] = g
		pix[off+2] = b
		pix[off+3] = 255
	}
}

// heatColor maps a magnitude byte through the fixed hot palette: dark
// blue/black at low energy, magenta/red through the middle, yellow/white
// at the top.
//
//	R = min(v*2, 255)
//	G = v > 128 ? (v-128)*2 : 0
//	B = v/2
func heatColor(v byte) (r, g, b uint8) {
	ri := int(v) * 2
	if ri > 255 {
		ri = 255
	}
	gi := 0
	if v > 128 {
		gi = (int(v) - 128) * 2
	}
	return uint8(ri), uint8(gi), v / 2
}

// Resize recreates the history at the new dimensions, still 1:1. Old
// rows are discarded: they have no meaningful mapping onto a different
// column count.
func (sg *Spectrogram) Resize(width, height int, _ float64) error {
	if err := sg.surface.Resize(width, height, 1); err != nil {
		return err
	}
	sg.surface.Fill(color.RGBA{A: 255})
	return nil
}

// Image exposes the waterfall history.
func (sg *Spectrogram) Image() *image.RGBA { return sg.surface.Image() }
