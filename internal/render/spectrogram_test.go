// SPDX-License-Identifier: MIT
package render

import (
	"image/color"
	"testing"
)

func newSpectrogram(t *testing.T, width, height, bins int) (*Spectrogram, *stubSource) {
	t.Helper()
	s, err := NewSurface(width, height, 1.0)
	if err != nil {
		t.Fatalf("NewSurface failed: %v", err)
	}
	src := &stubSource{
		freq: make([]byte, bins),
		time: make([]float64, bins*2),
	}
	sg, err := NewSpectrogram(s, src)
	if err != nil {
		t.Fatalf("NewSpectrogram failed: %v", err)
	}
	return sg, src
}

func TestHeatColorPalette(t *testing.T) {
	tests := []struct {
		v       byte
		r, g, b uint8
	}{
		{0, 0, 0, 0},
		{64, 128, 0, 32},
		{127, 254, 0, 63},
		{128, 255, 0, 64}, // R saturates exactly at the midpoint.
		{129, 255, 2, 64},
		{192, 255, 128, 96},
		{255, 255, 254, 127},
	}

	for _, tt := range tests {
		r, g, b := heatColor(tt.v)
		if r != tt.r || g != tt.g || b != tt.b {
			t.Errorf("heatColor(%d) = (%d,%d,%d), want (%d,%d,%d)",
				tt.v, r, g, b, tt.r, tt.g, tt.b)
		}
	}
}

func TestSpectrogramStampsNewestRowAtTop(t *testing.T) {
	sg, src := newSpectrogram(t, 16, 8, 32)

	copy(src.freq, constantSpectrum(32, 255))
	sg.Draw(src)
	copy(src.freq, constantSpectrum(32, 0))
	sg.Draw(src)

	img := sg.Image()
	// Row 0 is the newest frame: silence, palette black.
	if got := img.RGBAAt(3, 0); got != (color.RGBA{A: 255}) {
		t.Errorf("row 0 pixel = %v, want opaque black", got)
	}
	// Row 1 holds the previous loud frame: palette white-ish.
	if got := img.RGBAAt(3, 1); got.R != 255 || got.G != 254 || got.B != 127 {
		t.Errorf("row 1 pixel = %v, want (255,254,127)", got)
	}
}

// After more draws than the surface is tall, the oldest rows must have
// fallen off the bottom edge.
func TestSpectrogramHistoryEviction(t *testing.T) {
	height := 6
	sg, src := newSpectrogram(t, 8, height, 16)

	copy(src.freq, constantSpectrum(16, 255))
	sg.Draw(src)

	// Push silence until the loud row is evicted.
	copy(src.freq, constantSpectrum(16, 0))
	for i := 0; i < height; i++ {
		sg.Draw(src)
	}

	img := sg.Image()
	for y := 0; y < height; y++ {
		if got := img.RGBAAt(2, y); got.R != 0 {
			t.Errorf("row %d still holds evicted frame: %v", y, got)
		}
	}
}

// Column x of width W reads bin floor((x/W) * M/2): the strip covers
// only the lower half of the spectrum.
func TestSpectrogramColumnBinMapping(t *testing.T) {
	bins := 32
	width := 16
	sg, src := newSpectrogram(t, width, 4, bins)

	// Mark exactly one lower-half bin and verify which columns light up.
	src.freq[7] = 255
	sg.Draw(src)

	img := sg.Image()
	for x := 0; x < width; x++ {
		idx := x * bins / (2 * width)
		wantLit := idx == 7
		gotLit := img.RGBAAt(x, 0).R == 255
		if gotLit != wantLit {
			t.Errorf("column %d (bin %d) lit = %v, want %v", x, idx, gotLit, wantLit)
		}
	}
}

func TestSpectrogramUpperHalfIgnored(t *testing.T) {
	bins := 32
	sg, src := newSpectrogram(t, 16, 4, bins)

	// Energy only in the upper half of the spectrum.
	for i := bins / 2; i < bins; i++ {
		src.freq[i] = 255
	}
	sg.Draw(src)

	img := sg.Image()
	for x := 0; x < 16; x++ {
		if got := img.RGBAAt(x, 0); got.R != 0 {
			t.Errorf("column %d lit by upper-half energy: %v", x, got)
		}
	}
}

func TestSpectrogramDrawZeroAlloc(t *testing.T) {
	sg, src := newSpectrogram(t, 64, 32, 128)
	copy(src.freq, constantSpectrum(128, 100))

	allocs := testing.AllocsPerRun(50, func() {
		sg.Draw(src)
	})
	if allocs > 0 {
		t.Errorf("Draw allocated %f times per run, want 0", allocs)
	}
}

// A resize cannot map old rows onto a new column count, so the history
// restarts from black.
func TestSpectrogramResizeClearsHistory(t *testing.T) {
	sg, src := newSpectrogram(t, 16, 8, 32)
	copy(src.freq, constantSpectrum(32, 255))
	sg.Draw(src)

	if err := sg.Resize(24, 10, 2.0); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}

	img := sg.Image()
	// The waterfall stays 1:1 regardless of the requested pixel ratio.
	if img.Bounds().Dx() != 24 || img.Bounds().Dy() != 10 {
		t.Errorf("image size after resize = %dx%d, want 24x10", img.Bounds().Dx(), img.Bounds().Dy())
	}
	for y := 0; y < 10; y++ {
		for x := 0; x < 24; x++ {
			if got := img.RGBAAt(x, y); got != (color.RGBA{A: 255}) {
				t.Fatalf("pixel (%d,%d) after resize = %v, want opaque black", x, y, got)
			}
		}
	}
}
