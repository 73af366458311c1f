// SPDX-License-Identifier: MIT
package render

import (
	"image"
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"vizor/internal/analysis"
)

const (
	harmonographStep     = 0.1  // Radians per curve point, 63 points per revolution.
	harmonographBaseRate = 0.05 // Phase advance per frame with no energy.
	harmonographBoost    = 0.1  // Extra phase advance at full high-band energy.
)

// Translucent near-black fade (alpha ~0.1) applied before each frame.
// This is what produces the motion trail: a hard clear would kill the
// signature look.
var harmonographFade = color.RGBA{R: 0, G: 0, B: 6, A: 26}

// Harmonograph traces a band-modulated Lissajous figure. The low band
// (bins [0,M/4)) drives the horizontal amplitude, the high band
// (bins [M/4,M/2)) the vertical amplitude and the rotation speed.
//
// The phase accumulator only ever grows; sin/cos periodicity makes an
// explicit wrap unnecessary.
type Harmonograph struct {
	surface *Surface
	freq    []byte
	points  [][2]float64
	angle   float64
}

func NewHarmonograph(surface *Surface, src SampleSource) *Harmonograph {
	pointCount := int(math.Floor(2*math.Pi/harmonographStep)) + 1
	return &Harmonograph{
		surface: surface,
		freq:    make([]byte, src.BinCount()),
		points:  make([][2]float64, 0, pointCount),
	}
}

func (hg *Harmonograph) Name() string { return "harmonograph" }

// Draw advances the phase and traces one closed revolution of the curve.
// Degenerate spectra (too few bins for a band) measure as zero energy,
// collapsing the figure to the center instead of propagating NaN into
// coordinates.
func (hg *Harmonograph) Draw(src SampleSource) {
	if err := src.FrequencyDataInto(hg.freq); err != nil {
		return
	}
	bands := analysis.MeasureBands(hg.freq)

	hg.angle += harmonographBaseRate + bands.High/255*harmonographBoost

	hg.surface.FillOver(harmonographFade)

	w := float64(hg.surface.Width())
	h := float64(hg.surface.Height())
	radius := 0.4 * math.Min(w, h)
	centerX, centerY := w/2, h/2
	lowAmp := radius * bands.Low / 255
	highAmp := radius * bands.High / 255

	pts := hg.points[:0]
	for t := 0.0; t < 2*math.Pi; t += harmonographStep {
		pts = append(pts, [2]float64{
			centerX + math.Sin(3*t+hg.angle)*lowAmp,
			centerY + math.Cos(2*t+hg.angle*0.5)*highAmp,
		})
	}
	hg.points = pts

	hg.surface.StrokeLoop(pts, hg.strokeColor(bands), 1.5)
}

// strokeColor shifts the trace hue with high-band energy, cold cyan at
// rest through violet at full drive.
func (hg *Harmonograph) strokeColor(bands analysis.BandLevels) color.Color {
	hue := math.Mod(190+bands.High/255*120, 360)
	return colorful.Hsv(hue, 0.85, 1.0)
}

// Angle exposes the phase accumulator for inspection.
func (hg *Harmonograph) Angle() float64 { return hg.angle }

// Resize rescales the backing surface; the accumulated trail is
// discarded with the old backing image but the phase survives.
func (hg *Harmonograph) Resize(width, height int, scale float64) error {
	return hg.surface.Resize(width, height, scale)
}

// Image exposes the accumulated trail frame.
func (hg *Harmonograph) Image() *image.RGBA { return hg.surface.Image() }
