// SPDX-License-Identifier: MIT
package render

import (
	"math"
	"testing"
)

func newHarmonograph(t *testing.T, width, height, bins int) (*Harmonograph, *stubSource) {
	t.Helper()
	s, err := NewSurface(width, height, 1.0)
	if err != nil {
		t.Fatalf("NewSurface failed: %v", err)
	}
	src := &stubSource{
		freq: make([]byte, bins),
		time: make([]float64, bins*2),
	}
	return NewHarmonograph(s, src), src
}

// The phase accumulator advances every frame, faster with more
// high-band energy, and never moves backward.
func TestHarmonographPhaseAdvance(t *testing.T) {
	hg, src := newHarmonograph(t, 64, 64, 32)

	prev := hg.Angle()
	for i := 0; i < 10; i++ {
		hg.Draw(src)
		got := hg.Angle()
		if got <= prev {
			t.Fatalf("frame %d: angle %f did not advance past %f", i, got, prev)
		}
		prev = got
	}

	// Silence advances at exactly the base rate.
	if want := 10 * harmonographBaseRate; math.Abs(prev-want) > 1e-9 {
		t.Errorf("angle after 10 silent frames = %f, want %f", prev, want)
	}
}

func TestHarmonographEnergySpeedsRotation(t *testing.T) {
	quiet, quietSrc := newHarmonograph(t, 64, 64, 32)
	loud, loudSrc := newHarmonograph(t, 64, 64, 32)

	// High band is the second quarter of the bins.
	for i := 8; i < 16; i++ {
		loudSrc.freq[i] = 255
	}

	for i := 0; i < 5; i++ {
		quiet.Draw(quietSrc)
		loud.Draw(loudSrc)
	}
	if loud.Angle() <= quiet.Angle() {
		t.Errorf("loud angle %f should exceed quiet angle %f", loud.Angle(), quiet.Angle())
	}
}

// One revolution at the fixed step yields a constant point count; the
// curve stays inside the amplitude envelope around the center.
func TestHarmonographCurveGeometry(t *testing.T) {
	hg, src := newHarmonograph(t, 100, 100, 32)
	for i := range src.freq {
		src.freq[i] = 255
	}

	hg.Draw(src)

	wantPoints := int(math.Floor(2 * math.Pi / harmonographStep)) // 62 full steps fit below 2*pi.
	if len(hg.points) != wantPoints && len(hg.points) != wantPoints+1 {
		t.Errorf("curve has %d points, want %d or %d", len(hg.points), wantPoints, wantPoints+1)
	}

	// radius = 0.4 * min(w,h) = 40, center (50,50), full energy.
	for i, pt := range hg.points {
		if math.Abs(pt[0]-50) > 40+1e-9 || math.Abs(pt[1]-50) > 40+1e-9 {
			t.Errorf("point %d = %v escapes the amplitude envelope", i, pt)
		}
	}
}

// Silence collapses the figure to the center point.
func TestHarmonographSilenceCollapses(t *testing.T) {
	hg, src := newHarmonograph(t, 100, 100, 32)
	hg.Draw(src)

	for i, pt := range hg.points {
		if math.Abs(pt[0]-50) > 1e-9 || math.Abs(pt[1]-50) > 1e-9 {
			t.Errorf("point %d = %v, want center (50,50)", i, pt)
		}
	}
}

// Frames fade rather than clear: a bright trail must still be visible
// (though dimmer) after further draws.
func TestHarmonographTrailPersists(t *testing.T) {
	hg, src := newHarmonograph(t, 64, 64, 32)
	for i := range src.freq {
		src.freq[i] = 255
	}
	hg.Draw(src)

	lit := func() int {
		n := 0
		img := hg.Image()
		for i := 0; i < len(img.Pix); i += 4 {
			if img.Pix[i] > 0 || img.Pix[i+1] > 0 {
				n++
			}
		}
		return n
	}

	first := lit()
	if first == 0 {
		t.Fatal("first draw left no trace")
	}

	// Silence the source; old trail pixels fade but survive one frame.
	for i := range src.freq {
		src.freq[i] = 0
	}
	hg.Draw(src)
	if after := lit(); after == 0 {
		t.Error("trail vanished after a single fade frame")
	}
}

func TestHarmonographResizeKeepsPhase(t *testing.T) {
	hg, src := newHarmonograph(t, 64, 64, 32)
	for i := 0; i < 3; i++ {
		hg.Draw(src)
	}
	angle := hg.Angle()

	if err := hg.Resize(128, 32, 1.0); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if hg.Angle() != angle {
		t.Errorf("angle after resize = %f, want %f", hg.Angle(), angle)
	}
}
