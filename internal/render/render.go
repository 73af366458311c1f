// SPDX-License-Identifier: MIT
/*
Package render implements the pixel pipeline: a device-pixel-ratio aware
drawing surface plus the three visualizers (oscilloscope, spectrogram,
harmonograph) that turn analyzer snapshots into frames.

The package owns no clock. Draw operations are pure consumers of a
SampleSource and are driven by an external scheduler (FrameLoop for the
live path, the exporter for the offline path), which guarantees that
Draw and Resize on one visualizer are never interleaved.
*/
package render

import "image"

// SampleSource supplies the per-frame snapshots the visualizers consume.
// Snapshot lengths are fixed for the lifetime of the source: BinCount()
// bytes of frequency magnitudes (0-255) and FFTSize() time-domain
// amplitudes in [-1,1]. Reads are non-blocking and always fill the full
// destination (zero-filled when there is no signal).
type SampleSource interface {
	BinCount() int
	FFTSize() int
	FrequencyDataInto(dst []byte) error
	TimeDataInto(dst []float64) error
}

// Visualizer is one renderer drawing into its own Surface. Draw never
// fails: degenerate input produces a quiet frame, not an error. The
// scheduler must serialize Draw and Resize; neither is safe to call
// concurrently with the other. Image exposes the surface's backing
// store for compositing and encoding; its contents are only coherent
// between Draw calls.
type Visualizer interface {
	Name() string
	Draw(src SampleSource)
	Resize(width, height int, scale float64) error
	Image() *image.RGBA
}
