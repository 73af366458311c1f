// SPDX-License-Identifier: MIT
package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"vizor/internal/analysis"
	"vizor/internal/config"
	applog "vizor/internal/log"
)

// ExportOptions configures an offline render of an audio file.
type ExportOptions struct {
	AudioFile  string // Source file, muxed into the output by ffmpeg.
	OutputFile string
	FFmpegPath string // Empty means "ffmpeg" on PATH.
}

// ExportVideo renders decoded audio through the full visualizer stack
// and encodes the result as video. The three renderers are stacked
// vertically into one composite frame: oscilloscope on top, spectrogram
// in the middle, harmonograph at the bottom, each at the configured
// canvas size.
//
// Rendering is clocked by sample position rather than the wall clock:
// frame f sees the analysis window ending at sample f*rate/fps, which
// keeps the video in sync with the muxed audio regardless of how fast
// the machine renders.
func ExportVideo(ctx context.Context, samples []float64, sampleRate float64, cfg *config.Config, opts ExportOptions) error {
	if len(samples) == 0 {
		return fmt.Errorf("export: no audio samples to render")
	}
	if sampleRate <= 0 {
		return fmt.Errorf("export: sample rate must be positive, got %f", sampleRate)
	}

	windowType, err := analysis.ParseWindowFunc(cfg.Analysis.Window)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	analyzer, err := analysis.NewSpectrumAnalyzer(cfg.Analysis.FFTSize, sampleRate, cfg.Analysis.Smoothing, windowType)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	width := cfg.Viz.Width
	height := cfg.Viz.Height
	fps := cfg.Viz.FrameRate

	visualizers, err := buildPanelStack(analyzer, width, height)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	sink, err := NewVideoSink(VideoSinkOptions{
		FFmpegPath: opts.FFmpegPath,
		AudioFile:  opts.AudioFile,
		OutputFile: opts.OutputFile,
		Width:      width,
		Height:     height * len(visualizers),
		FrameRate:  fps,
	})
	if err != nil {
		return err
	}

	composite := image.NewRGBA(image.Rect(0, 0, width, height*len(visualizers)))
	window := make([]int32, cfg.Analysis.FFTSize)

	samplesPerFrame := sampleRate / float64(fps)
	totalFrames := int(float64(len(samples))/samplesPerFrame) + 1
	applog.Infof("Export: rendering %d frames (%.1fs of audio)", totalFrames, float64(len(samples))/sampleRate)

	for f := 0; f < totalFrames; f++ {
		if err := ctx.Err(); err != nil {
			sink.Finish()
			return err
		}

		end := int(float64(f+1) * samplesPerFrame)
		if end > len(samples) {
			end = len(samples)
		}
		analyzer.Process(analysisWindow(samples, end, window))

		for i, v := range visualizers {
			v.Draw(analyzer)
			panel := v.Image()
			dst := image.Rect(0, i*height, width, (i+1)*height)
			draw.Draw(composite, dst, panel, panel.Bounds().Min, draw.Src)
		}

		if err := sink.SendFrame(composite); err != nil {
			sink.Finish()
			return err
		}
	}

	if err := sink.Finish(); err != nil {
		return fmt.Errorf("export: finalizing video: %w", err)
	}
	applog.Infof("Export: wrote %s", opts.OutputFile)
	return nil
}

// buildPanelStack assembles the three renderers on fresh 1:1 surfaces.
// Export always runs at a 1:1 pixel ratio so the raw frame dimensions
// match the logical canvas exactly.
func buildPanelStack(analyzer *analysis.SpectrumAnalyzer, width, height int) ([]Visualizer, error) {
	scopeSurface, err := NewSurface(width, height, 1)
	if err != nil {
		return nil, err
	}
	specSurface, err := NewSurface(width, height, 1)
	if err != nil {
		return nil, err
	}
	harmSurface, err := NewSurface(width, height, 1)
	if err != nil {
		return nil, err
	}
	harmSurface.Fill(color.RGBA{A: 255})

	spectrogram, err := NewSpectrogram(specSurface, analyzer)
	if err != nil {
		return nil, err
	}

	return []Visualizer{
		NewOscilloscope(scopeSurface, analyzer),
		spectrogram,
		NewHarmonograph(harmSurface, analyzer),
	}, nil
}

// analysisWindow copies the fftSize samples ending at end into the
// int32 buffer the analyzer consumes, left-padding with silence when
// the audio hasn't produced a full window yet.
func analysisWindow(samples []float64, end int, buf []int32) []int32 {
	start := end - len(buf)
	for i := range buf {
		src := start + i
		if src < 0 || src >= len(samples) {
			buf[i] = 0
			continue
		}
		v := samples[src]
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		buf[i] = int32(v * 0x7FFFFF00)
	}
	return buf
}
