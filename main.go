// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"vizor/cmd"
	"vizor/internal/analysis"
	"vizor/internal/audio"
	"vizor/internal/config"
	applog "vizor/internal/log"
	"vizor/internal/render"
	"vizor/internal/transport"
	"vizor/internal/transport/udp"
	"vizor/internal/tui"
	"vizor/pkg/build"
)

// main runs in three phases:
//
// 1. Startup (cold path): build info, argument parsing, one-off
// commands, PortAudio initialization for live capture.
//
// 2. Concurrent (hot path): capture engine feeding the analyzer, the
// frame loop drawing visualizers, transports publishing results.
//
// 3. Shutdown (cold path): signal-driven teardown in reverse order,
// plus the session tempo estimate over the tape.
func main() {
	// ==================== STARTUP PHASE ====================

	build.Initialize()

	opts, err := cmd.ParseArgs()
	if err != nil {
		fatal(err)
	}
	cfg := opts.Config

	configureLogging(cfg)

	switch opts.Command {
	case cmd.CommandList:
		if err := runList(); err != nil {
			fatal(err)
		}
		return
	case cmd.CommandAnalyze:
		if err := runAnalyze(opts.InputFile); err != nil {
			fatal(err)
		}
		return
	case cmd.CommandExport:
		if err := runExport(opts); err != nil {
			fatal(err)
		}
		return
	}

	runLive(opts)
}

func configureLogging(cfg *config.Config) {
	level, _ := applog.ParseLevel(cfg.LogLevel)
	if cfg.Debug {
		level = applog.LevelDebug
	}
	applog.SetLevel(level)
}

func runList() error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()
	return audio.ListDevices()
}

// runAnalyze estimates the tempo of a WAV file. A zero estimate is a
// valid answer: the file has no detectable periodic onsets.
func runAnalyze(path string) error {
	samples, sampleRate, err := audio.LoadWAV(path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bpm, err := analysis.NewTempoEstimator().Estimate(ctx, samples, sampleRate)
	if err != nil {
		return err
	}
	if bpm == 0 {
		fmt.Printf("%s: no tempo detected\n", path)
		return nil
	}
	fmt.Printf("%s: %d BPM\n", path, bpm)
	return nil
}

func runExport(opts *cmd.Options) error {
	samples, sampleRate, err := audio.LoadWAV(opts.InputFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return render.ExportVideo(ctx, samples, sampleRate, opts.Config, render.ExportOptions{
		AudioFile:  opts.InputFile,
		OutputFile: opts.ExportFile,
		FFmpegPath: opts.FFmpegPath,
	})
}

func runLive(opts *cmd.Options) {
	cfg := opts.Config

	// Two OS threads: one for the capture callback, one for everything
	// else.
	runtime.GOMAXPROCS(2)

	if opts.PickDevice {
		selection, err := tui.PickDevice()
		if err != nil {
			fatal(err)
		}
		if !selection.Confirmed {
			return
		}
		cfg.Audio.DeviceID = selection.DeviceID
		cfg.Audio.SampleRate = selection.SampleRate
	}

	if err := audio.Initialize(); err != nil {
		fatal(err)
	}
	defer audio.Terminate()

	windowType, err := analysis.ParseWindowFunc(cfg.Analysis.Window)
	if err != nil {
		fatal(err)
	}
	analyzer, err := analysis.NewSpectrumAnalyzer(
		cfg.Analysis.FFTSize, cfg.Audio.SampleRate, cfg.Analysis.Smoothing, windowType)
	if err != nil {
		fatal(err)
	}

	var tape *audio.Tape
	if cfg.Audio.TapeSeconds > 0 {
		tape, err = audio.NewTape(cfg.Audio.TapeSeconds * int(cfg.Audio.SampleRate))
		if err != nil {
			fatal(err)
		}
	}

	engine, err := audio.NewEngine(&cfg.Audio, analyzer, tape)
	if err != nil {
		fatal(err)
	}

	visualizers, err := buildVisualizers(analyzer, cfg)
	if err != nil {
		fatal(err)
	}

	transports, closers, err := buildTransports(cfg, analyzer)
	if err != nil {
		fatal(err)
	}

	loop, err := render.NewFrameLoop(analyzer, visualizers, transports, cfg.Viz.FrameRate)
	if err != nil {
		fatal(err)
	}

	// ==================== CONCURRENT PHASE ====================

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	// SIGUSR1 toggles the analyzer freeze so an operator can hold a
	// spectrum still without stopping capture.
	freeze := make(chan os.Signal, 1)
	signal.Notify(freeze, syscall.SIGUSR1)
	go func() {
		for range freeze {
			if analyzer.Frozen() {
				analyzer.Resume()
				applog.Infof("Analyzer resumed")
			} else {
				analyzer.Freeze()
				applog.Infof("Analyzer frozen")
			}
		}
	}()

	if err := engine.StartInputStream(); err != nil {
		fatal(err)
	}

	if cfg.Record.Enabled {
		if err := engine.StartRecording(cfg.Record.OutputFile); err != nil {
			fatal(err)
		}
		applog.Infof("Recording to %s", cfg.Record.OutputFile)
	}

	loop.Start()
	applog.Infof("%s running, Ctrl-C to stop", build.GetBuildFlags().Name)

	<-done

	// ==================== SHUTDOWN PHASE ====================

	if err := loop.Stop(); err != nil {
		applog.Errorf("Error stopping frame loop: %v", err)
	}

	if cfg.Record.Enabled {
		if err := engine.StopRecording(); err != nil {
			applog.Errorf("Error stopping recording: %v", err)
		} else {
			fmt.Printf("\nRecording saved to: %s\n", cfg.Record.OutputFile)
		}
	}

	if err := engine.Close(); err != nil {
		applog.Errorf("Error closing audio engine: %v", err)
	}

	// The tempo estimate goes out to any live consumers before the
	// transports shut down.
	reportSessionTempo(tape, cfg.Audio.SampleRate, transports)

	for _, c := range closers {
		if err := c.Close(); err != nil {
			applog.Errorf("Error closing transport: %v", err)
		}
	}
}

// buildVisualizers assembles the three renderers on their own surfaces.
func buildVisualizers(analyzer *analysis.SpectrumAnalyzer, cfg *config.Config) ([]render.Visualizer, error) {
	w, h, ratio := cfg.Viz.Width, cfg.Viz.Height, cfg.Viz.PixelRatio

	scopeSurface, err := render.NewSurface(w, h, ratio)
	if err != nil {
		return nil, err
	}
	specSurface, err := render.NewSurface(w, h, ratio)
	if err != nil {
		return nil, err
	}
	harmSurface, err := render.NewSurface(w, h, ratio)
	if err != nil {
		return nil, err
	}
	harmSurface.Fill(color.RGBA{A: 255})

	spectrogram, err := render.NewSpectrogram(specSurface, analyzer)
	if err != nil {
		return nil, err
	}

	return []render.Visualizer{
		render.NewOscilloscope(scopeSurface, analyzer),
		spectrogram,
		render.NewHarmonograph(harmSurface, analyzer),
	}, nil
}

// buildTransports wires the configured publishers. The UDP publisher
// runs its own clock against the analyzer, so it is started here and
// returned only as a closer; the WebSocket transport receives frame
// events from the loop.
func buildTransports(cfg *config.Config, analyzer *analysis.SpectrumAnalyzer) ([]transport.Transport, []interface{ Close() error }, error) {
	var transports []transport.Transport
	var closers []interface{ Close() error }

	if cfg.Publish.WebSocketEnabled {
		wst := transport.NewWebSocketTransport(cfg.Publish.WebSocketAddr)
		transports = append(transports, wst)
		closers = append(closers, wst)
	}

	if cfg.Publish.UDPEnabled {
		sender, err := udp.NewSender(cfg.Publish.UDPTargetAddress)
		if err != nil {
			return nil, nil, err
		}
		interval := time.Second / time.Duration(cfg.Viz.FrameRate)
		publisher, err := udp.NewPublisher(interval, sender, analyzer)
		if err != nil {
			sender.Close()
			return nil, nil, err
		}
		publisher.Start()
		closers = append(closers, publisher, sender)
	}

	return transports, closers, nil
}

// reportSessionTempo runs the tempo estimator over whatever the session
// tape captured and publishes the result. Best effort: a short deadline
// keeps shutdown snappy.
func reportSessionTempo(tape *audio.Tape, sampleRate float64, transports []transport.Transport) {
	if tape == nil || tape.Len() == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bpm, err := analysis.NewTempoEstimator().Estimate(ctx, tape.Snapshot(), sampleRate)
	if err != nil {
		applog.Warnf("Session tempo estimate aborted: %v", err)
		return
	}

	for _, t := range transports {
		if err := t.Send(render.TempoEvent{BPM: bpm}); err != nil {
			applog.Debugf("Tempo event send error: %v", err)
		}
	}

	if bpm == 0 {
		applog.Infof("Session tempo: none detected")
		return
	}
	fmt.Printf("Session tempo: %d BPM\n", bpm)
}

func fatal(err error) {
	applog.Fatalf("%v", err)
}
