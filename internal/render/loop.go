// SPDX-License-Identifier: MIT
package render

import (
	"fmt"
	"sync"
	"time"

	"vizor/internal/analysis"
	applog "vizor/internal/log"
	"vizor/internal/transport"
)

// FrameEvent is the per-tick payload published to transports: the band
// energies driving the harmonograph plus the frame counter, in a shape
// viewer pages can consume directly as JSON.
type FrameEvent struct {
	Frame uint64  `json:"frame"`
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
}

// TempoEvent carries a tempo estimate to transport consumers. BPM of
// zero means no tempo was detectable.
type TempoEvent struct {
	BPM int `json:"bpm"`
}

// FrameLoop drives a set of visualizers at a fixed rate. All Draw calls
// run serialized on the loop goroutine, so visualizers never need their
// own locking; the analyzer's snapshot methods provide the coherent
// view each frame works from.
type FrameLoop struct {
	source      SampleSource
	visualizers []Visualizer
	transports  []transport.Transport
	interval    time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop.

	frame uint64
	freq  []byte // Reused band-measurement snapshot.
}

// NewFrameLoop assembles a loop over the given visualizers. Frame rate
// must be positive; visualizers may be empty (the loop still publishes
// band events).
func NewFrameLoop(source SampleSource, visualizers []Visualizer, transports []transport.Transport, frameRate int) (*FrameLoop, error) {
	if source == nil {
		return nil, fmt.Errorf("frame loop: sample source cannot be nil")
	}
	if frameRate <= 0 {
		return nil, fmt.Errorf("frame loop: frame rate must be positive, got %d", frameRate)
	}

	return &FrameLoop{
		source:      source,
		visualizers: visualizers,
		transports:  transports,
		interval:    time.Second / time.Duration(frameRate),
		freq:        make([]byte, source.BinCount()),
	}, nil
}

// Start launches the draw goroutine. A no-op when already running.
func (fl *FrameLoop) Start() {
	fl.mu.Lock()
	if fl.ticker != nil {
		fl.mu.Unlock()
		applog.Warnf("FrameLoop: Start called but already running")
		return
	}

	fl.ticker = time.NewTicker(fl.interval)
	fl.doneChan = make(chan struct{})
	fl.stopOnce = sync.Once{}

	ticker := fl.ticker
	doneChan := fl.doneChan
	fl.mu.Unlock()

	fl.wg.Add(1)
	go func() {
		defer fl.wg.Done()
		applog.Infof("FrameLoop: started (%d visualizers, interval %s)", len(fl.visualizers), fl.interval)
		for {
			select {
			case <-ticker.C:
				fl.Tick()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop halts the draw goroutine and waits for the in-flight frame to
// finish. Safe to call repeatedly and before Start.
func (fl *FrameLoop) Stop() error {
	fl.mu.Lock()
	if fl.ticker == nil {
		fl.mu.Unlock()
		return nil
	}

	fl.stopOnce.Do(func() {
		close(fl.doneChan)
		fl.ticker.Stop()
		fl.ticker = nil
	})
	fl.mu.Unlock()

	fl.wg.Wait()
	applog.Infof("FrameLoop: stopped after %d frames", fl.frame)
	return nil
}

// Tick renders one frame across all visualizers and publishes the band
// event. Exposed so offline exporters can step the loop manually
// instead of running on the wall clock.
func (fl *FrameLoop) Tick() {
	fl.frame++

	for _, v := range fl.visualizers {
		v.Draw(fl.source)
	}

	if len(fl.transports) == 0 {
		return
	}
	if err := fl.source.FrequencyDataInto(fl.freq); err != nil {
		return
	}
	bands := analysis.MeasureBands(fl.freq)
	event := FrameEvent{Frame: fl.frame, Low: bands.Low, High: bands.High}
	for _, t := range fl.transports {
		if err := t.Send(event); err != nil {
			applog.Debugf("FrameLoop: transport send error: %v", err)
		}
	}
}

// Frame reports how many ticks have run.
func (fl *FrameLoop) Frame() uint64 { return fl.frame }

// Resize propagates new canvas geometry to every visualizer. Must not
// be called concurrently with a running loop; callers stop the loop or
// invoke it from the loop goroutine.
func (fl *FrameLoop) Resize(width, height int, scale float64) error {
	for _, v := range fl.visualizers {
		if err := v.Resize(width, height, scale); err != nil {
			return fmt.Errorf("resize %s: %w", v.Name(), err)
		}
	}
	return nil
}

// Close implements io.Closer for the engine's shutdown sweep.
func (fl *FrameLoop) Close() error {
	return fl.Stop()
}
