// SPDX-License-Identifier: MIT
/*
Package audio implements the capture side of the pipeline:
- PortAudio input streaming with pre-allocated buffers
- Branchless noise gate ahead of spectrum analysis
- Session tape feeding offline tempo estimation
- WAV recording with atomic state management
- WAV decoding for the offline analyze/export paths

The capture callback runs on a locked OS thread and performs no
allocations; everything it touches is sized at engine construction.
*/
package audio

import (
	"fmt"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"

	"vizor/internal/analysis"
	"vizor/internal/config"
	applog "vizor/internal/log"
)

type Engine struct {
	cfg *config.AudioConfig

	// Audio input handling.
	inputBuffer  []int32
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream

	// Downstream consumers of the captured signal.
	analyzer  *analysis.SpectrumAnalyzer
	tape      *Tape
	monoInput []int32 // Mono downmix buffer for multichannel captures.

	// Noise gate ahead of spectrum analysis.
	gateEnabled   bool
	gateThreshold int32 // Absolute amplitude threshold (0-2147483647).

	// Recording state and buffers.
	isRecording int32 // Atomic flag for thread-safe state.
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *audio.IntBuffer // Reusable buffer for format conversion.
}

// NewEngine resolves the input device and sizes every buffer the
// capture callback will touch. The analyzer is required; the tape may
// be nil when no offline analysis is wanted.
func NewEngine(cfg *config.AudioConfig, analyzer *analysis.SpectrumAnalyzer, tape *Tape) (*Engine, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("engine: spectrum analyzer cannot be nil")
	}

	inputDevice, err := InputDevice(cfg.DeviceID)
	if err != nil {
		return nil, err
	}

	inputSize := cfg.FramesPerBuffer * cfg.Channels

	engine := &Engine{
		cfg:           cfg,
		inputBuffer:   make([]int32, inputSize),
		inputDevice:   inputDevice,
		analyzer:      analyzer,
		tape:          tape,
		monoInput:     make([]int32, cfg.FramesPerBuffer),
		gateEnabled:   true,
		gateThreshold: 2147483647 / 1000, // Default to ~0.1% of max value.
	}

	if cfg.LowLatency {
		engine.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		engine.inputLatency = inputDevice.DefaultHighInputLatency
	}

	applog.Infof("Engine: using input device [%d] %s (%.0f Hz, %d ch)",
		cfg.DeviceID, inputDevice.Name, cfg.SampleRate, cfg.Channels)

	return engine, nil
}

func (e *Engine) StartInputStream() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.cfg.Channels,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0,
			Device:   nil,
		},
		FramesPerBuffer: e.cfg.FramesPerBuffer,
		SampleRate:      e.cfg.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return err
	}
	e.inputStream = stream

	if err := e.inputStream.Start(); err != nil {
		e.inputStream.Close()
		return err
	}

	return nil
}

func (e *Engine) StopInputStream() error {
	if e.inputStream != nil {
		if err := e.inputStream.Stop(); err != nil {
			return err
		}

		if err := e.inputStream.Close(); err != nil {
			return err
		}

		e.inputStream = nil
	}

	return nil
}

// processInputStream is the capture callback. It runs on a dedicated
// locked OS thread and uses pre-allocated buffers only.
func (e *Engine) processInputStream(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	copy(e.inputBuffer, in)
	e.processBuffer(e.inputBuffer)

	if atomic.LoadInt32(&e.isRecording) == 1 && e.wavEncoder != nil {
		for i, sample := range e.inputBuffer {
			e.sampleBuf.Data[i] = int(sample)
		}

		e.sampleBuf.Data = e.sampleBuf.Data[:len(e.inputBuffer)]

		if err := e.wavEncoder.Write(e.sampleBuf); err != nil {
			applog.Errorf("Engine: error writing to WAV file: %v", err)
		}
	}
}

// processBuffer performs all DSP work on the capture buffer. Hot path:
// no allocations, branchless gate, direct analyzer call.
func (e *Engine) processBuffer(buffer []int32) {
	mono := e.downmix(buffer)

	// The tape always records; the tempo estimator needs the quiet
	// passages for correct onset timing.
	if e.tape != nil {
		e.tape.Append(mono)
	}

	shouldAnalyze := true
	if e.gateEnabled {
		var maxAmplitude int32
		for i := range buffer {
			sample := buffer[i]
			mask := sample >> 31
			amplitude := (sample ^ mask) - mask
			diff := amplitude - maxAmplitude
			maxAmplitude += (diff & (diff >> 31)) ^ diff
		}
		shouldAnalyze = maxAmplitude > e.gateThreshold
	}

	if shouldAnalyze {
		e.analyzer.Process(mono)
	}
}

// downmix reduces an interleaved capture buffer to mono by taking the
// first channel of each frame. Mono input passes through untouched.
func (e *Engine) downmix(buffer []int32) []int32 {
	if e.cfg.Channels == 1 {
		return buffer
	}
	for i := 0; i < e.cfg.FramesPerBuffer; i++ {
		if i*e.cfg.Channels < len(buffer) {
			e.monoInput[i] = buffer[i*e.cfg.Channels]
		} else {
			e.monoInput[i] = 0
		}
	}
	return e.monoInput
}

// Tape exposes the session tape for offline analysis.
func (e *Engine) Tape() *Tape { return e.tape }
