// SPDX-License-Identifier: MIT
package config

// Core configuration constants that define the boundaries and defaults
// for the capture, analysis and rendering pipeline.
const (
	// Audio capture defaults
	DefaultChannels        = 1           // Mono capture
	DefaultDeviceID        = MinDeviceID // System default device
	DefaultFramesPerBuffer = 1024        // Capture buffer size = FFT size
	DefaultLowLatency      = false
	DefaultSampleRate      = 44100

	// Analysis defaults
	DefaultFFTSize   = 1024   // Power of 2; bin count = FFTSize/2
	DefaultSmoothing = 0.8    // Temporal smoothing of the byte spectrum
	DefaultFFTWindow = "Hann" // See analysis.ParseWindowFunc

	// Visualization defaults
	DefaultCanvasWidth  = 640 // Logical pixels
	DefaultCanvasHeight = 360
	DefaultPixelRatio   = 1.0 // Device pixel ratio for vector surfaces
	DefaultFrameRate    = 60  // Draw ticks per second

	// Session tape default: how much audio the offline tempo estimator
	// can look back over.
	DefaultTapeSeconds = 120

	// Hardware and processing limits
	MinDeviceID   = -1     // -1 selects the system default device
	MinSampleRate = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate = 192000 // Maximum supported sample rate (Hz)
	MaxFFTSize    = 8192   // Maximum FFT size (power of 2)
	MaxFrameRate  = 240
)

// Config holds all runtime configuration, loaded from YAML with env-var
// overrides, then adjusted by command line flags.
type Config struct {
	Debug    bool            `yaml:"debug"`
	LogLevel string          `yaml:"log_level"`
	Audio    AudioConfig     `yaml:"audio"`
	Analysis AnalysisConfig  `yaml:"analysis"`
	Viz      VizConfig       `yaml:"viz"`
	Record   RecordConfig    `yaml:"recording"`
	Publish  TransportConfig `yaml:"transport"`
}

// AudioConfig holds audio capture settings.
type AudioConfig struct {
	DeviceID        int     `yaml:"input_device"`      // PortAudio device index (-1 for default)
	Channels        int     `yaml:"input_channels"`    // 1 = mono, 2 = stereo
	SampleRate      float64 `yaml:"sample_rate"`       // Hz
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Capture buffer size in frames
	LowLatency      bool    `yaml:"low_latency"`
	TapeSeconds     int     `yaml:"tape_seconds"` // Session tape capacity for tempo analysis
}

// AnalysisConfig holds spectrum analyzer settings.
type AnalysisConfig struct {
	FFTSize   int     `yaml:"fft_size"`   // Power of 2
	Smoothing float64 `yaml:"smoothing"`  // [0,1) fraction of previous frame kept
	Window    string  `yaml:"fft_window"` // Window function name
}

// VizConfig holds render surface geometry and frame pacing.
type VizConfig struct {
	Width      int     `yaml:"width"`       // Logical canvas width
	Height     int     `yaml:"height"`      // Logical canvas height
	PixelRatio float64 `yaml:"pixel_ratio"` // Physical = logical * ratio
	FrameRate  int     `yaml:"frame_rate"`  // Draw ticks per second
}

// RecordConfig holds WAV recording settings for the live session.
type RecordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	OutputFile string `yaml:"output_file"` // Empty = timestamped name
}

// TransportConfig holds settings for publishing analysis results.
type TransportConfig struct {
	WebSocketEnabled bool   `yaml:"websocket_enabled"`
	WebSocketAddr    string `yaml:"websocket_addr"` // host:port for the broadcast server
	UDPEnabled       bool   `yaml:"udp_enabled"`
	UDPTargetAddress string `yaml:"udp_target_address"` // host:port for spectrum row packets
}

// NewConfig returns a Config populated with defaults. Used as the base
// before YAML, env and flag overrides are applied.
func NewConfig() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			DeviceID:        DefaultDeviceID,
			Channels:        DefaultChannels,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			TapeSeconds:     DefaultTapeSeconds,
		},
		Analysis: AnalysisConfig{
			FFTSize:   DefaultFFTSize,
			Smoothing: DefaultSmoothing,
			Window:    DefaultFFTWindow,
		},
		Viz: VizConfig{
			Width:      DefaultCanvasWidth,
			Height:     DefaultCanvasHeight,
			PixelRatio: DefaultPixelRatio,
			FrameRate:  DefaultFrameRate,
		},
		Record: RecordConfig{
			Enabled:    false,
			OutputFile: "",
		},
		Publish: TransportConfig{
			WebSocketEnabled: false,
			WebSocketAddr:    ":8080",
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
		},
	}
}
