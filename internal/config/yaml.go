// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"vizor/pkg/bitint"
)

// LoadConfig loads configuration from a YAML file. If path is empty, it
// searches default locations ("vizor.yaml", "config.yaml"). A missing
// file is not an error: built-in defaults are used. Environment variable
// overrides apply after the file, flags apply later in cmd.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		candidates := []string{"vizor.yaml", "config.yaml"}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks every field the engine and renderers depend on at
// construction time. Draw-path code assumes these hold and does not
// re-check them.
func (c *Config) Validate() error {
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %.0f outside [%d,%d]", c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Audio.Channels < 1 || c.Audio.Channels > 2 {
		return fmt.Errorf("audio.input_channels must be 1 or 2, got %d", c.Audio.Channels)
	}
	if c.Audio.FramesPerBuffer <= 0 {
		return fmt.Errorf("audio.frames_per_buffer must be positive, got %d", c.Audio.FramesPerBuffer)
	}
	if c.Audio.TapeSeconds < 0 {
		return fmt.Errorf("audio.tape_seconds must not be negative, got %d", c.Audio.TapeSeconds)
	}
	if !bitint.IsPowerOfTwo(c.Analysis.FFTSize) || c.Analysis.FFTSize > MaxFFTSize {
		return fmt.Errorf("analysis.fft_size must be a power of 2 up to %d, got %d", MaxFFTSize, c.Analysis.FFTSize)
	}
	if c.Analysis.Smoothing < 0 || c.Analysis.Smoothing >= 1 {
		return fmt.Errorf("analysis.smoothing must be in [0,1), got %f", c.Analysis.Smoothing)
	}
	if c.Viz.Width <= 0 || c.Viz.Height <= 0 {
		return fmt.Errorf("viz dimensions must be positive, got %dx%d", c.Viz.Width, c.Viz.Height)
	}
	if c.Viz.PixelRatio <= 0 {
		return fmt.Errorf("viz.pixel_ratio must be positive, got %f", c.Viz.PixelRatio)
	}
	if c.Viz.FrameRate <= 0 || c.Viz.FrameRate > MaxFrameRate {
		return fmt.Errorf("viz.frame_rate must be in [1,%d], got %d", MaxFrameRate, c.Viz.FrameRate)
	}
	if c.Publish.WebSocketEnabled && c.Publish.WebSocketAddr == "" {
		return fmt.Errorf("transport.websocket_addr must be set when WebSocket publishing is enabled")
	}
	if c.Publish.UDPEnabled && c.Publish.UDPTargetAddress == "" {
		return fmt.Errorf("transport.udp_target_address must be set when UDP publishing is enabled")
	}
	return nil
}

// applyEnvOverrides applies VIZOR_* environment variables on top of
// whatever the file (or the defaults) provided.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("VIZOR_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Debug = bVal
		}
	}
	if val, ok := os.LookupEnv("VIZOR_LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	if val, ok := os.LookupEnv("VIZOR_WS_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Publish.WebSocketEnabled = bVal
		}
	}
	if val, ok := os.LookupEnv("VIZOR_WS_ADDR"); ok {
		c.Publish.WebSocketAddr = val
	}
	if val, ok := os.LookupEnv("VIZOR_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Publish.UDPEnabled = bVal
		}
	}
	if val, ok := os.LookupEnv("VIZOR_UDP_TARGET_ADDRESS"); ok {
		c.Publish.UDPTargetAddress = val
	}
}
