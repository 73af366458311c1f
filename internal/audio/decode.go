// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"

	applog "vizor/internal/log"
)

// LoadWAV decodes a WAV file into normalized mono float64 samples in
// [-1,1] and returns them with the file's sample rate. Multichannel
// files are downmixed by averaging the channels of each frame.
func LoadWAV(path string) ([]float64, float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("%s is not a valid WAV file", path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 {
		return nil, 0, fmt.Errorf("%s has no usable format information", path)
	}

	bitDepth := int(decoder.BitDepth)
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, 0, fmt.Errorf("%s has unsupported bit depth %d", path, bitDepth)
	}
	scale := 1.0 / float64(uint64(1)<<(bitDepth-1))

	channels := buf.Format.NumChannels
	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c]) * scale
		}
		samples[i] = sum / float64(channels)
	}

	sampleRate := float64(decoder.SampleRate)
	applog.Debugf("LoadWAV: %s decoded (%d frames, %d ch, %d bit, %.0f Hz)",
		path, frames, channels, bitDepth, sampleRate)

	return samples, sampleRate, nil
}
