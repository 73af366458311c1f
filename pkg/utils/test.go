// SPDX-License-Identifier: MIT
// Package utils holds shared signal generators and helpers for tests.
package utils

import "math"

// GenerateSineWave fills a buffer with a single tone at 90% of full scale.
func GenerateSineWave(size int, sampleRate, frequency float64) []int32 {
	buffer := make([]int32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = int32(math.Sin(2*math.Pi*frequency*t) * math.MaxInt32 * 0.9)
	}
	return buffer
}

// GenerateComplexWave fills a buffer with a 440Hz fundamental plus two
// harmonics, useful for exercising analysis paths with non-trivial spectra.
func GenerateComplexWave(size int, sampleRate float64) []int32 {
	buffer := make([]int32, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
		buffer[i] = int32(signal * math.MaxInt32 * 0.9)
	}
	return buffer
}

// GenerateClickTrain produces a mono float buffer with rectangular bursts
// of the given amplitude every spacing samples, plus a silent tail. Each
// burst is clickLen samples long. Used by the tempo estimator tests, where
// burst placement relative to the 2048-sample chunk grid matters.
func GenerateClickTrain(numClicks, spacing, clickLen, tail int, amplitude float64) []float64 {
	buffer := make([]float64, numClicks*spacing+tail)
	for c := 0; c < numClicks; c++ {
		start := c * spacing
		for i := 0; i < clickLen && start+i < len(buffer); i++ {
			buffer[start+i] = amplitude
		}
	}
	return buffer
}

// FindPeakBin returns the index of the largest magnitude in [startBin, endBin].
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}
	if startBin < 0 {
		startBin = 0
	}
	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]
	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}
	return peakBin
}

// FindPeakByte is FindPeakBin over the byte spectra the analyzer publishes.
func FindPeakByte(freq []byte) int {
	peakBin := 0
	for bin := 1; bin < len(freq); bin++ {
		if freq[bin] > freq[peakBin] {
			peakBin = bin
		}
	}
	return peakBin
}
