// SPDX-License-Identifier: MIT
package analysis

import (
	"context"
	"fmt"
	"math"
	"sort"

	applog "vizor/internal/log"
)

// Fixed numeric policy of the tempo estimator. These are deliberately not
// configurable: downstream consumers depend on the literal thresholds,
// range and tie-break, so "improving" them silently would break parity.
const (
	tempoChunkSize      = 2048 // Samples per energy chunk.
	tempoOnsetThreshold = 0.15 // Absolute RMS floor for an onset.
	tempoMinBPM         = 60.0 // Lower bound of the plausible musical range.
	tempoMaxBPM         = 180.0

	// How many chunks to process between cancellation checks.
	tempoCancelStride = 4096
)

// TempoEstimator infers a musical pulse from a complete mono recording.
// It is an offline, best-effort heuristic: fixed-size RMS energy chunks,
// strict local maxima above an absolute threshold as onsets, inter-onset
// intervals converted to BPM candidates, and a lower-median pick. It runs
// off the render path and is cancellable between stages; a cancelled run
// produces no partial result.
type TempoEstimator struct{}

// NewTempoEstimator returns a ready estimator. It holds no state between
// runs; Estimate is a pure function of its inputs.
func NewTempoEstimator() *TempoEstimator {
	return &TempoEstimator{}
}

// Estimate returns the detected tempo in whole BPM, or 0 when no tempo is
// detectable (too few onsets, or no candidate in [60,180]). The zero
// sentinel is a first-class "unknown", not an error. The only error cases
// are an invalid sample rate and context cancellation.
func (te *TempoEstimator) Estimate(ctx context.Context, samples []float64, sampleRate float64) (int, error) {
	if sampleRate <= 0 {
		return 0, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}

	energies, err := chunkEnergies(ctx, samples)
	if err != nil {
		return 0, err
	}

	onsets := detectOnsets(energies, sampleRate)
	if len(onsets) < 2 {
		applog.Debugf("Analysis: tempo estimation found %d onsets, need at least 2", len(onsets))
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	candidates := tempoCandidates(onsets)
	if len(candidates) == 0 {
		applog.Debugf("Analysis: no tempo candidates in [%.0f,%.0f] BPM", tempoMinBPM, tempoMaxBPM)
		return 0, nil
	}

	return int(math.Round(lowerMedian(candidates))), nil
}

// chunkEnergies computes the RMS amplitude of consecutive tempoChunkSize
// windows. The final partial window uses its own length as the RMS
// denominator so it never reads out of bounds.
func chunkEnergies(ctx context.Context, samples []float64) ([]float64, error) {
	n := (len(samples) + tempoChunkSize - 1) / tempoChunkSize
	energies := make([]float64, 0, n)

	for start := 0; start < len(samples); start += tempoChunkSize {
		if len(energies)%tempoCancelStride == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		end := start + tempoChunkSize
		if end > len(samples) {
			end = len(samples)
		}

		var sumSquare float64
		for _, s := range samples[start:end] {
			sumSquare += s * s
		}
		energies = append(energies, math.Sqrt(sumSquare/float64(end-start)))
	}

	return energies, nil
}

// detectOnsets returns the timestamps (seconds) of chunks that are strict
// local energy maxima above the absolute threshold. The first and last
// chunks have no two neighbors and are never onsets. Timestamps are
// monotonically increasing by construction.
func detectOnsets(energies []float64, sampleRate float64) []float64 {
	var onsets []float64
	for i := 1; i < len(energies)-1; i++ {
		if energies[i] > tempoOnsetThreshold &&
			energies[i] > energies[i-1] &&
			energies[i] > energies[i+1] {
			onsets = append(onsets, float64(i)*tempoChunkSize/sampleRate)
		}
	}
	return onsets
}

// tempoCandidates converts consecutive inter-onset intervals to BPM and
// keeps those inside the closed plausible range.
func tempoCandidates(onsets []float64) []float64 {
	var candidates []float64
	for i := 1; i < len(onsets); i++ {
		interval := onsets[i] - onsets[i-1]
		if interval <= 0 {
			continue
		}
		bpm := 60.0 / interval
		if bpm >= tempoMinBPM && bpm <= tempoMaxBPM {
			candidates = append(candidates, bpm)
		}
	}
	return candidates
}

// lowerMedian sorts ascending and picks index len/2. For even-length lists
// this is the upper of the two middle elements, not their average. That
// asymmetry is part of the output contract.
func lowerMedian(candidates []float64) float64 {
	sort.Float64s(candidates)
	return candidates[len(candidates)/2]
}
