// SPDX-License-Identifier: MIT
package analysis

import (
	"context"
	"testing"

	"vizor/pkg/utils"
)

func estimate(t *testing.T, samples []float64, sampleRate float64) int {
	t.Helper()
	bpm, err := NewTempoEstimator().Estimate(context.Background(), samples, sampleRate)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	return bpm
}

func TestEstimateSilence(t *testing.T) {
	// No chunk ever exceeds the energy threshold, so no onsets and no tempo.
	for _, size := range []int{0, 100, 44100, 5 * 44100} {
		if bpm := estimate(t, make([]float64, size), 44100); bpm != 0 {
			t.Errorf("Silence of %d samples should estimate 0 BPM, got %d", size, bpm)
		}
	}
}

func TestEstimateTooFewOnsets(t *testing.T) {
	// A single burst produces at most one onset; fewer than two onsets
	// means no interval to measure.
	samples := utils.GenerateClickTrain(1, 10*tempoChunkSize, 256, 4*tempoChunkSize, 0.9)
	if bpm := estimate(t, samples, 44100); bpm != 0 {
		t.Errorf("Single onset should estimate 0 BPM, got %d", bpm)
	}
}

func TestEstimateHalfSecondPulse(t *testing.T) {
	// At 40960 Hz a 0.5s pulse period is exactly 10 chunks, so the onset
	// intervals are exactly 0.5s and the tempo is exactly 120 BPM.
	const sampleRate = 40960.0
	samples := utils.GenerateClickTrain(12, 10*tempoChunkSize, 256, 2*tempoChunkSize, 0.9)

	if bpm := estimate(t, samples, sampleRate); bpm != 120 {
		t.Errorf("Expected 120 BPM, got %d", bpm)
	}
}

func TestEstimateClickTrainChunkQuantized(t *testing.T) {
	// At 44100 Hz onset timestamps are quantized to the 2048-sample chunk
	// grid. Clicks every 11 chunks are 0.51084s apart, which reads as
	// 60/0.51084 = 117.45 BPM and rounds to 117.
	samples := utils.GenerateClickTrain(20, 11*tempoChunkSize, 256, 2*tempoChunkSize, 0.9)

	if bpm := estimate(t, samples, 44100); bpm != 117 {
		t.Errorf("Expected 117 BPM, got %d", bpm)
	}
}

func TestEstimateDeterminism(t *testing.T) {
	samples := utils.GenerateClickTrain(16, 11*tempoChunkSize, 256, 2*tempoChunkSize, 0.9)

	first := estimate(t, samples, 44100)
	second := estimate(t, samples, 44100)
	if first != second {
		t.Errorf("Estimate is not deterministic: %d vs %d", first, second)
	}
}

func TestEstimateRangeInvariant(t *testing.T) {
	trains := map[string][]float64{
		// 5-chunk spacing: ~258 BPM, above the plausible range.
		"TooFast": utils.GenerateClickTrain(16, 5*tempoChunkSize, 256, 2*tempoChunkSize, 0.9),
		// 22-chunk spacing: ~59 BPM, just below the plausible range.
		"TooSlow": utils.GenerateClickTrain(10, 22*tempoChunkSize, 256, 2*tempoChunkSize, 0.9),
		// In-range pulse.
		"InRange": utils.GenerateClickTrain(16, 11*tempoChunkSize, 256, 2*tempoChunkSize, 0.9),
	}

	for name, samples := range trains {
		t.Run(name, func(t *testing.T) {
			bpm := estimate(t, samples, 44100)
			if bpm != 0 && (bpm < 60 || bpm > 180) {
				t.Errorf("Non-zero estimate %d outside [60,180]", bpm)
			}
			if name != "InRange" && bpm != 0 {
				t.Errorf("Out-of-range pulse should estimate 0, got %d", bpm)
			}
			if name == "InRange" && bpm == 0 {
				t.Error("In-range pulse should produce a tempo")
			}
		})
	}
}

func TestEstimateEvenCandidateTieBreak(t *testing.T) {
	// Three onsets at chunks 10, 21, 31 yield intervals of 11 and 10
	// chunks: candidates [117.45, 129.20]. The estimator picks index
	// len/2 = 1 of the ascending sort (the upper of the two middle
	// values), so the result is 129, not an averaged 123.
	samples := make([]float64, 34*tempoChunkSize)
	for _, chunk := range []int{10, 21, 31} {
		start := chunk * tempoChunkSize
		for i := 0; i < 256; i++ {
			samples[start+i] = 0.9
		}
	}

	if bpm := estimate(t, samples, 44100); bpm != 129 {
		t.Errorf("Expected upper-middle candidate 129 BPM, got %d", bpm)
	}
}

func TestEstimateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	samples := utils.GenerateClickTrain(16, 11*tempoChunkSize, 256, 2*tempoChunkSize, 0.9)
	bpm, err := NewTempoEstimator().Estimate(ctx, samples, 44100)
	if err == nil {
		t.Fatal("Cancelled estimate should return an error")
	}
	if bpm != 0 {
		t.Errorf("Cancelled estimate must not return a partial result, got %d", bpm)
	}
}

func TestEstimateInvalidSampleRate(t *testing.T) {
	if _, err := NewTempoEstimator().Estimate(context.Background(), make([]float64, 1000), 0); err == nil {
		t.Error("Zero sample rate should be rejected")
	}
}

func TestDetectOnsetsStrictMaximum(t *testing.T) {
	tests := []struct {
		name     string
		energies []float64
		expected int
	}{
		{"SinglePeak", []float64{0, 0.3, 0}, 1},
		{"Plateau", []float64{0, 0.3, 0.3, 0}, 0},
		{"AtThreshold", []float64{0, 0.15, 0}, 0},
		{"JustAboveThreshold", []float64{0, 0.150001, 0}, 1},
		{"EdgesExcluded", []float64{0.9, 0.1, 0.9}, 0},
		{"TwoPeaks", []float64{0, 0.3, 0.1, 0.4, 0}, 2},
		{"TooShort", []float64{0.9, 0.9}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			onsets := detectOnsets(tt.energies, 44100)
			if len(onsets) != tt.expected {
				t.Errorf("Got %d onsets, want %d", len(onsets), tt.expected)
			}
			for i := 1; i < len(onsets); i++ {
				if onsets[i] <= onsets[i-1] {
					t.Error("Onset timestamps must be strictly increasing")
				}
			}
		})
	}
}

func TestChunkEnergiesPartialTail(t *testing.T) {
	// 2048 + 512 samples: the tail chunk divides by its own length, so a
	// constant signal yields the same RMS in both chunks.
	samples := make([]float64, tempoChunkSize+512)
	for i := range samples {
		samples[i] = 0.5
	}

	energies, err := chunkEnergies(context.Background(), samples)
	if err != nil {
		t.Fatal(err)
	}
	if len(energies) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(energies))
	}
	if diff := energies[0] - energies[1]; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("Tail RMS %f differs from full-chunk RMS %f", energies[1], energies[0])
	}
}

func TestLowerMedian(t *testing.T) {
	tests := []struct {
		name       string
		candidates []float64
		expected   float64
	}{
		{"Single", []float64{100}, 100},
		{"OddLength", []float64{120, 100, 140}, 120},
		{"EvenLengthPicksUpper", []float64{100, 120}, 120},
		{"EvenLengthFour", []float64{90, 100, 110, 120}, 110},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lowerMedian(tt.candidates); got != tt.expected {
				t.Errorf("lowerMedian = %f, want %f", got, tt.expected)
			}
		})
	}
}
