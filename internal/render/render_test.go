// SPDX-License-Identifier: MIT
package render

// stubSource is a fixed-snapshot SampleSource for exercising the
// visualizers without an analyzer behind them.
type stubSource struct {
	freq []byte
	time []float64
}

func (s *stubSource) BinCount() int { return len(s.freq) }
func (s *stubSource) FFTSize() int  { return len(s.time) }

func (s *stubSource) FrequencyDataInto(dst []byte) error {
	copy(dst, s.freq)
	return nil
}

func (s *stubSource) TimeDataInto(dst []float64) error {
	copy(dst, s.time)
	return nil
}

func constantSpectrum(bins int, v byte) []byte {
	freq := make([]byte, bins)
	for i := range freq {
		freq[i] = v
	}
	return freq
}
