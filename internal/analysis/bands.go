// SPDX-License-Identifier: MIT
package analysis

// BandLevels holds the averaged magnitudes of the two energy bands the
// harmonograph (and the transport publishers) react to. Values are in
// [0,255] like the byte spectrum they are derived from.
type BandLevels struct {
	Low  float64 // Mean of bins [0, M/4).
	High float64 // Mean of bins [M/4, M/2).
}

// MeasureBands averages the lower quarter and the second quarter of the
// byte spectrum. The upper half of the spectrum is ignored on purpose:
// audible bass/mid content is what the reactive visuals should follow.
// A spectrum too small to form a band (M/4 == 0) yields zero levels
// rather than a division by zero.
func MeasureBands(freq []byte) BandLevels {
	quarter := len(freq) / 4
	if quarter == 0 {
		return BandLevels{}
	}

	var low, high float64
	for i := 0; i < quarter; i++ {
		low += float64(freq[i])
	}
	for i := quarter; i < 2*quarter; i++ {
		high += float64(freq[i])
	}

	return BandLevels{
		Low:  low / float64(quarter),
		High: high / float64(quarter),
	}
}
