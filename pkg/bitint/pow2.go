// SPDX-License-Identifier: MIT
/*
Package bitint provides power-of-2 helpers for FFT and buffer sizing.

All operations are O(1), allocation-free and real-time safe, so they may
be called from the audio hot path.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size. Exact powers of 2
// are preserved: the size-1 subtraction keeps bits.Len from overshooting
// by one position for inputs that already have a single bit set.
//
//	Input  Output
//	4      4
//	5      8
//	0      1
//	-1     1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}

	// 64-bit platforms (where int is 64-bit)
	if ^uint(0)>>63 == 0 {
		return int(1 << (bits.Len64(uint64(size - 1))))
	}

	// 32-bit platforms
	return int(1 << (bits.Len32(uint32(size - 1))))
}

// IsPowerOfTwo checks if n is a power of 2. Powers of 2 have exactly one
// bit set, so n&(n-1) clears to zero only for them.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
