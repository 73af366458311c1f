// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"sync"

	applog "vizor/internal/log"
)

const int32Scale = 1.0 / 2147483648.0

// Tape accumulates the session's captured audio as normalized float64
// samples for offline analysis (tempo estimation over the whole take).
// The backing slice is allocated once at construction; when capacity
// runs out the tape stops appending rather than growing or wrapping,
// so the analysis window is always the start of the session.
//
// Append runs on the capture callback thread, Snapshot on whichever
// goroutine asks for analysis; the mutex covers the overlap.
type Tape struct {
	mu       sync.Mutex
	samples  []float64
	capacity int
	warned   bool
}

// NewTape allocates a tape holding up to capacity samples.
func NewTape(capacity int) (*Tape, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("tape capacity must be positive, got %d", capacity)
	}
	return &Tape{
		samples:  make([]float64, 0, capacity),
		capacity: capacity,
	}, nil
}

// Append normalizes the int32 capture buffer into [-1,1) and appends as
// much of it as fits. Appends past capacity are dropped with a single
// warning for the session.
func (t *Tape) Append(buffer []int32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	room := t.capacity - len(t.samples)
	if room <= 0 {
		t.warnFullLocked()
		return
	}
	if len(buffer) > room {
		buffer = buffer[:room]
		t.warnFullLocked()
	}

	for _, s := range buffer {
		t.samples = append(t.samples, float64(s)*int32Scale)
	}
}

func (t *Tape) warnFullLocked() {
	if t.warned {
		return
	}
	t.warned = true
	applog.Warnf("Tape: capacity of %d samples reached, further audio is not retained for analysis", t.capacity)
}

// Len reports how many samples are stored.
func (t *Tape) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.samples)
}

// Snapshot copies the recorded samples. The copy is the caller's; the
// tape keeps appending underneath it.
func (t *Tape) Snapshot() []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]float64, len(t.samples))
	copy(out, t.samples)
	return out
}

// Reset discards the stored samples, keeping the allocation.
func (t *Tape) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples = t.samples[:0]
	t.warned = false
}
