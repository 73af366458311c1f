// SPDX-License-Identifier: MIT
// Package transport publishes analysis results (band energies, detected
// tempo) to external consumers. Implementations must be thread-safe and
// must never block the caller: the frame loop calls Send once per tick.
package transport

// Transport is a generic sink for analysis events.
type Transport interface {
	Send(data any) error
	Close() error
}
