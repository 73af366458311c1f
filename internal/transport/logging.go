// SPDX-License-Identifier: MIT
package transport

import (
	applog "vizor/internal/log"
)

// LoggingTransport is a stand-in sink used when no network transport is
// configured. It accepts everything and discards it; useful for keeping
// the frame loop's publish path exercised in development.
type LoggingTransport struct{}

func NewLoggingTransport() *LoggingTransport {
	applog.Infof("Transport: using logging transport (events are discarded)")
	return &LoggingTransport{}
}

// Send never fails.
func (lt *LoggingTransport) Send(data any) error {
	applog.Debugf("Transport: event (%T): %+v", data, data)
	return nil
}

func (lt *LoggingTransport) Close() error {
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
