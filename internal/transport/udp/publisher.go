// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"vizor/internal/analysis"
	applog "vizor/internal/log"
)

/*
Packet layout (BigEndian):

|<-- 4 Bytes -->|<---- 8 Bytes ---->|<-- 2 Bytes -->|<-- N Bytes -->|
+---------------+-------------------+---------------+---------------+
|   Sequence    |     Timestamp     |   Bin Count   |   Spectrum    |
|   (uint32)    | (int64, ns epoch) |    (uint16)   |  (N x uint8)  |
+---------------+-------------------+---------------+---------------+

The spectrum payload is the analyzer's quantized byte magnitudes, one
byte per bin, lowest frequency first. A byte payload keeps a full
4096-bin spectrum comfortably inside a single unfragmented datagram.
*/

// Publisher periodically snapshots the analyzer's byte spectrum, packs
// it into the datagram format above and sends it through a Sender. The
// publishing goroutine is managed by Start and Stop.
type Publisher struct {
	sender   *Sender
	analyzer *analysis.SpectrumAnalyzer
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop.

	sequenceNum uint32

	// Reused across ticks so the hot path does not allocate.
	spectrum     []byte
	packetBuffer *bytes.Buffer
}

// NewPublisher wires a sender to an analyzer. A non-positive interval
// falls back to ~60 Hz.
func NewPublisher(interval time.Duration, sender *Sender, analyzer *analysis.SpectrumAnalyzer) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("publisher: UDP sender cannot be nil")
	}
	if analyzer == nil {
		return nil, fmt.Errorf("publisher: spectrum analyzer cannot be nil")
	}

	if interval <= 0 {
		interval = 16 * time.Millisecond
		applog.Warnf("Publisher: invalid interval provided, defaulting to %s", interval)
	}

	bins := analyzer.BinCount()
	applog.Infof("Publisher: initializing (interval: %s, bins: %d)", interval, bins)

	return &Publisher{
		sender:       sender,
		analyzer:     analyzer,
		interval:     interval,
		spectrum:     make([]byte, bins),
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Start launches the publishing goroutine. Calling Start while already
// running is a no-op.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("Publisher: Start called but already running")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	// Local copies so the goroutine never races Stop's field resets.
	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Infof("Publisher: goroutine started (interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.buildAndSendPacket()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the goroutine to exit and waits for it. Safe to call
// repeatedly and before Start.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}

	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	applog.Infof("Publisher: goroutine finished")
	return nil
}

func (p *Publisher) buildAndSendPacket() {
	if err := p.analyzer.FrequencyDataInto(p.spectrum); err != nil {
		applog.Errorf("Publisher: error snapshotting spectrum: %v", err)
		return
	}

	p.sequenceNum++
	timestamp := time.Now().UnixNano()
	binCount := uint16(len(p.spectrum))

	p.packetBuffer.Reset()
	err := binary.Write(p.packetBuffer, binary.BigEndian, p.sequenceNum)
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, timestamp)
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, binCount)
	}
	if err == nil {
		_, err = p.packetBuffer.Write(p.spectrum)
	}
	if err != nil {
		applog.Errorf("Publisher: error packing packet: %v", err)
		return
	}

	if err := p.sender.Send(p.packetBuffer.Bytes()); err != nil {
		applog.Debugf("Publisher: send error for packet %d: %v", p.sequenceNum, err)
		return
	}
	applog.Debugf("Publisher: sent packet %d (%d bytes)", p.sequenceNum, p.packetBuffer.Len())
}

// Close stops the publisher; the sender is owned by the caller.
func (p *Publisher) Close() error {
	return p.Stop()
}

var _ interface{ Close() error } = (*Publisher)(nil)
