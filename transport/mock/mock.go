// Package mock implements transport.SerialTransport without a physical
// datáfono: it traces writes and, after a fixed delay, delivers a canned
// approved-purchase response through the same OnBytes sink the real
// transport uses, so the coordinator's path through this transport is
// byte-identical to transport/serial's.
package mock

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/OmegaSebastianSandoval/kiosko-tef-bridge/internal/testing"
	"github.com/OmegaSebastianSandoval/kiosko-tef-bridge/transport"
)

// DefaultDelay is the fixed delay before the mock delivers its canned
// response.
const DefaultDelay = 150 * time.Millisecond

// Transport is an in-memory transport.SerialTransport for development and
// tests. Writes are traced and otherwise ignored; Response controls what
// bytes are delivered back (defaulting to an approved purchase).
type Transport struct {
	log   *logrus.Entry
	Delay time.Duration

	// Response is invoked for every Write to produce the bytes delivered
	// back through OnBytes. Defaults to a fixed approved-purchase frame.
	// Tests may replace it to exercise declines, malformed frames, or no
	// response at all (return nil).
	Response func(written []byte) []byte

	mu      sync.Mutex
	open    bool
	onBytes func([]byte)
	onError func(error)
	writes  [][]byte
	cancel  chan struct{}
}

// New creates an unopened mock transport delivering the canned approved
// purchase response to every write.
func New(log *logrus.Logger) *Transport {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Transport{
		log:   log.WithField("component", "transport.mock"),
		Delay: DefaultDelay,
		Response: func([]byte) []byte {
			return testing.BuildApprovedPurchaseResponse()
		},
	}
}

// Open transitions the mock to the open state. Re-opening an open mock
// returns transport.ErrAlreadyOpen, matching the real transport's contract.
func (t *Transport) Open(transport.Config) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.open {
		return transport.ErrAlreadyOpen
	}
	t.open = true
	t.cancel = make(chan struct{})
	return nil
}

// Close releases the mock and cancels any scheduled response delivery.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.open {
		return nil
	}
	t.open = false
	close(t.cancel)
	return nil
}

// Write traces the bytes and, after Delay, delivers Response(data) to the
// registered OnBytes sink. The written bytes themselves are otherwise
// ignored beyond tracing.
func (t *Transport) Write(data []byte) error {
	t.mu.Lock()
	if !t.open {
		t.mu.Unlock()
		return transport.ErrNotOpen
	}
	t.writes = append(t.writes, append([]byte(nil), data...))
	t.log.Debugf("mock write: % x", data)
	cancel := t.cancel
	delay := t.Delay
	respond := t.Response
	t.mu.Unlock()

	if respond == nil || len(data) == 1 && data[0] == 0x06 {
		return nil // caller is ACKing one of our own frames; nothing to answer
	}

	go func() {
		select {
		case <-time.After(delay):
		case <-cancel:
			return
		}
		resp := respond(data)
		if len(resp) == 0 {
			return
		}
		t.mu.Lock()
		cb := t.onBytes
		t.mu.Unlock()
		if cb != nil {
			cb(resp)
		}
	}()
	return nil
}

// OnBytes registers the inbound-byte callback.
func (t *Transport) OnBytes(fn func([]byte)) {
	t.mu.Lock()
	t.onBytes = fn
	t.mu.Unlock()
}

// OnError registers the error callback. The mock never calls it on its
// own; tests that need a transport error inject one via InjectError.
func (t *Transport) OnError(fn func(error)) {
	t.mu.Lock()
	t.onError = fn
	t.mu.Unlock()
}

// InjectError delivers err through the registered error sink, letting
// tests exercise the coordinator's TransportError path without a real
// serial failure.
func (t *Transport) InjectError(err error) {
	t.mu.Lock()
	cb := t.onError
	t.mu.Unlock()
	if cb != nil {
		cb(err)
	}
}

// DeliverBytes injects raw bytes through the registered OnBytes sink,
// bypassing the write/response pairing — used by reassembly-robustness
// tests that need to feed chunked, garbage-interleaved byte sequences
// directly.
func (t *Transport) DeliverBytes(b []byte) {
	t.mu.Lock()
	cb := t.onBytes
	t.mu.Unlock()
	if cb != nil {
		cb(b)
	}
}

// Writes returns every byte sequence written so far, for assertions.
func (t *Transport) Writes() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.writes))
	copy(out, t.writes)
	return out
}
