// Package transport defines the byte-sink contract the TEF II coordinator
// drives its datáfono connection through, plus the concrete backends
// (serial, mock) that satisfy it.
package transport

import "fmt"

// SerialTransport is the contract the coordinator uses to talk to the
// physical (or simulated) datáfono. Unlike a request/response transport,
// SerialTransport is a raw byte sink: frame boundaries are recognized by
// the coordinator's reassembly buffer, not by the transport itself, since
// TEF II multiplexes ACK/NACK bytes and full frames onto the same stream.
type SerialTransport interface {
	// Open establishes the connection described by cfg. Calling Open on an
	// already-open transport returns an error.
	Open(cfg Config) error

	// Write sends raw bytes to the datáfono. Implementations do not frame
	// or interpret the payload.
	Write(data []byte) error

	// Close releases the underlying connection. Close on an unopened or
	// already-closed transport is a no-op.
	Close() error

	// OnBytes registers the callback invoked with every chunk of bytes
	// read from the datáfono. Only one callback is retained; registering a
	// new one replaces the old.
	OnBytes(fn func([]byte))

	// OnError registers the callback invoked when the read loop terminates
	// unexpectedly (e.g. the port is unplugged).
	OnError(fn func(error))
}

// Config describes how to open a SerialTransport.
type Config struct {
	PortPath string
	Baud     int
	DataBits int
	StopBits int
	Parity   string
}

// WithDefaults returns a copy of cfg with the TEF II line defaults
// (9600-8-N-1) filled in for any zero-valued field.
func (cfg Config) WithDefaults() Config {
	if cfg.Baud == 0 {
		cfg.Baud = 9600
	}
	if cfg.DataBits == 0 {
		cfg.DataBits = 8
	}
	if cfg.StopBits == 0 {
		cfg.StopBits = 1
	}
	if cfg.Parity == "" {
		cfg.Parity = "N"
	}
	return cfg
}

// ErrAlreadyOpen is returned by Open when the transport is already
// connected.
var ErrAlreadyOpen = fmt.Errorf("transport: already open")

// ErrNotOpen is returned by Write when called before a successful Open.
var ErrNotOpen = fmt.Errorf("transport: not open")
