package tef

import (
	"errors"
	"fmt"

	"github.com/OmegaSebastianSandoval/kiosko-tef-bridge/internal/frame"
)

// Sentinel errors for the coordinator-facing conditions that carry no
// payload.
var (
	ErrInvalidRequest = errors.New("tef: invalid request")
	ErrNotConnected   = errors.New("tef: not connected")
	ErrBusy           = errors.New("tef: transaction already in flight")
	ErrTimeout        = errors.New("tef: transaction timed out")
	ErrClosed         = errors.New("tef: coordinator closed")
	ErrShortFrame     = frame.ErrShortFrame
)

// ErrorType classifies a TransportError for retry/backoff decisions made
// above the coordinator, mirroring go-pn532's TransportError/ErrorType
// contract (reconstructed here from its errors_test.go, since errors.go
// itself wasn't in the retrieval pack) and retargeted at the serial link
// instead of the PN532 command channel.
type ErrorType int

const (
	ErrorTypeTransient ErrorType = iota
	ErrorTypeTimeout
	ErrorTypePermanent
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return "permanent"
	}
}

// TransportError wraps a failure from the underlying SerialTransport with
// enough context for the HTTP layer and logs to report something
// actionable: which operation, which port, and whether a caller might
// reasonably retry.
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("tef: transport %s on %s: %v", e.Op, e.Port, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NewTransportError builds a TransportError, grounded on
// go-pn532/internal/transport/retry.go's NewTransportError call shape.
func NewTransportError(op, port string, err error, typ ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      typ,
		Retryable: typ != ErrorTypePermanent,
	}
}

// IsRetryable reports whether err (a plain error or a *TransportError)
// represents a condition worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}
	return false
}

// ChecksumMismatchError surfaces the expected/received LRC pair from a
// failed frame decode. The event loop constructs one (via
// asChecksumMismatch) to log a checksum failure before NACKing the frame.
type ChecksumMismatchError struct {
	Expected byte
	Received byte
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("tef: checksum mismatch: expected %#02x, received %#02x", e.Expected, e.Received)
}

// asChecksumMismatch converts a *frame.ChecksumError into the
// coordinator-facing *ChecksumMismatchError shape.
func asChecksumMismatch(err error) (*ChecksumMismatchError, bool) {
	var fe *frame.ChecksumError
	if errors.As(err, &fe) {
		return &ChecksumMismatchError{Expected: fe.Expected, Received: fe.Received}, true
	}
	return nil, false
}

// DeclinedError is never returned by the coordinator: a decline is a
// successful TerminalResponse with Approved=false, not an error. It is
// kept as a typed value callers may construct for logging or for HTTP
// error bodies higher up the stack that choose to treat declines as
// errors.
type DeclinedError struct {
	Code    string
	Message string
}

func (e *DeclinedError) Error() string {
	return fmt.Sprintf("tef: declined (%s): %s", e.Code, e.Message)
}
