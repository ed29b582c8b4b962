// Package transport provides a generic retry helper shared by callers
// that need to retry a fallible operation with backoff — adapted from
// go-pn532/internal/transport/retry.go's RetryOperation/WithRetry
// generics, retargeted from PN532 command retries at the datáfono
// connect/reconnect path (see cmd/tefbridged), since TEF II's own
// ACK-driven reassembly retries happen inside the coordinator's event
// loop rather than through a generic retry wrapper.
package transport

import (
	"time"

	tef "github.com/OmegaSebastianSandoval/kiosko-tef-bridge"
)

// Operation represents a fallible, retryable action.
// Returns: data, shouldRetry, error
//   - data: the result if successful
//   - shouldRetry: true if the operation should be retried
//   - error: a permanent error that should stop retries immediately
type Operation[T any] func() (T, bool, error)

// Config configures retry behavior.
type Config struct {
	OnRetry     func(attempt int, err error)
	Description string
	MaxRetries  int
	RetryDelay  time.Duration
}

// WithRetry executes operation with the given backoff policy, stopping
// early on a permanent error or once MaxRetries is exhausted.
func WithRetry[T any](cfg Config, operation Operation[T]) (T, error) {
	var zero T

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result, shouldRetry, err := operation()
		if err != nil {
			return zero, err
		}
		if !shouldRetry {
			return result, nil
		}
		if attempt >= cfg.MaxRetries {
			break
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, nil)
		}
		if cfg.RetryDelay > 0 {
			time.Sleep(cfg.RetryDelay)
		}
	}

	return zero, tef.NewTransportError(cfg.Description, "", errRetriesExhausted, tef.ErrorTypeTransient)
}

var errRetriesExhausted = errRetriesExhaustedError{}

type errRetriesExhaustedError struct{}

func (errRetriesExhaustedError) Error() string { return "retries exhausted" }
