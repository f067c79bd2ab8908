package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"
)

const (
	DefaultMaxRetries        = 3
	DefaultInitialDelay      = 500 * time.Millisecond
	DefaultBackoffMultiplier = 2.0
	DefaultMaxDelay          = 5 * time.Second
)

// Options tunes WithRetry. Zero values take the defaults above.
type Options struct {
	// MaxRetries is the total number of attempts, including the first.
	MaxRetries        int
	InitialDelay      time.Duration
	BackoffMultiplier float64
	MaxDelay          time.Duration

	// OnRetry is called before each backoff sleep.
	OnRetry func(attempt int, err error, delay time.Duration)
	// Sleep replaces the context-aware timer, mainly for tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (o Options) withDefaults() Options {
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = DefaultInitialDelay
	}
	if o.BackoffMultiplier < 1 {
		o.BackoffMultiplier = DefaultBackoffMultiplier
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = DefaultMaxDelay
	}
	if o.Sleep == nil {
		o.Sleep = sleepContext
	}
	return o
}

// Result reports the outcome of a retried operation.
type Result[T any] struct {
	Success  bool
	Data     T
	Err      error
	Attempts int
}

// WithRetry runs op until it succeeds, fails with a non-retryable error, or
// exhausts MaxRetries attempts. Delays grow by BackoffMultiplier up to MaxDelay.
// Cancelling ctx abandons the loop during a backoff sleep.
func WithRetry[T any](ctx context.Context, op func(context.Context) (T, error), opts Options) Result[T] {
	opts = opts.withDefaults()
	delay := opts.InitialDelay
	for attempt := 1; ; attempt++ {
		data, err := op(ctx)
		if err == nil {
			return Result[T]{Success: true, Data: data, Attempts: attempt}
		}
		if attempt >= opts.MaxRetries || !IsRetryable(err) {
			return Result[T]{Err: err, Attempts: attempt}
		}
		if opts.OnRetry != nil {
			opts.OnRetry(attempt, err, delay)
		}
		if sleepErr := opts.Sleep(ctx, delay); sleepErr != nil {
			return Result[T]{Err: fmt.Errorf("gateway: retry aborted after %d attempts: %w", attempt, errors.Join(err, sleepErr)), Attempts: attempt}
		}
		delay = time.Duration(float64(delay) * opts.BackoffMultiplier)
		if delay > opts.MaxDelay {
			delay = opts.MaxDelay
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// StatusError is a non-2xx response from an external API.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("gateway: %s returned status %d: %s", e.Service, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("gateway: %s returned status %d", e.Service, e.StatusCode)
}

// Retryable reports whether the status is worth retrying.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type retryable interface {
	Retryable() bool
}

// IsRetryable classifies an error: network resets, timeouts and DNS failures,
// HTTP 429 and HTTP 5xx are retryable. Everything else fails fast.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	for _, target := range []error{syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.ETIMEDOUT, syscall.EPIPE, io.ErrUnexpectedEOF} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
