package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/dental-booking-ai/pkg/logging"
)

// Outcome values reported to an Observer.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// Observer receives one call per integration attempt chain.
type Observer interface {
	ObserveIntegration(integration, outcome string, attempts int)
}

// Outcome is the uniform result of an optional side effect. An unconfigured
// integration is a success with Skipped set, never an error.
type Outcome struct {
	Success     bool     `json:"success"`
	Skipped     bool     `json:"-"`
	Reason      string   `json:"reason,omitempty"`
	Error       string   `json:"error,omitempty"`
	Retryable   bool     `json:"retryable,omitempty"`
	Attempts    int      `json:"attempts,omitempty"`
	MissingKeys []string `json:"missingKeys,omitempty"`
}

// Performed reports whether the effect actually happened.
func (o Outcome) Performed() bool {
	return o.Success && !o.Skipped
}

// Integration couples one external effect's configuration state with the
// retry policy applied to it.
type Integration struct {
	Name     string
	Status   ConfigStatus
	Retry    Options
	Observer Observer
	Logger   *logging.Logger
}

// Do runs op under the integration's policy.
func Do[T any](ctx context.Context, in Integration, op func(context.Context) (T, error)) (T, Outcome) {
	var zero T
	logger := in.Logger
	if logger == nil {
		logger = logging.Default()
	}
	if !in.Status.Configured {
		reason := fmt.Sprintf("%s not configured (missing %s)", in.Name, strings.Join(in.Status.MissingKeys, ", "))
		logger.Info("integration skipped", "integration", in.Name, "missing_keys", in.Status.MissingKeys)
		in.observe(OutcomeSkipped, 0)
		return zero, Outcome{Success: true, Skipped: true, Reason: reason, MissingKeys: in.Status.MissingKeys}
	}

	retry := in.Retry
	if retry.OnRetry == nil {
		retry.OnRetry = func(attempt int, err error, delay time.Duration) {
			logger.Warn("integration retry", "integration", in.Name, "attempt", attempt, "delay_ms", delay.Milliseconds(), "error", err)
		}
	}
	res := WithRetry(ctx, op, retry)
	if !res.Success {
		logger.Warn("integration failed", "integration", in.Name, "attempts", res.Attempts, "error", res.Err)
		in.observe(OutcomeFailed, res.Attempts)
		return zero, Outcome{
			Success:   false,
			Error:     res.Err.Error(),
			Retryable: IsRetryable(res.Err),
			Attempts:  res.Attempts,
		}
	}
	in.observe(OutcomeSucceeded, res.Attempts)
	return res.Data, Outcome{Success: true, Attempts: res.Attempts}
}

func (in Integration) observe(outcome string, attempts int) {
	if in.Observer != nil {
		in.Observer.ObserveIntegration(in.Name, outcome, attempts)
	}
}
