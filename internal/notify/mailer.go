package notify

import (
	"context"

	"github.com/wolfman30/dental-booking-ai/internal/gateway"
	"github.com/wolfman30/dental-booking-ai/pkg/logging"
)

// SendResult reports an optional delivery. Sent is false when the channel is
// unconfigured (Success stays true) or when delivery failed.
type SendResult struct {
	gateway.Outcome
	Sent bool `json:"sent"`
}

// MailerConfig wires a Mailer. Status is the configuration check for the
// selected provider.
type MailerConfig struct {
	Status   gateway.ConfigStatus
	Retry    gateway.Options
	Observer gateway.Observer
	Logger   *logging.Logger
}

// Mailer sends patient emails through the gateway policy.
type Mailer struct {
	sender   EmailSender
	status   gateway.ConfigStatus
	retry    gateway.Options
	observer gateway.Observer
	logger   *logging.Logger
}

// NewMailer treats a nil sender as unconfigured.
func NewMailer(sender EmailSender, cfg MailerConfig) *Mailer {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	status := cfg.Status
	if sender == nil && status.Configured {
		status = gateway.ConfigStatus{MissingKeys: []string{"EMAIL_PROVIDER"}}
	}
	return &Mailer{
		sender:   sender,
		status:   status,
		retry:    cfg.Retry,
		observer: cfg.Observer,
		logger:   cfg.Logger,
	}
}

// Configured reports whether emails will actually be attempted.
func (m *Mailer) Configured() bool {
	return m != nil && m.status.Configured
}

// Send delivers msg, never returning an error for an unconfigured provider.
func (m *Mailer) Send(ctx context.Context, msg EmailMessage) SendResult {
	if m == nil {
		return SendResult{Outcome: gateway.Outcome{Success: true, Skipped: true, Reason: "email not configured"}}
	}
	_, out := gateway.Do(ctx, gateway.Integration{
		Name:     "email",
		Status:   m.status,
		Retry:    m.retry,
		Observer: m.observer,
		Logger:   m.logger,
	}, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, m.sender.Send(ctx, msg)
	})
	if out.Skipped {
		m.logger.Info("email skipped", "to", msg.To, "subject", msg.Subject)
	}
	return SendResult{Outcome: out, Sent: out.Performed()}
}
