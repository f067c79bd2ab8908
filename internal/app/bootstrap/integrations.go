package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/wolfman30/dental-booking-ai/internal/agent"
	"github.com/wolfman30/dental-booking-ai/internal/calendar"
	appconfig "github.com/wolfman30/dental-booking-ai/internal/config"
	"github.com/wolfman30/dental-booking-ai/internal/gateway"
	"github.com/wolfman30/dental-booking-ai/internal/notify"
	"github.com/wolfman30/dental-booking-ai/pkg/logging"
)

// RetryOptions is the shared outbound retry policy.
func RetryOptions(cfg *appconfig.Config) gateway.Options {
	return gateway.Options{
		MaxRetries:   cfg.RetryMaxAttempts,
		InitialDelay: cfg.RetryInitialDelay,
		MaxDelay:     cfg.RetryMaxDelay,
	}
}

// BuildMailer selects SendGrid or SES from EMAIL_PROVIDER. A provider with
// missing settings yields an unconfigured mailer that skips every send.
func BuildMailer(ctx context.Context, cfg *appconfig.Config, observer gateway.Observer, logger *logging.Logger) (*notify.Mailer, error) {
	env := gateway.MapEnv{
		"SENDGRID_API_KEY": cfg.SendGridAPIKey,
		"SES_FROM_EMAIL":   cfg.SESFromEmail,
		"AWS_REGION":       cfg.AWSRegion,
	}
	mailerCfg := notify.MailerConfig{Retry: RetryOptions(cfg), Observer: observer, Logger: logger}

	switch cfg.EmailProvider {
	case "ses":
		mailerCfg.Status = gateway.CheckConfig(env, "SES_FROM_EMAIL", "AWS_REGION")
		if !mailerCfg.Status.Configured {
			return notify.NewMailer(nil, mailerCfg), nil
		}
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{FromEmail: cfg.SESFromEmail}, logger)
		logger.Info("email provider selected", "provider", "ses")
		return notify.NewMailer(sender, mailerCfg), nil
	case "sendgrid", "":
		mailerCfg.Status = gateway.CheckConfig(env, "SENDGRID_API_KEY")
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender == nil {
			return notify.NewMailer(nil, mailerCfg), nil
		}
		logger.Info("email provider selected", "provider", "sendgrid")
		return notify.NewMailer(sender, mailerCfg), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown EMAIL_PROVIDER %q", cfg.EmailProvider)
	}
}

// BuildCalendar returns the calendar integration. Without credentials the
// service is still returned and reports every call as skipped.
func BuildCalendar(ctx context.Context, cfg *appconfig.Config, observer gateway.Observer, logger *logging.Logger) *calendar.Service {
	calCfg := calendar.Config{
		ServiceAccountKey: cfg.GoogleServiceAccountKey,
		CalendarID:        cfg.GoogleCalendarID,
		Retry:             RetryOptions(cfg),
		Observer:          observer,
		Logger:            logger,
	}
	if strings.TrimSpace(cfg.GoogleServiceAccountKey) == "" {
		return calendar.NewService(nil, calCfg)
	}
	api, err := calendar.NewGoogleAPI(ctx, cfg.GoogleServiceAccountKey, cfg.ClinicTimezone)
	if err != nil {
		logger.Warn("google calendar client unavailable", "error", err)
		return calendar.NewService(nil, calCfg)
	}
	return calendar.NewService(api, calCfg)
}

// BuildOwnerNotifier wires Telegram approvals. The notifier skips sends when
// the bot token or owner chat id is missing.
func BuildOwnerNotifier(cfg *appconfig.Config, observer gateway.Observer, logger *logging.Logger) *notify.OwnerNotifier {
	var messenger notify.Messenger
	if client, err := notify.NewTelegramClient(notify.TelegramConfig{
		BaseURL:  cfg.TelegramAPIBaseURL,
		BotToken: cfg.TelegramBotToken,
		Logger:   logger,
	}); err == nil {
		messenger = client
	}
	return notify.NewOwnerNotifier(messenger, notify.OwnerConfig{
		BotToken:    cfg.TelegramBotToken,
		OwnerChatID: cfg.TelegramOwnerChatID,
		Location:    cfg.Location(),
		Retry:       RetryOptions(cfg),
		Observer:    observer,
		Logger:      logger,
	})
}

// BuildModel returns Gemini when a key is set and an offline stand-in
// otherwise. The returned close func is never nil.
func BuildModel(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (agent.Model, func() error, error) {
	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		logger.Warn("no Gemini API key configured; chat replies are offline")
		return agent.OfflineModel{Reply: fmt.Sprintf(
			"Our online assistant is unavailable right now. Please call us at %s to book an appointment.", cfg.ClinicPhone)},
			func() error { return nil }, nil
	}
	model, err := agent.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: gemini model: %w", err)
	}
	logger.Info("gemini model ready", "model", cfg.GeminiModelID)
	return model, model.Close, nil
}
