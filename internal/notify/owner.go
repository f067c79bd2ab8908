package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/dental-booking-ai/internal/gateway"
	"github.com/wolfman30/dental-booking-ai/pkg/logging"
)

const (
	KeyTelegramBotToken    = "TELEGRAM_BOT_TOKEN"
	KeyTelegramOwnerChatID = "TELEGRAM_OWNER_CHAT_ID"
)

var errMessengerUnavailable = errors.New("notify: telegram client unavailable")

// Callback actions carried in inline button data as "<action>:<appointment id>".
const (
	ActionApprove = "approve"
	ActionDecline = "decline"
)

// Messenger is the Telegram surface the notifier needs.
type Messenger interface {
	SendMessage(ctx context.Context, chatID, text string, keyboard *InlineKeyboard) (int64, error)
	EditMessageText(ctx context.Context, chatID string, messageID int64, text string) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string) error
}

// OwnerConfig wires an OwnerNotifier.
type OwnerConfig struct {
	BotToken    string
	OwnerChatID string
	Location    *time.Location
	Retry       gateway.Options
	Observer    gateway.Observer
	Logger      *logging.Logger
}

// OwnerNotifier asks the clinic owner to approve new appointment requests.
type OwnerNotifier struct {
	messenger Messenger
	chatID    string
	notify    gateway.ConfigStatus
	bot       gateway.ConfigStatus
	loc       *time.Location
	retry     gateway.Options
	observer  gateway.Observer
	logger    *logging.Logger
}

// NewOwnerNotifier builds the notifier; messenger may be nil when no token is set.
func NewOwnerNotifier(messenger Messenger, cfg OwnerConfig) *OwnerNotifier {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	env := gateway.MapEnv{KeyTelegramBotToken: cfg.BotToken, KeyTelegramOwnerChatID: cfg.OwnerChatID}
	return &OwnerNotifier{
		messenger: messenger,
		chatID:    cfg.OwnerChatID,
		notify:    gateway.CheckConfig(env, KeyTelegramBotToken, KeyTelegramOwnerChatID),
		bot:       gateway.CheckConfig(env, KeyTelegramBotToken),
		loc:       cfg.Location,
		retry:     cfg.Retry,
		observer:  cfg.Observer,
		logger:    cfg.Logger,
	}
}

// AppointmentNotice is what the owner sees for a new request.
type AppointmentNotice struct {
	AppointmentID int64
	PatientName   string
	PatientEmail  string
	PatientPhone  string
	Service       string
	StaffName     string
	StartsAt      time.Time
}

// NotifyNewAppointment sends the request with approve and decline buttons.
func (n *OwnerNotifier) NotifyNewAppointment(ctx context.Context, notice AppointmentNotice) SendResult {
	if n == nil {
		return SendResult{Outcome: gateway.Outcome{Success: true, Skipped: true, Reason: "telegram not configured"}}
	}
	text := n.formatNotice(notice)
	keyboard := &InlineKeyboard{InlineKeyboard: [][]InlineButton{{
		{Text: "✅ Approve", CallbackData: fmt.Sprintf("%s:%d", ActionApprove, notice.AppointmentID)},
		{Text: "❌ Decline", CallbackData: fmt.Sprintf("%s:%d", ActionDecline, notice.AppointmentID)},
	}}}
	_, out := gateway.Do(ctx, n.integration("telegram_owner_notification", n.notify), func(ctx context.Context) (int64, error) {
		if n.messenger == nil {
			return 0, errMessengerUnavailable
		}
		return n.messenger.SendMessage(ctx, n.chatID, text, keyboard)
	})
	if out.Skipped {
		n.logger.Info("owner notification skipped", "appointment_id", notice.AppointmentID)
	}
	return SendResult{Outcome: out, Sent: out.Performed()}
}

// EditMessage rewrites a previously sent owner message.
func (n *OwnerNotifier) EditMessage(ctx context.Context, chatID string, messageID int64, text string) SendResult {
	if n == nil {
		return SendResult{Outcome: gateway.Outcome{Success: true, Skipped: true}}
	}
	_, out := gateway.Do(ctx, n.integration("telegram_edit_message", n.bot), func(ctx context.Context) (struct{}, error) {
		if n.messenger == nil {
			return struct{}{}, errMessengerUnavailable
		}
		return struct{}{}, n.messenger.EditMessageText(ctx, chatID, messageID, text)
	})
	return SendResult{Outcome: out, Sent: out.Performed()}
}

// AnswerCallback acknowledges an inline button press.
func (n *OwnerNotifier) AnswerCallback(ctx context.Context, callbackID, text string) SendResult {
	if n == nil {
		return SendResult{Outcome: gateway.Outcome{Success: true, Skipped: true}}
	}
	_, out := gateway.Do(ctx, n.integration("telegram_answer_callback", n.bot), func(ctx context.Context) (struct{}, error) {
		if n.messenger == nil {
			return struct{}{}, errMessengerUnavailable
		}
		return struct{}{}, n.messenger.AnswerCallbackQuery(ctx, callbackID, text)
	})
	return SendResult{Outcome: out, Sent: out.Performed()}
}

func (n *OwnerNotifier) integration(name string, status gateway.ConfigStatus) gateway.Integration {
	return gateway.Integration{Name: name, Status: status, Retry: n.retry, Observer: n.observer, Logger: n.logger}
}

func (n *OwnerNotifier) formatNotice(notice AppointmentNotice) string {
	staff := notice.StaffName
	if staff == "" {
		staff = "Not specified"
	}
	phone := notice.PatientPhone
	if phone == "" {
		phone = "N/A"
	}
	local := notice.StartsAt.In(n.loc)

	var b strings.Builder
	b.WriteString("🦷 *New Appointment Request*\n\n")
	fmt.Fprintf(&b, "*Patient:* %s\n", EscapeMarkdown(notice.PatientName))
	fmt.Fprintf(&b, "*Email:* %s\n", EscapeMarkdown(notice.PatientEmail))
	fmt.Fprintf(&b, "*Phone:* %s\n", EscapeMarkdown(phone))
	fmt.Fprintf(&b, "*Service:* %s\n", EscapeMarkdown(notice.Service))
	fmt.Fprintf(&b, "*Staff:* %s\n", EscapeMarkdown(staff))
	fmt.Fprintf(&b, "*Date:* %s\n", local.Format("Monday, January 2, 2006"))
	fmt.Fprintf(&b, "*Time:* %s\n\n", local.Format("15:04"))
	b.WriteString("Please approve or decline this appointment.")
	return b.String()
}

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

// EscapeMarkdown escapes Telegram legacy Markdown control characters.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
