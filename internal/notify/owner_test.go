package notify

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/wolfman30/dental-booking-ai/internal/gateway"
	"github.com/wolfman30/dental-booking-ai/pkg/logging"
)

type fakeMessenger struct {
	sentChat string
	sentText string
	keyboard *InlineKeyboard
	sendErrs []error
	sends    int
	edits    []string
	answered []string
}

func (f *fakeMessenger) SendMessage(_ context.Context, chatID, text string, keyboard *InlineKeyboard) (int64, error) {
	f.sends++
	if len(f.sendErrs) > 0 {
		err := f.sendErrs[0]
		f.sendErrs = f.sendErrs[1:]
		return 0, err
	}
	f.sentChat, f.sentText, f.keyboard = chatID, text, keyboard
	return 5, nil
}

func (f *fakeMessenger) EditMessageText(_ context.Context, _ string, _ int64, text string) error {
	f.edits = append(f.edits, text)
	return nil
}

func (f *fakeMessenger) AnswerCallbackQuery(_ context.Context, callbackID, _ string) error {
	f.answered = append(f.answered, callbackID)
	return nil
}

func notice() AppointmentNotice {
	return AppointmentNotice{
		AppointmentID: 12,
		PatientName:   "Dana_Levi",
		PatientEmail:  "dana@example.com",
		Service:       "Root Canal Treatment",
		StaffName:     "Dr. Maayan Granit",
		StartsAt:      time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
	}
}

func TestOwnerNotifierUnconfigured(t *testing.T) {
	m := &fakeMessenger{}
	n := NewOwnerNotifier(m, OwnerConfig{BotToken: "123:abc", Logger: logging.Discard()})

	res := n.NotifyNewAppointment(context.Background(), notice())
	if !res.Success || res.Sent {
		t.Fatalf("expected skipped success, got %+v", res)
	}
	if len(res.MissingKeys) != 1 || res.MissingKeys[0] != KeyTelegramOwnerChatID {
		t.Fatalf("unexpected missing keys %v", res.MissingKeys)
	}
	if m.sends != 0 {
		t.Fatalf("messenger should not be called")
	}
}

func TestOwnerNotifierSendsKeyboard(t *testing.T) {
	m := &fakeMessenger{}
	loc := time.FixedZone("IST", 2*60*60)
	n := NewOwnerNotifier(m, OwnerConfig{BotToken: "123:abc", OwnerChatID: "42", Location: loc, Logger: logging.Discard()})

	res := n.NotifyNewAppointment(context.Background(), notice())
	if !res.Success || !res.Sent {
		t.Fatalf("expected sent, got %+v", res)
	}
	if m.sentChat != "42" {
		t.Fatalf("unexpected chat %q", m.sentChat)
	}
	for _, want := range []string{`Dana\_Levi`, "Root Canal Treatment", "Monday, March 10, 2025", "*Time:* 10:00", "*Phone:* N/A"} {
		if !strings.Contains(m.sentText, want) {
			t.Fatalf("message missing %q:\n%s", want, m.sentText)
		}
	}
	row := m.keyboard.InlineKeyboard[0]
	if row[0].CallbackData != "approve:12" || row[1].CallbackData != "decline:12" {
		t.Fatalf("unexpected keyboard %+v", row)
	}
}

func TestOwnerNotifierFailureIsReported(t *testing.T) {
	m := &fakeMessenger{sendErrs: []error{
		&gateway.StatusError{Service: "telegram", StatusCode: 500},
		&gateway.StatusError{Service: "telegram", StatusCode: 500},
		&gateway.StatusError{Service: "telegram", StatusCode: 500},
	}}
	n := NewOwnerNotifier(m, OwnerConfig{
		BotToken: "123:abc", OwnerChatID: "42",
		Retry:  gateway.Options{Sleep: noSleep},
		Logger: logging.Discard(),
	})

	res := n.NotifyNewAppointment(context.Background(), notice())
	if res.Success || res.Sent || res.Attempts != 3 || !res.Retryable {
		t.Fatalf("expected exhausted retryable failure, got %+v", res)
	}
}

func TestOwnerNotifierCallbacksNeedOnlyToken(t *testing.T) {
	m := &fakeMessenger{}
	n := NewOwnerNotifier(m, OwnerConfig{BotToken: "123:abc", Logger: logging.Discard()})

	if res := n.EditMessage(context.Background(), "42", 5, "approved"); !res.Sent {
		t.Fatalf("edit not sent: %+v", res)
	}
	if res := n.AnswerCallback(context.Background(), "cb-1", ""); !res.Sent {
		t.Fatalf("answer not sent: %+v", res)
	}
	if len(m.edits) != 1 || len(m.answered) != 1 {
		t.Fatalf("unexpected calls edits=%v answered=%v", m.edits, m.answered)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	if got := EscapeMarkdown("a_b*c`d[e"); got != "a\\_b\\*c\\`d\\[e" {
		t.Fatalf("unexpected escape %q", got)
	}
}
