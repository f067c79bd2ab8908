package agent

import "context"

// OfflineModel answers every message with a fixed reply. It stands in for
// Gemini when no API key is configured so the chat surface stays up.
type OfflineModel struct {
	Reply string
}

func (m OfflineModel) StartSession(string, []Message) Session { return offlineSession(m) }

type offlineSession OfflineModel

func (s offlineSession) Send(context.Context, string) (Reply, error) {
	return Reply{Text: s.Reply}, nil
}

func (s offlineSession) SendToolResponses(context.Context, []ToolResponse) (Reply, error) {
	return Reply{Text: s.Reply}, nil
}
