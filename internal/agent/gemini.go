package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModelID is used when no model is configured.
const DefaultModelID = "gemini-2.5-flash"

// GeminiModel implements Model with Gemini function calling.
type GeminiModel struct {
	client      *genai.Client
	modelID     string
	temperature float32
}

// NewGeminiModel creates a Gemini-backed model.
func NewGeminiModel(ctx context.Context, apiKey, modelID string) (*GeminiModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("agent: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = DefaultModelID
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("agent: failed to create gemini client: %w", err)
	}
	return &GeminiModel{client: client, modelID: modelID, temperature: 0.3}, nil
}

func (g *GeminiModel) StartSession(system string, history []Message) Session {
	model := g.client.GenerativeModel(g.modelID)
	model.SetTemperature(g.temperature)
	model.Tools = []*genai.Tool{{FunctionDeclarations: functionDeclarations()}}
	if strings.TrimSpace(system) != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}

	cs := model.StartChat()
	for _, msg := range history {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		role := "user"
		if msg.Role == RoleModel {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(content)}})
	}
	return &geminiSession{cs: cs}
}

// Close releases resources held by the Gemini client.
func (g *GeminiModel) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

type geminiSession struct {
	cs *genai.ChatSession
}

func (s *geminiSession) Send(ctx context.Context, text string) (Reply, error) {
	resp, err := s.cs.SendMessage(ctx, genai.Text(text))
	if err != nil {
		return Reply{}, fmt.Errorf("agent: gemini send failed: %w", err)
	}
	return replyFrom(resp)
}

func (s *geminiSession) SendToolResponses(ctx context.Context, responses []ToolResponse) (Reply, error) {
	parts := make([]genai.Part, 0, len(responses))
	for _, r := range responses {
		parts = append(parts, genai.FunctionResponse{Name: r.Name, Response: r.Result})
	}
	resp, err := s.cs.SendMessage(ctx, parts...)
	if err != nil {
		return Reply{}, fmt.Errorf("agent: gemini tool response failed: %w", err)
	}
	return replyFrom(resp)
}

func replyFrom(resp *genai.GenerateContentResponse) (Reply, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return Reply{}, errors.New("agent: gemini returned no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return Reply{}, errors.New("agent: gemini returned empty content")
	}
	var (
		out  Reply
		text strings.Builder
	)
	for _, part := range candidate.Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			text.WriteString(string(p))
		case genai.FunctionCall:
			out.Calls = append(out.Calls, ToolCall{Name: p.Name, Args: p.Args})
		}
	}
	out.Text = strings.TrimSpace(text.String())
	return out, nil
}
