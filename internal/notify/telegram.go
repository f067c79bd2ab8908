package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/dental-booking-ai/internal/gateway"
	"github.com/wolfman30/dental-booking-ai/pkg/logging"
)

const defaultTelegramBaseURL = "https://api.telegram.org"

// TelegramConfig controls the Bot API client.
type TelegramConfig struct {
	BaseURL    string
	BotToken   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// TelegramClient calls the Telegram Bot API. Each call is a single attempt.
type TelegramClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logging.Logger
}

// InlineButton is one inline keyboard button.
type InlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

// InlineKeyboard is the reply_markup for inline buttons.
type InlineKeyboard struct {
	InlineKeyboard [][]InlineButton `json:"inline_keyboard"`
}

// NewTelegramClient requires a bot token.
func NewTelegramClient(cfg TelegramConfig) (*TelegramClient, error) {
	if strings.TrimSpace(cfg.BotToken) == "" {
		return nil, errors.New("notify: telegram bot token is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultTelegramBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &TelegramClient{baseURL: baseURL, token: cfg.BotToken, httpClient: httpClient, logger: logger}, nil
}

// SendMessage posts a Markdown message and returns its message id.
func (c *TelegramClient) SendMessage(ctx context.Context, chatID, text string, keyboard *InlineKeyboard) (int64, error) {
	payload := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	if keyboard != nil {
		payload["reply_markup"] = keyboard
	}
	var sent struct {
		MessageID int64 `json:"message_id"`
	}
	if err := c.invoke(ctx, "sendMessage", payload, &sent); err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// EditMessageText replaces the text of a sent message, dropping its keyboard.
func (c *TelegramClient) EditMessageText(ctx context.Context, chatID string, messageID int64, text string) error {
	return c.invoke(ctx, "editMessageText", map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
		"parse_mode": "Markdown",
	}, nil)
}

// AnswerCallbackQuery clears the loading state of an inline button.
func (c *TelegramClient) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	payload := map[string]any{"callback_query_id": callbackID}
	if text != "" {
		payload["text"] = text
	}
	return c.invoke(ctx, "answerCallbackQuery", payload, nil)
}

type telegramResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

func (c *TelegramClient) invoke(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: marshal %s: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bot"+c.token+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: telegram %s: %w", method, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("notify: read telegram response: %w", err)
	}

	var decoded telegramResponse
	_ = json.Unmarshal(data, &decoded)
	if resp.StatusCode >= 300 {
		return &gateway.StatusError{Service: "telegram", StatusCode: resp.StatusCode, Body: decoded.Description}
	}
	if !decoded.OK {
		return fmt.Errorf("notify: telegram %s rejected: %s", method, decoded.Description)
	}
	if out != nil && len(decoded.Result) > 0 {
		if err := json.Unmarshal(decoded.Result, out); err != nil {
			return fmt.Errorf("notify: decode telegram %s result: %w", method, err)
		}
	}
	c.logger.Debug("telegram call ok", "method", method)
	return nil
}
