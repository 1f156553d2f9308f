package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Telegram posts to the Bot API sendMessage method.
type Telegram struct {
	token    string
	baseURL  string
	chatIDs  []string
	threadID int64
	http     *http.Client
	limiter  *rate.Limiter
}

type TelegramOptions struct {
	Token    string
	BaseURL  string // default https://api.telegram.org
	ChatIDs  []string
	ThreadID int64 // attached as message_thread_id when > 0
	Timeout  time.Duration
	RPS      float64
}

func NewTelegram(o TelegramOptions) *Telegram {
	base := strings.TrimRight(o.BaseURL, "/")
	if base == "" {
		base = "https://api.telegram.org"
	}
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	return &Telegram{
		token:    o.Token,
		baseURL:  base,
		chatIDs:  o.ChatIDs,
		threadID: o.ThreadID,
		http:     &http.Client{Timeout: o.Timeout},
		limiter:  newLimiter(o.RPS),
	}
}

func (t *Telegram) Name() string         { return "telegram" }
func (t *Telegram) Recipients() []string { return t.chatIDs }

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	MessageThreadID       int64  `json:"message_thread_id,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

func (t *Telegram) Send(ctx context.Context, chatID, text string) error {
	_, err := t.SendMessage(ctx, chatID, text)
	return err
}

// SendMessage returns the Telegram message id on success.
func (t *Telegram) SendMessage(ctx context.Context, chatID, text string) (int64, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate wait: %w", err)
	}
	body, err := json.Marshal(sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		MessageThreadID:       t.threadID,
		DisableWebPagePreview: true,
	})
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send request: %w", redactToken(err, t.token))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var out sendMessageResponse
	_ = json.Unmarshal(raw, &out)
	if resp.StatusCode != http.StatusOK || !out.OK {
		desc := out.Description
		if desc == "" {
			desc = strings.TrimSpace(string(raw))
		}
		return 0, fmt.Errorf("telegram API error: %s: %s", resp.Status, desc)
	}
	return out.Result.MessageID, nil
}

// redactToken keeps the bot token out of logged URL errors.
func redactToken(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), token, "***"))
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
