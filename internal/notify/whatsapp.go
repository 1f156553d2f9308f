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

// WhatsApp sends text messages through the WhatsApp Cloud API.
type WhatsApp struct {
	token      string
	phoneID    string
	baseURL    string
	recipients []string
	http       *http.Client
	limiter    *rate.Limiter
}

type WhatsAppOptions struct {
	Token      string
	PhoneID    string
	BaseURL    string
	Recipients []string
	Timeout    time.Duration
	RPS        float64
}

func NewWhatsApp(o WhatsAppOptions) *WhatsApp {
	base := strings.TrimRight(o.BaseURL, "/")
	if base == "" {
		base = "https://graph.facebook.com/v20.0"
	}
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	return &WhatsApp{
		token:      o.Token,
		phoneID:    o.PhoneID,
		baseURL:    base,
		recipients: o.Recipients,
		http:       &http.Client{Timeout: o.Timeout},
		limiter:    newLimiter(o.RPS),
	}
}

func (w *WhatsApp) Name() string         { return "whatsapp" }
func (w *WhatsApp) Recipients() []string { return w.recipients }

type waTextMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

type waResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (w *WhatsApp) Send(ctx context.Context, to, text string) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate wait: %w", err)
	}
	msg := waTextMessage{MessagingProduct: "whatsapp", To: to, Type: "text"}
	msg.Text.Body = text
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/"+w.phoneID+"/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.token)
	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var out waResponse
	_ = json.Unmarshal(raw, &out)
	if resp.StatusCode/100 != 2 || out.Error != nil || len(out.Messages) == 0 {
		detail := resp.Status
		if out.Error != nil {
			detail = fmt.Sprintf("%s: %s (code %d)", resp.Status, out.Error.Message, out.Error.Code)
		}
		return fmt.Errorf("whatsapp API error: %s", detail)
	}
	return nil
}
