// Package payment talks to the acquiring gateway: payment Init and notification verification.
package payment

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
)

const DefaultAPIBase = "https://securepay.tinkoff.ru/v2"

var ErrNotConfigured = errors.New("payment gateway not configured")

type Client struct {
	TerminalKey     string
	Password        string
	BaseURL         string
	SuccessURL      string
	FailURL         string
	NotificationURL string
	HTTP            *http.Client
}

func NewClient(terminalKey, password, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIBase
	}
	return &Client{
		TerminalKey: terminalKey,
		Password:    password,
		BaseURL:     strings.TrimRight(baseURL, "/"),
		HTTP:        &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured reports whether Init can be called.
func (c *Client) Configured() bool { return c != nil && c.TerminalKey != "" && c.Password != "" }

// InitRequest describes one payment; Amount is in kopecks.
type InitRequest struct {
	OrderID     string
	Amount      int64
	Description string
	Email       string
	Phone       string
}

type InitResult struct {
	PaymentID  string
	PaymentURL string
}

type initResponse struct {
	Success    bool        `json:"Success"`
	ErrorCode  string      `json:"ErrorCode"`
	Message    string      `json:"Message"`
	Details    string      `json:"Details"`
	PaymentID  json.Number `json:"PaymentId"`
	PaymentURL string      `json:"PaymentURL"`
}

// Init registers the payment and returns the hosted payment page URL.
func (c *Client) Init(ctx context.Context, in InitRequest) (InitResult, error) {
	if !c.Configured() {
		return InitResult{}, ErrNotConfigured
	}
	if in.OrderID == "" || in.Amount <= 0 {
		return InitResult{}, fmt.Errorf("payment init: order id and positive amount required")
	}
	body := map[string]any{
		"TerminalKey": c.TerminalKey,
		"Amount":      in.Amount,
		"OrderId":     in.OrderID,
	}
	if in.Description != "" {
		body["Description"] = in.Description
	}
	if c.SuccessURL != "" {
		body["SuccessURL"] = c.SuccessURL
	}
	if c.FailURL != "" {
		body["FailURL"] = c.FailURL
	}
	if c.NotificationURL != "" {
		body["NotificationURL"] = c.NotificationURL
	}
	data := map[string]string{}
	if in.Email != "" {
		data["Email"] = in.Email
	}
	if in.Phone != "" {
		data["Phone"] = in.Phone
	}
	if len(data) > 0 {
		body["DATA"] = data
	}
	body["Token"] = Token(body, c.Password)

	raw, err := json.Marshal(body)
	if err != nil {
		return InitResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/Init", bytes.NewReader(raw))
	if err != nil {
		return InitResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return InitResult{}, fmt.Errorf("payment init: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return InitResult{}, fmt.Errorf("payment init: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var out initResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return InitResult{}, fmt.Errorf("payment init: decode: %w", err)
	}
	if !out.Success || out.PaymentURL == "" {
		return InitResult{}, fmt.Errorf("payment init: gateway error %s: %s %s", out.ErrorCode, out.Message, out.Details)
	}
	return InitResult{PaymentID: out.PaymentID.String(), PaymentURL: out.PaymentURL}, nil
}

// Notification is the part of a gateway callback the shop acts on.
type Notification struct {
	OrderID   string
	PaymentID string
	Status    string
	Success   bool
	Amount    int64
}

var ErrBadToken = errors.New("payment notification: bad token")

// ParseNotification decodes a callback body and verifies its token.
func (c *Client) ParseNotification(body []byte) (Notification, error) {
	if !c.Configured() {
		return Notification{}, ErrNotConfigured
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return Notification{}, fmt.Errorf("payment notification: %w", err)
	}
	if tk, _ := fields["TerminalKey"].(string); tk != c.TerminalKey {
		return Notification{}, ErrBadToken
	}
	if !VerifyToken(fields, c.Password) {
		return Notification{}, ErrBadToken
	}
	n := Notification{}
	n.OrderID, _ = scalar(fields["OrderId"])
	n.PaymentID, _ = scalar(fields["PaymentId"])
	n.Status, _ = fields["Status"].(string)
	n.Success, _ = fields["Success"].(bool)
	if a, ok := fields["Amount"].(json.Number); ok {
		n.Amount, _ = a.Int64()
	}
	return n, nil
}
