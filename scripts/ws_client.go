// Package main runs a demo WebSocket client for the admin order feed.
//
// It logs in with ADMIN_PASSWORD, subscribes to the feed, posts a sample order
// webhook signed with WEBHOOK_SECRET and prints whatever the feed delivers.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	body, _ := json.Marshal(map[string]string{"password": os.Getenv("ADMIN_PASSWORD")})
	resp, err := http.Post(base+"/api/admin/login", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("login: %s", resp.Status)
	}
	var login struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		log.Fatal(err)
	}

	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/api/admin/orders/feed", RawQuery: "token=" + url.QueryEscape(login.Token)}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m wsMessage
			if err := c.ReadJSON(&m); err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- %s: %s", m.Type, string(m.Payload))
		}
	}()
	if err := c.WriteJSON(wsMessage{Type: "ping"}); err != nil {
		log.Fatal(err)
	}

	// Trigger an order event through the webhook
	time.Sleep(500 * time.Millisecond)
	event := []byte(`{"event":"order.update","order":{"id":"demo-1","status":"confirmed","total_amount":3500,"payment_method":"cash","delivery_type":"pickup"}}`)
	req, _ := http.NewRequest(http.MethodPost, base+"/api/notify-order", bytes.NewReader(event))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+os.Getenv("WEBHOOK_SECRET"))
	if r, err := http.DefaultClient.Do(req); err == nil {
		_ = r.Body.Close()
		log.Printf("webhook: %s", r.Status)
	}

	select {
	case <-time.After(2 * time.Second):
	case <-done:
	}
}
