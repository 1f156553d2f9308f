package api

import (
    "encoding/json"
    "net/http"
    "sync"
    "time"

    "github.com/gorilla/websocket"
)

// The admin panel is served from its own origin; the token check happens before the upgrade.
var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

type feedMessage struct {
    Type    string          `json:"type"`
    Payload json.RawMessage `json:"payload,omitempty"`
}

const (
    feedPongWait   = 60 * time.Second
    feedPingPeriod = 20 * time.Second
)

// OrderFeedHandler handles GET /api/admin/orders/feed: a websocket stream of order and payment events.
func (s *Server) OrderFeedHandler(w http.ResponseWriter, r *http.Request) {
    conn, err := upgrader.Upgrade(w, r, nil)
    if err != nil {
        return
    }
    defer func() { _ = conn.Close() }()

    ch := s.Broker.Subscribe(TopicOrders)
    defer s.Broker.Unsubscribe(TopicOrders, ch)

    var wmu sync.Mutex
    write := func(v any) error {
        wmu.Lock()
        defer wmu.Unlock()
        _ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
        return conn.WriteJSON(v)
    }
    if err := write(feedMessage{Type: "connection_ack"}); err != nil {
        return
    }

    // Read loop: handles pings from the client and notices disconnects.
    done := make(chan struct{})
    conn.SetReadLimit(1 << 16)
    _ = conn.SetReadDeadline(time.Now().Add(feedPongWait))
    conn.SetPongHandler(func(string) error { _ = conn.SetReadDeadline(time.Now().Add(feedPongWait)); return nil })
    go func() {
        defer close(done)
        for {
            var msg feedMessage
            if err := conn.ReadJSON(&msg); err != nil {
                return
            }
            _ = conn.SetReadDeadline(time.Now().Add(feedPongWait))
            if msg.Type == "ping" {
                _ = write(feedMessage{Type: "pong"})
            }
        }
    }()

    ticker := time.NewTicker(feedPingPeriod)
    defer ticker.Stop()
    for {
        select {
        case <-done:
            return
        case <-r.Context().Done():
            return
        case <-ticker.C:
            wmu.Lock()
            err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
            wmu.Unlock()
            if err != nil {
                return
            }
        case evt, ok := <-ch:
            if !ok {
                return
            }
            payload, _ := json.Marshal(evt)
            if err := write(feedMessage{Type: "event", Payload: payload}); err != nil {
                return
            }
        }
    }
}
