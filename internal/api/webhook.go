package api

import (
    "context"
    "crypto/subtle"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "runtime/debug"

    "github.com/sirupsen/logrus"

    "github.com/KAYner2/Theame-sub000/internal/auth"
    "github.com/KAYner2/Theame-sub000/internal/format"
    "github.com/KAYner2/Theame-sub000/internal/idempotency"
    "github.com/KAYner2/Theame-sub000/internal/metrics"
    "github.com/KAYner2/Theame-sub000/internal/model"
)

// Webhook reply bodies. Every outcome except 405 is answered with 200 so the trigger never retries.
const (
    ReplyOK        = "OK"
    ReplyDuplicate = "OK_DUP"
    ReplyBadToken  = "IGNORED_BAD_TOKEN"
    ReplyNoOrder   = "IGNORED_NO_ORDER"
    ReplyHandled   = "HANDLED"
)

// OrderWebhookHandler handles POST /api/notify-order from the database trigger; GET sends a self-test message.
func (s *Server) OrderWebhookHandler(w http.ResponseWriter, r *http.Request) {
    switch r.Method {
    case http.MethodPost:
        reply := s.handleOrderEvent(r)
        metrics.WebhookOutcomes.WithLabelValues(reply).Inc()
        writeText(w, http.StatusOK, reply)
    case http.MethodGet:
        s.Notifier.Notify(r.Context(), format.SelfTest)
        writeJSON(w, http.StatusOK, map[string]any{"ok": true, "mode": "GET"})
    default:
        methodNotAllowed(w, http.MethodGet, http.MethodPost)
    }
}

func (s *Server) handleOrderEvent(r *http.Request) (reply string) {
    log := s.Log.WithField("handler", "notify-order")
    defer func() {
        if rec := recover(); rec != nil {
            log.WithFields(logrus.Fields{"panic": fmt.Sprint(rec), "stack": string(debug.Stack())}).Error("order webhook panicked")
            reply = ReplyHandled
        }
    }()

    if !s.webhookAuthorized(r) {
        log.Warn("order webhook: bad or missing token")
        return ReplyBadToken
    }

    body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
    if err != nil {
        log.WithError(err).Warn("order webhook: read body")
        return ReplyNoOrder
    }
    var evt model.NotificationEvent
    if err := json.Unmarshal(body, &evt); err != nil {
        log.WithError(err).Info("order webhook: body is not JSON")
        return ReplyNoOrder
    }
    payload, ok := model.DecodeOrder(evt.Order)
    if !ok {
        return ReplyNoOrder
    }
    order := payload.Normalize()
    if order.ID == "" {
        return ReplyNoOrder
    }

    status := order.Status
    if status == "" { status = order.PaymentStatus }
    key := idempotency.Key(evt.Event, order.ID, status)
    log = log.WithFields(logrus.Fields{"event": evt.Event, "order_id": order.ID, "key": key})

    claimed, err := s.Claims.Claim(r.Context(), key, s.IdempotencyTTL)
    strategy := s.Claims.Strategy()
    if err != nil {
        metrics.IdempotencyClaims.WithLabelValues(strategy, "error").Inc()
        log.WithError(err).Error("order webhook: idempotency claim failed; notification skipped")
        return ReplyHandled
    }
    if !claimed {
        metrics.IdempotencyClaims.WithLabelValues(strategy, "duplicate").Inc()
        log.Info("order webhook: duplicate event")
        return ReplyDuplicate
    }
    metrics.IdempotencyClaims.WithLabelValues(strategy, "claimed").Inc()

    text := format.Order(order, evt.Event)
    s.Notifier.Notify(context.WithoutCancel(r.Context()), text)
    s.Broker.Publish(TopicOrders, Event{Type: evt.Event, Data: map[string]any{
        "orderId": order.ID, "status": order.Status, "paymentStatus": order.PaymentStatus, "total": order.Total,
    }})
    log.Info("order webhook: notified")
    return ReplyOK
}

func (s *Server) webhookAuthorized(r *http.Request) bool {
    if s.WebhookSecret == "" {
        return false
    }
    got := auth.BearerToken(r.Header.Get("Authorization"))
    return subtle.ConstantTimeCompare([]byte(got), []byte(s.WebhookSecret)) == 1
}
