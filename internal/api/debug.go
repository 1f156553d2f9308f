package api

import (
    "context"
    "net/http"
    "time"

    "github.com/KAYner2/Theame-sub000/internal/buildinfo"
)

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
    writeJSON(w, 200, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
    // Check DB connectivity when using Postgres store
    type pinger interface{ Ping(ctx context.Context) error }
    if pg, ok := s.Store.(pinger); ok {
        ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
        defer cancel()
        if err := pg.Ping(ctx); err != nil { writeProblem(w, 503, "Not Ready", err.Error(), r.URL.Path); return }
    }
    writeJSON(w, 200, map[string]string{"status": "ready"})
}

type recipientCounter interface{ Recipients() int }

func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
    recipients := 0
    if rc, ok := s.Notifier.(recipientCounter); ok { recipients = rc.Recipients() }
    _, pg := s.Store.(interface{ Ping(ctx context.Context) error })
    _, redisFeed := s.Broker.(*RedisBroker)
    info := map[string]any{
        "build": buildinfo.Info(),
        "time":  time.Now().UTC().Format(time.RFC3339),
        "config": map[string]any{
            "IDEMPOTENCY_STRATEGY":    s.Claims.Strategy(),
            "IDEMPOTENCY_TTL_SECONDS": int64(s.IdempotencyTTL / time.Second),
            "NOTIFY_RECIPIENTS":       recipients,
            "HAS_WEBHOOK_SECRET":      s.WebhookSecret != "",
            "HAS_DATABASE":            pg,
            "REDIS_FEED":              redisFeed,
            "PAYMENTS_CONFIGURED":     s.Payments.Configured(),
        },
    }
    writeJSON(w, http.StatusOK, info)
}
