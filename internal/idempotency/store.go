// Package idempotency records which order events have already been notified.
//
// Two strategies exist and are chosen once at startup:
//   - Redis: durable shared dedup, correct across any number of instances.
//   - Memory: best-effort local dedup. At-most-once holds only inside one process;
//     two instances using it can both claim the same key.
package idempotency

import (
    "context"
    "strings"
    "time"
)

// Store claims keys with first-writer-wins semantics.
type Store interface {
    // Claim reports whether this call is the first to claim key within ttl.
    Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
    // Strategy names the backend: "redis" or "memory".
    Strategy() string
}

const (
    EventInsert = "order.insert"
    EventUpdate = "order.update"
)

// Key derives the idempotency key for an order event. Event names match exactly; only status is case-folded.
//   order.insert -> order:{id}
//   order.update -> order:{id}:{status, lowercased, default "nostatus"}
//   otherwise    -> order:{id}:evt:{event}
func Key(event, orderID, status string) string {
    ev := strings.TrimSpace(event)
    switch ev {
    case EventInsert:
        return "order:" + orderID
    case EventUpdate:
        st := strings.ToLower(strings.TrimSpace(status))
        if st == "" { st = "nostatus" }
        return "order:" + orderID + ":" + st
    }
    if ev == "" { ev = "unknown" }
    return "order:" + orderID + ":evt:" + ev
}
