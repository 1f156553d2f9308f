package api

import (
    "context"
    "encoding/json"
    "sync"
    "time"

    redis "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"
)

// RedisBroker implements EventBroker over Redis Pub/Sub so every instance sees every order event.
type RedisBroker struct {
    rdb redis.UniversalClient
    log logrus.FieldLogger

    mu   sync.Mutex
    subs map[chan Event]*redis.PubSub
}

func NewRedisBroker(rdb redis.UniversalClient, log logrus.FieldLogger) *RedisBroker {
    if log == nil { log = logrus.StandardLogger() }
    return &RedisBroker{rdb: rdb, log: log, subs: map[chan Event]*redis.PubSub{}}
}

func (b *RedisBroker) Subscribe(topic string) chan Event {
    ch := make(chan Event, 16)
    ctx := context.Background()
    ps := b.rdb.Subscribe(ctx, b.chanName(topic))
    // wait for the subscription confirmation so no publish right after Subscribe is lost
    if _, err := ps.Receive(ctx); err != nil {
        b.log.WithError(err).WithField("topic", topic).Warn("redis broker: subscribe")
    }
    b.mu.Lock()
    b.subs[ch] = ps
    b.mu.Unlock()
    go func() {
        defer close(ch)
        for msg := range ps.Channel() {
            var evt Event
            if err := json.Unmarshal([]byte(msg.Payload), &evt); err == nil {
                select { case ch <- evt: default: }
            }
        }
    }()
    return ch
}

// Unsubscribe closes the Redis subscription; the reader goroutine then closes ch.
func (b *RedisBroker) Unsubscribe(topic string, ch chan Event) {
    b.mu.Lock()
    ps, ok := b.subs[ch]
    delete(b.subs, ch)
    b.mu.Unlock()
    if ok { _ = ps.Close() }
}

func (b *RedisBroker) Publish(topic string, evt Event) {
    if evt.At.IsZero() { evt.At = time.Now().UTC() }
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    data, _ := json.Marshal(evt)
    if err := b.rdb.Publish(ctx, b.chanName(topic), data).Err(); err != nil {
        b.log.WithError(err).WithField("topic", topic).Warn("redis broker: publish")
    }
}

func (b *RedisBroker) chanName(topic string) string { return "feed:" + topic }
