package api

import (
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    redis "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"
)

func TestBrokerPublishSubscribe(t *testing.T) {
    b := NewBroker()
    ch := b.Subscribe(TopicOrders)

    evt := Event{Type: "order.insert", Data: map[string]any{"orderId": "42"}}
    b.Publish(TopicOrders, evt)
    b.Publish("other", Event{Type: "ignored"})

    select {
    case got := <-ch:
        if got.Type != evt.Type { t.Fatalf("got type %s, want %s", got.Type, evt.Type) }
        if got.Data["orderId"] != "42" { t.Fatalf("bad payload: %+v", got.Data) }
        if got.At.IsZero() { t.Fatal("publish must stamp the event") }
    case <-time.After(200 * time.Millisecond):
        t.Fatal("timeout waiting for event")
    }

    b.Unsubscribe(TopicOrders, ch)
    b.Unsubscribe(TopicOrders, ch) // second call is a no-op
    if _, ok := <-ch; ok { t.Fatal("channel should be closed after unsubscribe") }
}

func TestRedisBrokerRoundTrip(t *testing.T) {
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    defer rdb.Close()
    b := NewRedisBroker(rdb, logrus.New())

    ch := b.Subscribe(TopicOrders)
    b.Publish(TopicOrders, Event{Type: "order.update", Data: map[string]any{"orderId": "7"}})
    select {
    case got := <-ch:
        if got.Type != "order.update" || got.Data["orderId"] != "7" { t.Fatalf("bad event: %+v", got) }
    case <-time.After(2 * time.Second):
        t.Fatal("timeout waiting for redis event")
    }

    b.Unsubscribe(TopicOrders, ch)
    select {
    case _, ok := <-ch:
        if ok { t.Fatal("expected closed channel") }
    case <-time.After(2 * time.Second):
        t.Fatal("channel not closed after unsubscribe")
    }
}
