package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KAYner2/Theame-sub000/internal/logger"
	"github.com/KAYner2/Theame-sub000/internal/model"
)

type fakeChannel struct {
	name  string
	rcpts []string
	fail  map[string]int // recipient -> failures before success (-1 = always)

	mu    sync.Mutex
	calls map[string]int
}

func (f *fakeChannel) Name() string         { return f.name }
func (f *fakeChannel) Recipients() []string { return f.rcpts }
func (f *fakeChannel) Send(ctx context.Context, rcpt, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[rcpt]++
	n := f.fail[rcpt]
	if n == -1 || f.calls[rcpt] <= n {
		return errors.New("boom")
	}
	return nil
}

type recordingDLQ struct {
	mu   sync.Mutex
	recs []model.FailedNotification
}

func (r *recordingDLQ) RecordFailedNotification(ctx context.Context, f model.FailedNotification) error {
	r.mu.Lock()
	r.recs = append(r.recs, f)
	r.mu.Unlock()
	return nil
}

func TestDispatcherRetriesExactlyOnce(t *testing.T) {
	ch := &fakeChannel{name: "fake", rcpts: []string{"ok", "flaky", "dead"}, fail: map[string]int{"flaky": 1, "dead": -1}}
	dlq := &recordingDLQ{}
	d := NewDispatcher(logger.Discard(), time.Second, dlq, ch)

	d.Notify(context.Background(), "hello")

	assert.Equal(t, 1, ch.calls["ok"])
	assert.Equal(t, 2, ch.calls["flaky"])
	assert.Equal(t, 2, ch.calls["dead"], "no more than one retry")
	require.Len(t, dlq.recs, 1)
	assert.Equal(t, "dead", dlq.recs[0].Recipient)
	assert.Equal(t, "fake", dlq.recs[0].Channel)
	assert.Equal(t, Attempts, dlq.recs[0].Attempts)
	assert.Equal(t, "hello", dlq.recs[0].Text)
}

type panicChannel struct{ fakeChannel }

func (p *panicChannel) Send(ctx context.Context, rcpt, text string) error { panic("bad") }

func TestDispatcherIsolatesRecipients(t *testing.T) {
	good := &fakeChannel{name: "good", rcpts: []string{"a", "b"}}
	bad := &panicChannel{fakeChannel{name: "bad", rcpts: []string{"x"}}}
	d := NewDispatcher(logger.Discard(), time.Second, nil, bad, good)
	d.Notify(context.Background(), "hi")
	assert.Equal(t, 1, good.calls["a"])
	assert.Equal(t, 1, good.calls["b"])
	assert.Equal(t, 3, d.Recipients())
}

func TestTelegramSendMessagePayload(t *testing.T) {
	var got []sendMessageRequest
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		var req sendMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		got = append(got, req)
		mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":77}}`))
	}))
	defer srv.Close()

	tg := NewTelegram(TelegramOptions{Token: "TOKEN", BaseURL: srv.URL, ChatIDs: []string{"-100", "200"}, ThreadID: 5})
	id, err := tg.SendMessage(context.Background(), "-100", "text")
	require.NoError(t, err)
	assert.Equal(t, int64(77), id)
	require.Len(t, got, 1)
	assert.Equal(t, "-100", got[0].ChatID)
	assert.Equal(t, int64(5), got[0].MessageThreadID)
	assert.Equal(t, "telegram", tg.Name())
}

func TestTelegramOmitsThreadWhenUnset(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	defer srv.Close()
	tg := NewTelegram(TelegramOptions{Token: "T", BaseURL: srv.URL})
	require.NoError(t, tg.Send(context.Background(), "1", "x"))
	_, has := raw["message_thread_id"]
	assert.False(t, has)
}

func TestTelegramAPIErrorThenRetry(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"ok":false,"description":"Too Many Requests"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":2}}`))
	}))
	defer srv.Close()

	tg := NewTelegram(TelegramOptions{Token: "T", BaseURL: srv.URL, ChatIDs: []string{"1"}})
	err := tg.Send(context.Background(), "1", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Too Many Requests")

	dlq := &recordingDLQ{}
	NewDispatcher(logger.Discard(), time.Second, dlq, tg).Notify(context.Background(), "x")
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Empty(t, dlq.recs)
}

func TestTelegramTimeoutCountsAsFailure(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	tg := NewTelegram(TelegramOptions{Token: "T", BaseURL: srv.URL, ChatIDs: []string{"1"}, Timeout: 50 * time.Millisecond})
	dlq := &recordingDLQ{}
	NewDispatcher(logger.Discard(), 50*time.Millisecond, dlq, tg).Notify(context.Background(), "x")
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Len(t, dlq.recs, 1)
}

func TestWhatsAppSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/PHONE/messages", r.URL.Path)
		assert.Equal(t, "Bearer WA", r.Header.Get("Authorization"))
		var msg waTextMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		if msg.To == "bad" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"invalid recipient","code":131030}}`))
			return
		}
		assert.Equal(t, "whatsapp", msg.MessagingProduct)
		assert.Equal(t, "hello", msg.Text.Body)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	wa := NewWhatsApp(WhatsAppOptions{Token: "WA", PhoneID: "PHONE", BaseURL: srv.URL, Recipients: []string{"79990000000"}})
	require.NoError(t, wa.Send(context.Background(), "79990000000", "hello"))
	err := wa.Send(context.Background(), "bad", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid recipient")
}
