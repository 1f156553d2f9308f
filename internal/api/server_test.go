package api

import (
    "bytes"
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/require"
    "golang.org/x/crypto/bcrypt"

    "github.com/KAYner2/Theame-sub000/internal/auth"
    "github.com/KAYner2/Theame-sub000/internal/idempotency"
    "github.com/KAYner2/Theame-sub000/internal/logger"
    "github.com/KAYner2/Theame-sub000/internal/store"
)

const testSecret = "hook-secret"

type recordingNotifier struct {
    mu    sync.Mutex
    texts []string
}

func (n *recordingNotifier) Notify(ctx context.Context, text string) {
    n.mu.Lock()
    n.texts = append(n.texts, text)
    n.mu.Unlock()
}

func (n *recordingNotifier) sent() []string {
    n.mu.Lock()
    defer n.mu.Unlock()
    return append([]string(nil), n.texts...)
}

type testEnv struct {
    srv      *Server
    mem      *store.Memory
    notifier *recordingNotifier
    handler  http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
    t.Helper()
    mem := store.NewMemory()
    hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
    require.NoError(t, err)
    mem.SetAdminPasswordHash(string(hash))
    n := &recordingNotifier{}
    s := NewServer(Server{
        Store:          mem,
        Claims:         idempotency.NewMemory(),
        Notifier:       n,
        Auth:           auth.NewIssuer("admin-secret", time.Hour),
        Log:            logger.Discard(),
        WebhookSecret:  testSecret,
        IdempotencyTTL: time.Hour,
    })
    return &testEnv{srv: s, mem: mem, notifier: n, handler: Instrument(s.Routes(), logger.Discard())}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
    t.Helper()
    var buf bytes.Buffer
    switch b := body.(type) {
    case nil:
    case string:
        buf.WriteString(b)
    default:
        require.NoError(t, json.NewEncoder(&buf).Encode(b))
    }
    req := httptest.NewRequest(method, path, &buf)
    req.Header.Set("Content-Type", "application/json")
    for k, vs := range header {
        for _, v := range vs { req.Header.Add(k, v) }
    }
    rr := httptest.NewRecorder()
    e.handler.ServeHTTP(rr, req)
    return rr
}

func (e *testEnv) adminHeader(t *testing.T) http.Header {
    t.Helper()
    rr := e.do(t, http.MethodPost, "/api/admin/login", map[string]string{"password": "letmein"}, nil)
    require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
    var out struct{ Token string `json:"token"` }
    require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
    return http.Header{"Authorization": {"Bearer " + out.Token}}
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
    t.Helper()
    require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}
