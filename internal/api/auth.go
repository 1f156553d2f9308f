// Package api implements the HTTP surface of the flower shop backend.
package api

import (
    "context"
    "net/http"
    "time"

    "github.com/KAYner2/Theame-sub000/internal/auth"
)

type ctxKeyPrincipal struct{}

// principalFrom returns the admin principal attached by requireAdmin.
func principalFrom(ctx context.Context) (auth.Principal, bool) {
    p, ok := ctx.Value(ctxKeyPrincipal{}).(auth.Principal)
    return p, ok
}

// requireAdmin accepts "Authorization: Bearer <token>" or, for websocket clients, a token query parameter.
func (s *Server) requireAdmin(next http.HandlerFunc) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        tok := auth.BearerToken(r.Header.Get("Authorization"))
        if tok == "" { tok = r.URL.Query().Get("token") }
        if tok == "" {
            writeProblem(w, http.StatusUnauthorized, "Unauthorized", "bearer token required", r.URL.Path)
            return
        }
        p, err := s.Auth.Verify(tok)
        if err != nil {
            writeProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid or expired token", r.URL.Path)
            return
        }
        next(w, r.WithContext(context.WithValue(r.Context(), ctxKeyPrincipal{}, p)))
    })
}

// AdminLoginHandler handles POST /api/admin/login: password check through the store, then a signed token.
func (s *Server) AdminLoginHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost { methodNotAllowed(w, http.MethodPost); return }
    var req struct {
        Password string `json:"password" validate:"required,max=256"`
    }
    if !s.decodeJSON(w, r, &req) { return }
    ok, err := s.Store.VerifyAdminPassword(r.Context(), req.Password)
    if err != nil {
        s.Log.WithError(err).Error("admin login: verify password")
        writeProblem(w, http.StatusInternalServerError, "Login failed", "", r.URL.Path)
        return
    }
    if !ok {
        s.Log.WithField("remote", r.RemoteAddr).Warn("admin login: wrong password")
        writeProblem(w, http.StatusUnauthorized, "Unauthorized", "wrong password", r.URL.Path)
        return
    }
    tok, exp, err := s.Auth.Issue(auth.RoleAdmin)
    if err != nil {
        s.Log.WithError(err).Error("admin login: issue token")
        writeProblem(w, http.StatusInternalServerError, "Login failed", err.Error(), r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"token": tok, "expiresAt": exp.Format(time.RFC3339)})
}
