package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Problem represents an RFC7807 problem details response body.
type Problem struct {
	Type     string   `json:"type"`
	Title    string   `json:"title"`
	Status   int      `json:"status"`
	Detail   string   `json:"detail,omitempty"`
	Instance string   `json:"instance,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func writeProblem(w http.ResponseWriter, status int, title, detail, instance string) {
	writeJSON(w, status, Problem{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	})
}

func methodNotAllowed(w http.ResponseWriter, allow ...string) {
	w.Header().Set("Allow", strings.Join(allow, ", "))
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method Not Allowed"})
}

// decodeJSON reads a size-limited JSON body into v and runs struct validation.
// It writes the 400 problem itself and reports false on failure.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return false
	}
	if err := s.Validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		p := Problem{Type: "about:blank", Title: "Validation failed", Status: http.StatusBadRequest, Instance: r.URL.Path}
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				p.Errors = append(p.Errors, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
			}
		} else {
			p.Detail = err.Error()
		}
		writeJSON(w, http.StatusBadRequest, p)
		return false
	}
	return true
}

// pathID returns the single path segment after prefix, or "" when absent or nested.
func pathID(path, prefix string) (id, rest string) {
	tail := strings.TrimPrefix(path, prefix)
	if tail == path {
		return "", ""
	}
	tail = strings.Trim(tail, "/")
	if i := strings.IndexByte(tail, '/'); i >= 0 {
		return tail[:i], tail[i+1:]
	}
	return tail, ""
}
