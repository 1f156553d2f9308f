package api

import (
    "bufio"
    "errors"
    "fmt"
    "net"
    "net/http"
    "strconv"
    "time"

    "github.com/sirupsen/logrus"

    "github.com/KAYner2/Theame-sub000/internal/metrics"
)

// Instrument wraps mux with request logging, Prometheus metrics and panic recovery.
// Metrics are labelled by the matched mux pattern to keep path cardinality bounded.
func Instrument(mux *http.ServeMux, log logrus.FieldLogger) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()
        _, pattern := mux.Handler(r)
        if pattern == "" { pattern = "unmatched" }
        rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
        defer func() {
            if rec := recover(); rec != nil {
                log.WithFields(logrus.Fields{"panic": fmt.Sprint(rec), "path": r.URL.Path}).Error("handler panicked")
                if !rw.wroteHeader { writeProblem(rw, http.StatusInternalServerError, "Internal Server Error", "", r.URL.Path) }
            }
            dur := time.Since(start)
            status := strconv.Itoa(rw.statusCode)
            metrics.HTTPRequests.WithLabelValues(r.Method, pattern, status).Inc()
            metrics.HTTPDuration.WithLabelValues(r.Method, pattern, status).Observe(dur.Seconds())
            log.WithFields(logrus.Fields{
                "remote": r.RemoteAddr, "method": r.Method, "path": r.URL.Path,
                "status": rw.statusCode, "duration_ms": dur.Milliseconds(),
            }).Debug("request")
        }()
        mux.ServeHTTP(rw, r)
    })
}

// responseWriter captures the status code; Hijack keeps websocket upgrades working.
type responseWriter struct {
    http.ResponseWriter
    statusCode  int
    wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
    if !rw.wroteHeader {
        rw.statusCode = code
        rw.wroteHeader = true
    }
    rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
    rw.wroteHeader = true
    return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
    h, ok := rw.ResponseWriter.(http.Hijacker)
    if !ok { return nil, nil, errors.New("hijack not supported") }
    rw.statusCode = http.StatusSwitchingProtocols
    rw.wroteHeader = true
    return h.Hijack()
}

func (rw *responseWriter) Flush() {
    if f, ok := rw.ResponseWriter.(http.Flusher); ok { f.Flush() }
}
