package logging

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// pollPaths are read endpoints front ends hit on a timer. Successful polls
// are logged at debug so they do not drown out device actions.
var pollPaths = map[string]bool{
	"/api/health":  true,
	"/api/devices": true,
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += int64(n)
	return n, err
}

// HTTPLogger logs each request once it completes. Device actions carry the
// target entity and action as separate fields.
func HTTPLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		event := levelFor(r, rec.status)
		if e, action, ok := deviceAction(r.URL.Path); ok {
			event = event.Str("entity", e).Str("action", action)
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("query", r.URL.RawQuery).
			Int("status", rec.status).
			Dur("duration_ms", time.Since(start)).
			Int64("bytes", rec.bytes).
			Str("remote_addr", r.RemoteAddr).
			Msg("HTTP request completed")
	})
}

func levelFor(r *http.Request, status int) *zerolog.Event {
	switch {
	case status >= 500:
		return log.Error()
	case status >= 400:
		return log.Warn()
	case r.Method == http.MethodGet && pollPaths[r.URL.Path]:
		return log.Debug()
	default:
		return log.Info()
	}
}

// deviceAction splits /api/devices/{id}/{action}.
func deviceAction(path string) (string, string, bool) {
	rest, ok := strings.CutPrefix(path, "/api/devices/")
	if !ok {
		return "", "", false
	}
	id, action, ok := strings.Cut(rest, "/")
	if !ok || id == "" || action == "" {
		return "", "", false
	}
	return id, action, true
}
