package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/fleetops/nginx-fleet-manager/internal/logging"
)

// responseRecorder captures the status code written by a handler.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (r *responseRecorder) WriteHeader(code int) {
	if !r.written {
		r.statusCode = code
		r.written = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.written {
		r.statusCode = http.StatusOK
		r.written = true
	}
	return r.ResponseWriter.Write(b)
}

// RequestLogging logs a line per request at info level, with credential
// headers masked. At debug level it additionally logs the masked request
// headers.
func RequestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			start := time.Now()
			next.ServeHTTP(rec, r)
			duration := time.Since(start)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.statusCode,
				"duration_ms", duration.Milliseconds(),
				"remote_addr", r.RemoteAddr,
				"request_id", GetRequestID(r.Context()),
			}

			if logger.Enabled(r.Context(), slog.LevelDebug) {
				headers := make(map[string]string, len(r.Header))
				for name := range r.Header {
					headers[name] = logging.MaskHeader(name, r.Header.Get(name))
				}
				attrs = append(attrs, "headers", headers)
			}

			logger.Info("http request", attrs...)
		})
	}
}
