package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"pose-browser/internal/logging"
)

// responseWriter captures status code and bytes written
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.wroteHeader = true
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

// LoggingConfig holds configuration for the logging middleware
type LoggingConfig struct {
	// Enabled turns request logging on. Errors (5xx) are logged regardless.
	Enabled         bool
	LogHealthChecks bool
	// QuietPrefixes are logged at verbose level only. Thumbnail grids fire
	// one request per visible document.
	QuietPrefixes []string
}

// DefaultLoggingConfig returns the default configuration
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Enabled:         true,
		LogHealthChecks: false,
		QuietPrefixes:   []string{"/api/thumbnail/"},
	}
}

var healthCheckPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
}

// sanitizeLogField removes control characters that could be used for log injection.
func sanitizeLogField(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r':
			b.WriteRune(' ')
		case r == '\x00', r == '\x1b':
			continue
		case r < 0x20 && r != '\t':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Logger returns HTTP logging middleware using W3C Extended Log Format
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.LogHealthChecks && healthCheckPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := newResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			line := formatRequest(r, wrapped, time.Since(start))
			switch {
			case wrapped.statusCode >= http.StatusInternalServerError:
				logging.Error("%s", line)
			case !config.Enabled:
			case isQuiet(r.URL.Path, config):
				logging.Verbose("%s", line)
			default:
				logging.Info("%s", line)
			}
		})
	}
}

// formatRequest renders one request as
// date time c-ip cs-method cs-uri-stem cs-uri-query sc-status sc-bytes time-taken
func formatRequest(r *http.Request, rw *responseWriter, duration time.Duration) string {
	now := time.Now().UTC()

	uriQuery := sanitizeLogField(r.URL.RawQuery)
	if uriQuery == "" {
		uriQuery = "-"
	}

	return fmt.Sprintf("%s %s %s %s %s %s %d %d %d",
		now.Format("2006-01-02"),
		now.Format("15:04:05"),
		sanitizeLogField(getClientIP(r)),
		sanitizeLogField(r.Method),
		escapeW3CField(sanitizeLogField(r.URL.Path)),
		uriQuery,
		rw.statusCode,
		rw.bytesWritten,
		duration.Milliseconds(),
	)
}

func isQuiet(path string, config LoggingConfig) bool {
	for _, prefix := range config.QuietPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// escapeW3CField quotes a field containing spaces. Document paths often do.
func escapeW3CField(s string) string {
	if strings.ContainsAny(s, " \t\"") {
		s = strings.ReplaceAll(s, "\"", "\"\"")
		return "\"" + s + "\""
	}
	return s
}
