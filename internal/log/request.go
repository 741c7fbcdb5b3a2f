package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// RequestLogger writes one record when an API call arrives and one when it
// completes.
type RequestLogger struct {
	logger *Logger
}

func NewRequestLogger(logger *Logger) *RequestLogger {
	return &RequestLogger{logger: logger}
}

func requestAttrs(r *http.Request, requestID, clientIP string) Attrs {
	return Attrs{}.
		Add(FieldMethod, r.Method).
		Add(FieldPath, r.URL.Path).
		AddString(FieldQuery, r.URL.RawQuery).
		AddString(FieldRequestID, requestID).
		AddString(FieldClientIP, clientIP)
}

func (rl *RequestLogger) Started(ctx context.Context, r *http.Request, requestID, clientIP string) {
	attrs := requestAttrs(r, requestID, clientIP).AddString(FieldUserAgent, r.UserAgent())
	rl.logger.InfoContext(ctx, "HTTP request started", attrs...)
}

// Finished logs client errors at warn and server errors at error.
func (rl *RequestLogger) Finished(ctx context.Context, r *http.Request, requestID, clientIP string, status int, elapsed time.Duration) {
	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}
	attrs := requestAttrs(r, requestID, clientIP).
		Add(FieldStatusCode, status).
		Add(FieldDuration, elapsed.Milliseconds())
	rl.logger.log(ctx, level, "HTTP request completed", attrs)
}
