package middleware

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// LoggerMiddleware logs HTTP requests with request ID and, when present, the logged-in username
func LoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			user := &requestUser{}

			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), requestUserKey, user)))

			fields := []zap.Field{
				zap.String("request_id", GetRequestID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", ww.statusCode),
				zap.Duration("duration", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
			}
			if user.name != "" {
				fields = append(fields, zap.String("username", user.name))
			}

			logger.Info("HTTP request", fields...)
		})
	}
}

// requestUser is filled in by middleware further down the chain once the client is identified
type requestUser struct {
	name string
}

// setRequestUser records the username for the request log line; a no-op outside LoggerMiddleware
func setRequestUser(ctx context.Context, username string) {
	if user, ok := ctx.Value(requestUserKey).(*requestUser); ok {
		user.name = username
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
