package middleware

import (
	"net/http"
	"time"

	"library/utils"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RequestLoggingMiddleware логирует каждый HTTP запрос после ответа
func RequestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		utils.Logger.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}

// HTTPHeadersLoggingMiddleware логирует все входящие HTTP заголовки (для отладки).
// Authorization не попадает в лог.
func HTTPHeadersLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := make(map[string][]string, len(r.Header))
		for key, values := range r.Header {
			if http.CanonicalHeaderKey(key) == "Authorization" {
				headers[key] = []string{"[redacted]"}
				continue
			}
			headers[key] = values
		}

		utils.Logger.Debug("Incoming HTTP request headers",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Any("headers", headers),
		)

		next.ServeHTTP(w, r)
	})
}
