package hubx

import (
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// RequestLogger returns a middleware logging every request served by the
// local UI with its status, latency, client IP, method and path.
// Responses with a 5xx status are logged at error level.
//
// Usage:
//
//	mux := hubx.NewServeMux()
//	mux.Use(hubx.RequestLogger(log))
func RequestLogger(log *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w, w.Header(), w.WriteHeader)
			next.ServeHTTP(rw, r)

			ip, _, _ := net.SplitHostPort(r.RemoteAddr)
			status := rw.statusOrOK()
			fields := []zap.Field{
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", ip),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("bytes", rw.size),
			}

			if status >= http.StatusInternalServerError {
				log.Error("request", fields...)
				return
			}
			log.Info("request", fields...)
		})
	}
}
