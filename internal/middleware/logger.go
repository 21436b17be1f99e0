package middleware

import (
	"net/http"
	"time"

	"pushnotify/internal/logger"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const InvocationIDHeader = "X-Invocation-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// LoggerMiddleware tags every request with an invocation id and logs it once
// the handler returns.
func LoggerMiddleware(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			invocationID := uuid.NewString()
			w.Header().Set(InvocationIDHeader, invocationID)
			ctx := logger.WithInvocationID(r.Context(), invocationID)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r.WithContext(ctx))

			log.Info().
				Str("invocation_id", invocationID).
				Str("method", r.Method).
				Str("path", r.URL.RequestURI()).
				Int("status", rec.status).
				Dur("duration", time.Since(start)).
				Msg("Request handled")
		})
	}
}
