package router

import (
	"codemailer/pkg/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"net/http"
	"time"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Log attaches a log_id to the request context and logs every request once
// it has been served.
func Log(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			start = time.Now()
			rec   = &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			ctx   = log.Ctx(r.Context()).With().Str("log_id", uuid.New().String()).Logger().WithContext(r.Context())
		)

		next.ServeHTTP(rec, r.WithContext(ctx))

		since := time.Since(start)
		metrics.ObserveHTTPRequest(r.Method, r.URL.Path, rec.status, since)

		log.Ctx(ctx).Info().Msgf("%s %s, status: %d, proctm: %vms", r.Method, r.URL.Path, rec.status, since.Milliseconds())
	})
}
