package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"task-tracker/backend/logging"
)

// RequestID returns the id AccessLog assigned to the request.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// AccessLog tags each request with an X-Request-ID and logs it once the
// handler returns.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))

		entry := logging.Logger.WithField("request_id", id)
		msg := "Event ID: HTTP_REQUEST, Description: %s %s -> %d (%s)"
		switch {
		case rec.status >= 500:
			entry.Errorf(msg, r.Method, r.URL.Path, rec.status, time.Since(start))
		case rec.status >= 400:
			entry.Warnf(msg, r.Method, r.URL.Path, rec.status, time.Since(start))
		default:
			entry.Infof(msg, r.Method, r.URL.Path, rec.status, time.Since(start))
		}
	})
}
