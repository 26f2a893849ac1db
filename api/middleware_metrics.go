package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MetricsMiddleware tracks request timing and metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		// Skip the health and metrics endpoints to avoid polluting metrics
		if path == "/health" || path == "/api/v1/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		startTime := time.Now()
		trace := &RequestTrace{
			RequestID: uuid.New().String(),
			Method:    r.Method,
			Path:      path,
			StartTime: startTime,
			DBQueries: make([]DBQueryTrace, 0),
		}

		r = r.WithContext(WithRequestTrace(r.Context(), trace))

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		trace.EndTime = time.Now()
		trace.TotalDuration = trace.EndTime.Sub(startTime)
		trace.Status = wrapped.statusCode
		for _, q := range trace.DBQueries {
			trace.DBTotalTime += q.Duration
		}

		Collector.RecordTrace(*trace)

		if trace.TotalDuration > time.Second {
			zap.S().Warnw("slow request",
				"requestId", trace.RequestID,
				"method", trace.Method,
				"path", trace.Path,
				"duration", trace.TotalDuration,
			)
		}
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
