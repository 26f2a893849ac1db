package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// RequestTimeout bounds a whole request. Individual database queries carry
// the tighter QueryTimeout bound; this is the outer backstop so a wedged
// handler cannot hold a connection open indefinitely.
const RequestTimeout = 30 * time.Second

// TimeoutMiddleware fails the request with 408 once the budget lapses. The
// deadline rides the request context, so in-flight queries under
// WithQueryTimeout are cancelled along with it.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			r = r.WithContext(ctx)

			done := make(chan struct{})
			go func() {
				next.ServeHTTP(w, r)
				close(done)
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if ctx.Err() == context.DeadlineExceeded {
					zap.S().Warnw("request timed out",
						"path", r.URL.Path,
						"method", r.Method,
						"timeout", timeout)
					w.WriteHeader(http.StatusRequestTimeout)
					w.Write([]byte(`{"error": "request timeout", "message": "the request took too long to process"}`))
				}
			}
		})
	}
}
