package providers

import (
	"net/http"
	"time"
)

// instrumentedWriter remembers the first status a handler commits.
// Writes after that commit cannot change what gets recorded, mirroring
// net/http's own rule that only the first WriteHeader counts.
type instrumentedWriter struct {
	http.ResponseWriter
	status    int
	committed bool
}

func (w *instrumentedWriter) WriteHeader(code int) {
	if !w.committed {
		w.status = code
		w.committed = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *instrumentedWriter) Write(p []byte) (int, error) {
	w.committed = true
	return w.ResponseWriter.Write(p)
}

func (w *instrumentedWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// MetricsMiddleware counts and times every API request by path and
// response status.
func MetricsMiddleware(metrics MetricsProviderInterface, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		iw := &instrumentedWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(iw, r)

		metrics.IncRequestsTotal(r.URL.Path, iw.status)
		metrics.ObserveRequestDuration(r.URL.Path, time.Since(start))
	})
}
