package forecast

import (
	"net/http"
	"time"

	coremetrics "github.com/meterwise/hotspot/core/metrics"
)

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// WithMetrics wraps a handler, recording one ForecastRequest per call.
func WithMetrics(endpoint string, sink coremetrics.Sink, h http.Handler) http.Handler {
	if sink == nil {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, r)
		_ = sink.RecordForecastRequest(coremetrics.ForecastRequest{
			Endpoint: endpoint,
			Street:   r.URL.Query().Get("street"),
			Status:   rec.status,
			Latency:  time.Since(start),
			Time:     start.UTC(),
		})
	})
}
