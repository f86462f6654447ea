package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/meterwise/hotspot/core/metrics"
)

// PromSink records pipeline and serving events in Prometheus metrics.
type PromSink struct {
	trainingRuns *prometheus.CounterVec
	foldRMSE     *prometheus.GaugeVec
	fetchRows    *prometheus.CounterVec
	requests     *prometheus.CounterVec
	reqLatency   *prometheus.HistogramVec
}

// NewPromSink registers the collectors on the provided registerer. If reg is
// nil, the default registerer is used. If the collectors are already
// registered, the existing ones are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	trainingRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hotspot_training_runs_total",
		Help: "Total number of completed training pipeline runs",
	}, []string{"run_id"})
	foldRMSE := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hotspot_model_rmse",
		Help: "RMSE of the most recent training run per fold",
	}, []string{"fold"})
	fetchRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hotspot_fetch_rows_total",
		Help: "Raw transaction rows downloaded per month",
	}, []string{"month", "cached"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hotspot_api_requests_total",
		Help: "Dashboard API requests",
	}, []string{"endpoint", "status"})
	reqLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hotspot_api_request_seconds",
		Help:    "Dashboard API request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	s := &PromSink{
		trainingRuns: trainingRuns,
		foldRMSE:     foldRMSE,
		fetchRows:    fetchRows,
		requests:     requests,
		reqLatency:   reqLatency,
	}
	collectors := []prometheus.Collector{trainingRuns, foldRMSE, fetchRows, requests, reqLatency}
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			switch i {
			case 0:
				s.trainingRuns = are.ExistingCollector.(*prometheus.CounterVec)
			case 1:
				s.foldRMSE = are.ExistingCollector.(*prometheus.GaugeVec)
			case 2:
				s.fetchRows = are.ExistingCollector.(*prometheus.CounterVec)
			case 3:
				s.requests = are.ExistingCollector.(*prometheus.CounterVec)
			case 4:
				s.reqLatency = are.ExistingCollector.(*prometheus.HistogramVec)
			}
		}
	}
	return s, nil
}

// RecordTrainingRun updates the run counter and per-fold RMSE gauges.
func (s *PromSink) RecordTrainingRun(run coremetrics.TrainingRun) error {
	s.trainingRuns.WithLabelValues(run.RunID).Inc()
	for fold, rmse := range run.RMSE {
		s.foldRMSE.WithLabelValues(fold).Set(rmse)
	}
	return nil
}

// RecordFetch counts downloaded rows per month.
func (s *PromSink) RecordFetch(ev coremetrics.FetchEvent) error {
	s.fetchRows.WithLabelValues(ev.Month, strconv.FormatBool(ev.Cached)).Add(float64(ev.Rows))
	return nil
}

// RecordForecastRequest observes one dashboard API request.
func (s *PromSink) RecordForecastRequest(req coremetrics.ForecastRequest) error {
	s.requests.WithLabelValues(req.Endpoint, strconv.Itoa(req.Status)).Inc()
	s.reqLatency.WithLabelValues(req.Endpoint).Observe(req.Latency.Seconds())
	return nil
}
