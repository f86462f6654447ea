package metrics

import "time"

// TrainingRun describes one completed execution of the training pipeline.
type TrainingRun struct {
	RunID         string
	StartedAt     time.Time
	Duration      time.Duration
	Rows          int
	BestIteration int
	// RMSE and MAE are keyed by fold: train, validation, test.
	RMSE map[string]float64
	MAE  map[string]float64
}

// FetchEvent describes one month of raw data retrieval.
type FetchEvent struct {
	Month  string
	Rows   int
	Cached bool
	Time   time.Time
}

// ForecastRequest describes one dashboard API request.
type ForecastRequest struct {
	Endpoint string
	Street   string
	Status   int
	Latency  time.Duration
	Time     time.Time
}

// Sink receives pipeline and serving events. Implementations must be safe
// for concurrent use.
type Sink interface {
	RecordTrainingRun(TrainingRun) error
	RecordFetch(FetchEvent) error
	RecordForecastRequest(ForecastRequest) error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordTrainingRun(TrainingRun) error         { return nil }
func (NopSink) RecordFetch(FetchEvent) error                { return nil }
func (NopSink) RecordForecastRequest(ForecastRequest) error { return nil }
