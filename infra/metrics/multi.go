package metrics

import coremetrics "github.com/meterwise/hotspot/core/metrics"

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordTrainingRun forwards the run to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordTrainingRun(run coremetrics.TrainingRun) error {
	for _, s := range m.Sinks {
		if err := s.RecordTrainingRun(run); err != nil {
			return err
		}
	}
	return nil
}

// RecordFetch forwards fetch events.
func (m *MultiSink) RecordFetch(ev coremetrics.FetchEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordFetch(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordForecastRequest forwards request events.
func (m *MultiSink) RecordForecastRequest(req coremetrics.ForecastRequest) error {
	for _, s := range m.Sinks {
		if err := s.RecordForecastRequest(req); err != nil {
			return err
		}
	}
	return nil
}
