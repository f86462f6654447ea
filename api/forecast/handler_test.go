package forecast

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/meterwise/hotspot/core/metrics"
	"github.com/meterwise/hotspot/core/feature"
	"github.com/meterwise/hotspot/core/gbt"
	"github.com/meterwise/hotspot/core/model"
	"github.com/meterwise/hotspot/core/risk"
	"github.com/meterwise/hotspot/infra/runlog"
)

func fixtureRecords() []model.HourlyOccupancy {
	// 2024-09-02 is a Monday.
	return []model.HourlyOccupancy{
		model.NewHourlyOccupancy("wilson blvd", time.Date(2024, 9, 2, 9, 0, 0, 0, time.UTC), 10),
		model.NewHourlyOccupancy("wilson blvd", time.Date(2024, 9, 9, 9, 0, 0, 0, time.UTC), 14),
		model.NewHourlyOccupancy("clarendon blvd", time.Date(2024, 9, 3, 12, 0, 0, 0, time.UTC), 4),
	}
}

// constantBooster predicts its base score for every input.
func constantBooster(v float64) *gbt.Booster {
	return &gbt.Booster{BaseScore: v, LearningRate: 0.1, FeatureNames: model.FeatureNames}
}

func fixtureEncoder() *feature.StreetEncoder {
	return &feature.StreetEncoder{
		Means:      map[string]float64{"wilson blvd": 12, "clarendon blvd": 4},
		GlobalMean: 8,
	}
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestStreetsHandler(t *testing.T) {
	h := NewStreetsHandler(fixtureRecords())

	rec := get(t, h, "/api/streets")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var streets []feature.StreetCount
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &streets))
	assert.Equal(t, []feature.StreetCount{
		{Street: "wilson blvd", Rows: 2},
		{Street: "clarendon blvd", Rows: 1},
	}, streets)

	post := httptest.NewRecorder()
	h.ServeHTTP(post, httptest.NewRequest(http.MethodPost, "/api/streets", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, post.Code)
}

func TestForecastHandler(t *testing.T) {
	h := NewForecastHandler(fixtureRecords(), constantBooster(7.5), fixtureEncoder())

	rec := get(t, h, "/api/forecast?street=wilson+blvd&day=0&month=9")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ForecastResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "wilson blvd", resp.Street)
	assert.Equal(t, 0, resp.DayOfWeek)
	assert.Equal(t, 9, resp.Month)
	require.Len(t, resp.Hours, 24)
	assert.Equal(t, 7.5, resp.Hours[0].Predicted)
	// Two Monday 09:00 observations of 10 and 14 average to 12.
	assert.InDelta(t, 12.0, resp.Hours[9].ObservedMean, 1e-12)
	assert.Zero(t, resp.Hours[10].ObservedMean)
}

func TestForecastHandlerValidation(t *testing.T) {
	h := NewForecastHandler(fixtureRecords(), constantBooster(1), fixtureEncoder())

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/forecast").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/forecast?street=nowhere").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/forecast?street=wilson+blvd&day=7").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/forecast?street=wilson+blvd&month=13").Code)
}

func fixtureRiskModel(t *testing.T) *risk.Model {
	t.Helper()
	m, err := risk.Build([]risk.Citation{
		{Block: "100 block wilson blvd", Time: time.Date(2024, 9, 2, 9, 0, 0, 0, time.UTC)},
		{Block: "100 block wilson blvd", Time: time.Date(2024, 9, 3, 9, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)
	return m
}

func TestRiskHandler(t *testing.T) {
	h := NewRiskHandler(fixtureRiskModel(t))

	rec := get(t, h, "/api/risk?block=100+block+wilson+blvd&hour=9&day=0")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RiskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 9, resp.Hour)
	assert.Equal(t, 0, resp.DayOfWeek)
	assert.Positive(t, resp.Probability)
	assert.LessOrEqual(t, resp.Probability, 0.99)
}

func TestRiskHandlerValidation(t *testing.T) {
	h := NewRiskHandler(fixtureRiskModel(t))

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/risk?hour=9&day=0").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/risk?block=x&hour=24&day=0").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/risk?block=x&hour=9&day=9").Code)
}

func TestRiskHandlerUnavailable(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, get(t, NewRiskHandler(nil), "/api/risk?block=x&hour=9&day=0").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, NewBlocksHandler(nil), "/api/blocks").Code)
}

func TestBlocksHandler(t *testing.T) {
	rec := get(t, NewBlocksHandler(fixtureRiskModel(t)), "/api/blocks")
	require.Equal(t, http.StatusOK, rec.Code)

	var blocks []risk.BlockSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &blocks))
	require.Len(t, blocks, 1)
	assert.Equal(t, "100 Block Wilson Blvd", blocks[0].DisplayName)
}

func TestRunsHandler(t *testing.T) {
	store, err := runlog.NewJSONLStore(t.TempDir() + "/runs.log")
	require.NoError(t, err)

	h := NewRunsHandler(store)
	rec := get(t, h, "/api/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String(), "empty history must serialize as an empty array")

	require.NoError(t, store.Append(context.Background(), runlog.RunRecord{RunID: "r1", StartedAt: time.Now().UTC()}))
	require.NoError(t, store.Append(context.Background(), runlog.RunRecord{RunID: "r2", StartedAt: time.Now().UTC()}))

	rec = get(t, h, "/api/runs?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	var recs []runlog.RunRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "r2", recs[0].RunID)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/runs?limit=0").Code)
}

// captureSink records forecast requests for assertions.
type captureSink struct {
	coremetrics.NopSink
	requests []coremetrics.ForecastRequest
}

func (s *captureSink) RecordForecastRequest(r coremetrics.ForecastRequest) error {
	s.requests = append(s.requests, r)
	return nil
}

func TestWithMetrics(t *testing.T) {
	sink := &captureSink{}
	h := WithMetrics("forecast", sink, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	get(t, h, "/api/forecast?street=wilson+blvd")
	require.Len(t, sink.requests, 1)
	assert.Equal(t, "forecast", sink.requests[0].Endpoint)
	assert.Equal(t, "wilson blvd", sink.requests[0].Street)
	assert.Equal(t, http.StatusNotFound, sink.requests[0].Status)
}
