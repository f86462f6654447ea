package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meterwise/hotspot/config"
	"github.com/meterwise/hotspot/core/feature"
	"github.com/meterwise/hotspot/core/gbt"
	coremetrics "github.com/meterwise/hotspot/core/metrics"
	"github.com/meterwise/hotspot/core/risk"
	"github.com/meterwise/hotspot/infra/logger"
	"github.com/meterwise/hotspot/infra/runlog"
	"github.com/meterwise/hotspot/infra/store"
	"github.com/meterwise/hotspot/internal/eventbus"
)

// fileFetcher writes a canned raw snapshot instead of calling the API.
type fileFetcher struct {
	rows  []string
	calls int
}

func (f *fileFetcher) DownloadMonth(ctx context.Context, year, month int, outputDir string, force bool) (string, int, bool, error) {
	f.calls++
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", 0, false, err
	}
	path := filepath.Join(outputDir, fmt.Sprintf("parking_transactions_%04d-%02d.csv", year, month))
	content := "sourceStreetDisplayName,startDtm,endDtm\n" + strings.Join(f.rows, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", 0, false, err
	}
	return path, len(f.rows), false, nil
}

// rawRows generates transactions covering every day of September 2024 at
// several hours for two streets, enough for a stratified three-way split.
func rawRows() []string {
	var rows []string
	for day := 1; day <= 30; day++ {
		for _, hour := range []int{8, 12, 17} {
			for _, street := range []string{"wilson blvd", "clarendon blvd"} {
				start := fmt.Sprintf("2024-09-%02dT%02d:05:00", day, hour)
				end := fmt.Sprintf("2024-09-%02dT%02d:45:00", day, hour)
				rows = append(rows, fmt.Sprintf("%s,%s,%s", street, start, end))
			}
		}
	}
	return rows
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Data.RawDir = filepath.Join(dir, "raw")
	cfg.Data.Months = []config.Month{{Year: 2024, Month: 9}}
	cfg.Features.ProcessedDir = filepath.Join(dir, "processed")
	cfg.Features.HourlyOutput = "hourly.csv"
	cfg.Model.ArtifactsDir = filepath.Join(dir, "models", "occupancy")
	cfg.Model.TestSize = 0.15
	cfg.Model.ValSize = 0.15
	cfg.Model.Seed = 2025
	cfg.Model.Params = gbt.Params{NumRounds: 30, EarlyStopping: 10, LearningRate: 0.3, MaxDepth: 3, MinSamplesLeaf: 5, Lambda: 1}
	cfg.Risk.ModelDir = filepath.Join(dir, "models", "risk")
	cfg.Risk.DatetimeColumn = "ISSUE_DATETIME"
	cfg.Risk.BlockColumn = "block_normalized"
	cfg.Risk.LatitudeColumn = "LATITUDE"
	cfg.Risk.LongitudeColumn = "LONGITUDE"
	return cfg
}

func TestRunProducesArtifacts(t *testing.T) {
	cfg := testConfig(t)
	fetcher := &fileFetcher{rows: rawRows()}

	runs, err := runlog.NewJSONLStore(filepath.Join(t.TempDir(), "runs.log"))
	require.NoError(t, err)

	bus := eventbus.New()
	events := bus.Subscribe()

	res, err := Run(context.Background(), cfg, Deps{
		Fetcher: fetcher,
		Runs:    runs,
		Bus:     bus,
		Log:     logger.NopLogger{},
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, res.Skipped)
	assert.Equal(t, 1, fetcher.calls)
	// 30 days, 3 hours, 2 streets, one occupied hour per transaction.
	assert.Equal(t, 180, res.Rows)
	assert.Positive(t, res.BestIteration)
	assert.NotEmpty(t, res.RunID)

	// Snapshot and model artifacts must be loadable afterwards.
	hourly, err := store.LoadHourly(res.SnapshotPath)
	require.NoError(t, err)
	assert.Len(t, hourly, 180)

	booster, err := gbt.Load(res.ArtifactsDir)
	require.NoError(t, err)
	assert.Equal(t, res.BestIteration, booster.BestIteration)

	enc, err := feature.LoadStreetEncoder(filepath.Join(res.ArtifactsDir, feature.EncoderFileName))
	require.NoError(t, err)
	assert.Contains(t, enc.Means, "wilson blvd")

	assert.FileExists(t, filepath.Join(res.ArtifactsDir, "metrics.json"))
	assert.FileExists(t, filepath.Join(res.ArtifactsDir, "feature_importance.csv"))

	// Run history captured the metrics.
	recs, err := runs.Query(context.Background(), runlog.Query{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, res.RunID, recs[0].RunID)
	assert.Equal(t, res.Metrics.Test["rmse"], recs[0].RMSE["test"])

	// Progress events were published for every stage.
	stages := make(map[string]bool)
	for {
		select {
		case ev := <-events:
			stages[ev.Stage] = true
			continue
		default:
		}
		break
	}
	for _, stage := range []string{"fetch", "clean", "features", "train", "artifacts"} {
		assert.True(t, stages[stage], "missing stage event %s", stage)
	}
}

func TestRunBuildsRiskModelWhenConfigured(t *testing.T) {
	cfg := testConfig(t)
	citations := filepath.Join(t.TempDir(), "citations.csv")
	content := "ISSUE_DATETIME,block_normalized,LATITUDE,LONGITUDE\n" +
		"2024-09-02T09:15:00,100 block wilson blvd,38.89,-77.08\n" +
		"2024-09-03T14:00:00,100 block wilson blvd,38.89,-77.08\n"
	require.NoError(t, os.WriteFile(citations, []byte(content), 0o644))
	cfg.Risk.CitationsPath = citations

	_, err := Run(context.Background(), cfg, Deps{
		Fetcher: &fileFetcher{rows: rawRows()},
		Log:     logger.NopLogger{},
	})
	require.NoError(t, err)

	m, err := risk.Load(cfg.Risk.ModelDir)
	require.NoError(t, err)
	blocks := m.ListBlocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, "100 block wilson blvd", blocks[0].Block)
}

func TestRunSkipsTrainingWithoutRows(t *testing.T) {
	cfg := testConfig(t)

	res, err := Run(context.Background(), cfg, Deps{
		Fetcher: &fileFetcher{rows: nil},
		Log:     logger.NopLogger{},
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Skipped)
	assert.Zero(t, res.Rows)
	assert.NoDirExists(t, cfg.Model.ArtifactsDir)
}

type failingSink struct{ coremetrics.NopSink }

func (failingSink) RecordFetch(coremetrics.FetchEvent) error {
	return fmt.Errorf("sink down")
}

func TestRunToleratesSinkFailures(t *testing.T) {
	cfg := testConfig(t)

	res, err := Run(context.Background(), cfg, Deps{
		Fetcher: &fileFetcher{rows: rawRows()},
		Sink:    failingSink{},
		Log:     logger.NopLogger{},
	})
	require.NoError(t, err, "metrics failures must not fail the pipeline")
	assert.False(t, res.Skipped)
}
