package data

import (
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSamplesCSV_Valid(t *testing.T) {
	path := writeFile(t, "series.csv", `timestamp,load_power_w,production_power_w,interval_length_days
2025-06-01T00:00:00Z,1200,0,0.041666667
2025-06-01T01:00:00Z,800,3500,0.041666667
`)

	samples, report, err := LoadSamplesCSV(path, discardLogger())
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 2, report.Rows)
	assert.Equal(t, 2, report.Kept)
	assert.Zero(t, report.CoercedPowers)

	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), samples[0].Timestamp)
	assert.InDelta(t, 1200, samples[0].LoadPowerW, 1e-9)
	assert.InDelta(t, 3500, samples[1].ProductionPowerW, 1e-9)
	assert.InDelta(t, 1.0, samples[0].IntervalHours(), 1e-6)
}

func TestLoadSamplesCSV_ExtraColumnsAndCaseIgnored(t *testing.T) {
	path := writeFile(t, "series.csv", `site,Timestamp,LOAD_POWER_W,production_power_w,interval_length_days,note
a,2025-06-01 00:00:00,500,100,0.04,x
`)

	samples, _, err := LoadSamplesCSV(path, discardLogger())
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.InDelta(t, 500, samples[0].LoadPowerW, 1e-9)
}

func TestLoadSamplesCSV_MissingColumn(t *testing.T) {
	path := writeFile(t, "series.csv", `timestamp,load_power_w,interval_length_days
2025-06-01T00:00:00Z,1200,0.04
`)

	_, _, err := LoadSamplesCSV(path, discardLogger())
	var inErr *InputError
	require.ErrorAs(t, err, &inErr)
	assert.Equal(t, ColProduction, inErr.Column)
	assert.Zero(t, inErr.Row)
}

func TestLoadSamplesCSV_BadTimestampStops(t *testing.T) {
	path := writeFile(t, "series.csv", `timestamp,load_power_w,production_power_w,interval_length_days
2025-06-01T00:00:00Z,1200,0,0.04
yesterday,1200,0,0.04
`)

	_, _, err := LoadSamplesCSV(path, discardLogger())
	var inErr *InputError
	require.ErrorAs(t, err, &inErr)
	assert.Equal(t, ColTimestamp, inErr.Column)
	assert.Equal(t, 2, inErr.Row)
}

func TestLoadSamplesCSV_NonNumericPowerCoercedToNaN(t *testing.T) {
	path := writeFile(t, "series.csv", `timestamp,load_power_w,production_power_w,interval_length_days
2025-06-01T00:00:00Z,n/a,3500,0.04
2025-06-01T01:00:00Z,800,,0.04
`)

	samples, report, err := LoadSamplesCSV(path, discardLogger())
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.True(t, math.IsNaN(samples[0].LoadPowerW))
	assert.True(t, math.IsNaN(samples[1].ProductionPowerW))
	assert.Equal(t, 2, report.CoercedPowers)
	assert.Equal(t, 2, report.Kept)
}

func TestLoadSamplesCSV_NonPositiveIntervalKeptAndCounted(t *testing.T) {
	path := writeFile(t, "series.csv", `timestamp,load_power_w,production_power_w,interval_length_days
2025-06-01T00:00:00Z,1200,0,0
2025-06-01T01:00:00Z,1200,0,-0.04
`)

	samples, report, err := LoadSamplesCSV(path, discardLogger())
	require.NoError(t, err)
	assert.Len(t, samples, 2)
	assert.Equal(t, 2, report.BadIntervals)
}

func TestLoadSamplesCSV_NonNumericIntervalStops(t *testing.T) {
	path := writeFile(t, "series.csv", `timestamp,load_power_w,production_power_w,interval_length_days
2025-06-01T00:00:00Z,1200,0,soon
`)

	_, _, err := LoadSamplesCSV(path, discardLogger())
	var inErr *InputError
	require.ErrorAs(t, err, &inErr)
	assert.Equal(t, ColIntervalLength, inErr.Column)
}

func TestLoadSamplesJSON_Valid(t *testing.T) {
	path := writeFile(t, "series.json", `{"samples":[
		{"timestamp":"2025-06-01T00:00:00Z","load_power_w":900,"production_power_w":0,"interval_length_days":0.04},
		{"timestamp":"2025-06-01T01:00:00Z","load_power_w":0,"production_power_w":4100,"interval_length_days":0.04}
	]}`)

	samples, err := LoadSamplesJSON(path)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.InDelta(t, 4100, samples[1].ProductionPowerW, 1e-9)
}

func TestLoadSamplesJSON_MissingTimestamp(t *testing.T) {
	path := writeFile(t, "series.json", `{"samples":[
		{"load_power_w":900,"production_power_w":0,"interval_length_days":0.04}
	]}`)

	_, err := LoadSamplesJSON(path)
	var inErr *InputError
	require.ErrorAs(t, err, &inErr)
	assert.Equal(t, ColTimestamp, inErr.Column)
	assert.Equal(t, 1, inErr.Row)
}

func TestSampleCache_HitAndExplicitClear(t *testing.T) {
	path := writeFile(t, "series.csv", `timestamp,load_power_w,production_power_w,interval_length_days
2025-06-01T00:00:00Z,1200,0,0.04
`)
	cache := NewSampleCache(time.Minute)

	first, _, err := cache.Load(path, discardLogger())
	require.NoError(t, err)
	second, _, err := cache.Load(path, discardLogger())
	require.NoError(t, err)

	// Same backing slice on a hit.
	assert.Same(t, &first[0], &second[0])

	cache.Clear()
	third, _, err := cache.Load(path, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestSampleCache_InvalidatedOnModTimeChange(t *testing.T) {
	path := writeFile(t, "series.csv", `timestamp,load_power_w,production_power_w,interval_length_days
2025-06-01T00:00:00Z,1200,0,0.04
`)
	cache := NewSampleCache(time.Minute)

	_, _, err := cache.Load(path, discardLogger())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`timestamp,load_power_w,production_power_w,interval_length_days
2025-06-01T00:00:00Z,7700,0,0.04
`), 0o644))
	// Push mtime past filesystem timestamp granularity.
	newTime := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, newTime, newTime))

	samples, _, err := cache.Load(path, discardLogger())
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.InDelta(t, 7700, samples[0].LoadPowerW, 1e-9)
}

func TestListDatasets(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.json", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	infos, err := ListDatasets(dir)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "a.json", infos[0].Name)
	assert.Equal(t, "b.csv", infos[1].Name)
}

func TestListDatasets_MissingDir(t *testing.T) {
	infos, err := ListDatasets(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, infos)
}
