package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"solar-dispatch/internal/model"
)

// InputError reports malformed source data: a missing required column
// or an unparseable timestamp. It identifies the offending row/column;
// loading stops, since downstream ordering depends on timestamps.
type InputError struct {
	Path   string
	Row    int // 1-based data row; 0 when the header itself is bad
	Column string
	Reason string
}

func (e *InputError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("%s: column %q %s", e.Path, e.Column, e.Reason)
	}
	return fmt.Sprintf("%s: row %d column %q %s", e.Path, e.Row, e.Column, e.Reason)
}

// Required columns of the time-series input.
const (
	ColTimestamp      = "timestamp"
	ColLoadPower      = "load_power_w"
	ColProduction     = "production_power_w"
	ColIntervalLength = "interval_length_days"
)

// LoadReport summarizes what per-row cleaning did to the source.
type LoadReport struct {
	Rows          int `json:"rows"`
	Kept          int `json:"kept"`
	CoercedPowers int `json:"coerced_powers"` // non-numeric readings turned into NaN
	BadIntervals  int `json:"bad_intervals"`  // non-positive interval lengths (kept as no-op steps)
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// LoadSamplesCSV reads a time-series CSV into samples.
//
// The header must contain the four required columns (extra columns are
// ignored). Non-numeric power fields are coerced to NaN and counted;
// the dispatch engine treats those steps as zero-flow. Non-positive
// interval lengths are kept, warned about here and handled as no-op
// steps by the engine.
func LoadSamplesCSV(path string, logger *slog.Logger) ([]model.TimeSeriesSample, *LoadReport, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{ColTimestamp, ColLoadPower, ColProduction, ColIntervalLength} {
		if _, ok := cols[required]; !ok {
			return nil, nil, &InputError{Path: path, Column: required, Reason: "missing from header"}
		}
	}

	report := &LoadReport{}
	var samples []model.TimeSeriesSample

	for row := 1; ; row++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", row, err)
		}
		report.Rows++

		ts, err := parseTimestamp(record[cols[ColTimestamp]])
		if err != nil {
			return nil, nil, &InputError{Path: path, Row: row, Column: ColTimestamp, Reason: err.Error()}
		}

		interval, ok := parseFloat(record[cols[ColIntervalLength]])
		if !ok || math.IsNaN(interval) {
			return nil, nil, &InputError{Path: path, Row: row, Column: ColIntervalLength, Reason: "not a number"}
		}
		if interval <= 0 {
			report.BadIntervals++
			logger.Warn("non-positive interval length",
				"path", path, "row", row, "interval_days", interval)
		}

		load, ok := parseFloat(record[cols[ColLoadPower]])
		if !ok {
			load = math.NaN()
			report.CoercedPowers++
			logger.Warn("non-numeric load power, coerced",
				"path", path, "row", row, "value", record[cols[ColLoadPower]])
		}
		production, ok := parseFloat(record[cols[ColProduction]])
		if !ok {
			production = math.NaN()
			report.CoercedPowers++
			logger.Warn("non-numeric production power, coerced",
				"path", path, "row", row, "value", record[cols[ColProduction]])
		}

		samples = append(samples, model.TimeSeriesSample{
			Timestamp:          ts,
			LoadPowerW:         load,
			ProductionPowerW:   production,
			IntervalLengthDays: interval,
		})
		report.Kept++
	}

	return samples, report, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", raw)
}

func parseFloat(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
