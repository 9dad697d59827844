package data

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"solar-dispatch/internal/model"
)

// seriesFile matches the JSON export shape of the collector:
// {"samples": [{"timestamp": ..., "load_power_w": ...}, ...]}
type seriesFile struct {
	Samples []model.TimeSeriesSample `json:"samples"`
}

// LoadSamplesJSON reads a time-series JSON file into samples. A null or
// absent reading decodes to zero; NaN coercion only applies to CSV,
// where free-form text is possible.
func LoadSamplesJSON(path string) ([]model.TimeSeriesSample, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file seriesFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	for i, s := range file.Samples {
		if s.Timestamp.IsZero() {
			return nil, &InputError{Path: path, Row: i + 1, Column: ColTimestamp, Reason: "missing or zero"}
		}
		if math.IsNaN(s.IntervalLengthDays) {
			return nil, &InputError{Path: path, Row: i + 1, Column: ColIntervalLength, Reason: "not a number"}
		}
	}
	return file.Samples, nil
}
