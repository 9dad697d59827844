package handlers

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"solar-dispatch/internal/api/models"
	"solar-dispatch/internal/config"
	"solar-dispatch/internal/data"
	"solar-dispatch/internal/model"
)

// Deps bundles what the handlers need: directories, the dataset cache
// and a logger. Constructed once in cmd/api.
type Deps struct {
	DataDir    string
	BatteryDir string
	Cache      *data.SampleCache
	Log        *slog.Logger
}

// resolveDataset maps a request's dataset name to a path under DataDir,
// rejecting traversal outside it.
func (d *Deps) resolveDataset(name string) (string, error) {
	path := filepath.Join(d.DataDir, filepath.Clean("/"+name))
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	absDir, err := filepath.Abs(d.DataDir)
	if err != nil {
		return "", err
	}
	if abs != absDir && !strings.HasPrefix(abs, absDir+string(filepath.Separator)) {
		return "", fmt.Errorf("dataset %q resolves outside the data directory", name)
	}
	return abs, nil
}

// buildParams resolves a battery preset (when requested), overlays the
// request's explicit fields, applies defaults and converts to model
// params. Validation happens in model.NewBattery.
func (d *Deps) buildParams(batteryID string, override config.BatteryConfig) (model.BatteryParams, error) {
	merged := override
	if batteryID != "" {
		presetPath := filepath.Join(d.BatteryDir, batteryID+".yaml")
		preset, err := config.LoadBatteryFile(presetPath)
		if err != nil {
			return model.BatteryParams{}, fmt.Errorf("battery preset %q: %w", batteryID, err)
		}
		merged = config.MergeBattery(preset, override)
	}

	params := merged.WithDefaults().ToModelParams()
	if err := params.Validate(); err != nil {
		return model.BatteryParams{}, err
	}
	return params, nil
}

// ResolveRun loads a dataset and builds a battery for a live run. It
// satisfies the websocket layer's RunSource interface.
func (d *Deps) ResolveRun(dataset string, batteryID string, battery config.BatteryConfig) ([]model.TimeSeriesSample, *model.Battery, error) {
	path, err := d.resolveDataset(dataset)
	if err != nil {
		return nil, nil, err
	}
	samples, _, err := d.Cache.Load(path, d.Log)
	if err != nil {
		return nil, nil, err
	}
	params, err := d.buildParams(batteryID, battery)
	if err != nil {
		return nil, nil, err
	}
	batt, err := model.NewBattery(params)
	if err != nil {
		return nil, nil, err
	}
	return samples, batt, nil
}

func errorJSON(code, message string) models.ErrorResponse {
	return models.ErrorResponse{Error: models.ErrorDetail{Code: code, Message: message}}
}
