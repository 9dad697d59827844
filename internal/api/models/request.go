package models

import "solar-dispatch/internal/config"

// SimulateRequest represents the request body for running a simulation
type SimulateRequest struct {
	DataSource DataSourceConfig     `json:"data_source" binding:"required"`
	Battery    config.BatteryConfig `json:"battery"`
	// BatteryID selects a preset from the battery directory; explicit
	// Battery fields override the preset field by field.
	BatteryID string          `json:"battery_id,omitempty"`
	Options   SimulateOptions `json:"options,omitempty"`
}

// DataSourceConfig selects the time-series input.
type DataSourceConfig struct {
	// Path to a CSV or JSON dataset under the server's data directory.
	Dataset string `json:"dataset" binding:"required"`
}

// SimulateOptions contains optional simulation parameters
type SimulateOptions struct {
	LimitSteps   int  `json:"limit_steps,omitempty"` // 0 = all
	IncludeTrace bool `json:"include_trace,omitempty"`
}

// SweepRequest represents the request body for a stack-sizing sweep
type SweepRequest struct {
	DataSource DataSourceConfig     `json:"data_source" binding:"required"`
	Battery    config.BatteryConfig `json:"battery"`
	BatteryID  string               `json:"battery_id,omitempty"`

	TargetCoveragePcts []float64 `json:"targets" binding:"required"`
	MaxStacks          int       `json:"max_stacks"`
}
