package models

import (
	"solar-dispatch/internal/data"
	"solar-dispatch/internal/dispatch"
	"solar-dispatch/internal/recommend"
	"solar-dispatch/internal/sizing"
)

// SimulateResponse represents the response from a simulation run
type SimulateResponse struct {
	Status         string                   `json:"status"`
	Summary        dispatch.Summary         `json:"summary"`
	Recommendation recommend.Recommendation `json:"recommendation"`
	LoadReport     *data.LoadReport         `json:"load_report,omitempty"`
	Trace          []dispatch.StepResult    `json:"trace,omitempty"`
}

// SweepResponse represents the response from a stack-sizing sweep
type SweepResponse struct {
	Status string              `json:"status"`
	Result *sizing.SweepResult `json:"result"`
	// Attained lists each reached target with its minimal stack count,
	// sorted by target.
	Attained []TargetAttainment `json:"attained"`
	// Unattained lists requested targets not reached within max_stacks.
	Unattained []float64 `json:"unattained,omitempty"`
}

// TargetAttainment pairs a coverage target with the minimal stack count
// that reached it
type TargetAttainment struct {
	TargetPct  float64 `json:"target_pct"`
	StackCount int     `json:"stack_count"`
}

// BatteryInfo describes an available battery preset
type BatteryInfo struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	File  string       `json:"file"`
	Specs BatterySpecs `json:"specs"`
}

// BatterySpecs contains key battery specifications
type BatterySpecs struct {
	Stacks             int     `json:"stacks"`
	CapacityKWh        float64 `json:"capacity_kwh"`
	MaxChargeRateKW    float64 `json:"max_charge_rate_kw"`
	MaxDischargeRateKW float64 `json:"max_discharge_rate_kw"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
