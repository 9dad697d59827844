package dispatch

import (
	"time"

	"solar-dispatch/internal/model"
)

// StepResult is one row of per-step output.
// This is the primary artifact for "what happened" in a simulation and
// the sole input to the recommendation engine.
type StepResult struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`

	Action model.Action `json:"action"`

	// Energies over the interval. ProductionKWh is this system's share.
	LoadKWh       float64 `json:"load_kwh"`
	ProductionKWh float64 `json:"production_kwh"`

	SoCStartKWh float64 `json:"soc_start_kwh"`
	SoCEndKWh   float64 `json:"soc_end_kwh"`

	ChargeKWh    float64 `json:"charge_kwh"`
	DischargeKWh float64 `json:"discharge_kwh"`
	UnmetLoadKWh float64 `json:"unmet_load_kwh"`
	ExportedKWh  float64 `json:"exported_kwh"`

	// Running totals up to and including this step.
	RunningUnmetKWh    float64 `json:"running_total_unmet_kwh"`
	RunningExportedKWh float64 `json:"running_total_exported_kwh"`
}

// Summary holds the scalar metrics for a whole run.
type Summary struct {
	Steps int `json:"steps"`

	FinalSoCKWh float64 `json:"final_soc_kwh"`
	// FinalSoCPct is the final SoC as a percentage of the usable range
	// (0 = at the depth-of-discharge floor, 100 = full).
	FinalSoCPct float64 `json:"final_soc_pct"`

	TotalUnmetLoadKWh    float64 `json:"total_unmet_load_kwh"`
	TotalExportedKWh     float64 `json:"total_exported_kwh"`
	FullBatterySteps     int     `json:"full_battery_steps"`
	CumulativeSurplusKWh float64 `json:"cumulative_surplus_kwh"`

	TotalLoadKWh       float64 `json:"total_load_kwh"`
	TotalProductionKWh float64 `json:"total_production_kwh"`
}

// Result bundles the trace with its summary.
type Result struct {
	Trace   []StepResult `json:"trace"`
	Summary Summary      `json:"summary"`
}
