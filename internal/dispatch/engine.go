package dispatch

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"solar-dispatch/internal/model"
)

// Observer receives a read-only snapshot after each step. It is invoked
// synchronously from the simulation loop and must not retain the value
// beyond the call.
type Observer interface {
	OnStep(step StepResult)
}

// RunOptions tunes a single run. The zero value is a plain batch run.
type RunOptions struct {
	Observer Observer

	// Paused is checked between steps; while it returns true the loop
	// waits. Purely for live-progress UIs.
	Paused func() bool

	// StepDelay is a cosmetic per-step sleep for live-progress UIs.
	// It has zero effect on computed results.
	StepDelay time.Duration
}

// Engine runs a greedy self-consumption dispatch over a time series:
// charge from surplus, discharge to cover deficit, within capacity,
// rate and efficiency limits.
type Engine struct {
	log *slog.Logger
}

func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{log: logger}
}

const pausePollInterval = 50 * time.Millisecond

// Run simulates the battery over the sample series.
//
// Samples are expected sorted ascending by timestamp; if they are not,
// the engine sorts a copy and logs a warning. The caller's slice and
// battery are never mutated: the run is a pure function of
// (samples, battery params). One StepResult is produced per sample, in
// timestamp order, with running totals monotonically non-decreasing.
// An empty series yields an empty trace and a zero summary.
func (e *Engine) Run(samples []model.TimeSeriesSample, batt *model.Battery, opts RunOptions) (*Result, error) {
	if batt == nil {
		return nil, fmt.Errorf("battery is nil")
	}
	if err := batt.Params.Validate(); err != nil {
		return nil, err
	}

	samples = e.ensureSorted(samples)

	// Work on a copy so the caller's battery state is untouched.
	sim := *batt

	res := &Result{Trace: make([]StepResult, 0, len(samples))}
	sum := &res.Summary
	sum.FinalSoCKWh = sim.State.SoCKWh
	sum.FinalSoCPct = usableSoCPct(&sim)

	for idx, s := range samples {
		for opts.Paused != nil && opts.Paused() {
			time.Sleep(pausePollInterval)
		}

		row := e.step(&sim, idx, s, sum)
		res.Trace = append(res.Trace, row)

		if opts.Observer != nil {
			opts.Observer.OnStep(row)
		}
		if opts.StepDelay > 0 {
			time.Sleep(opts.StepDelay)
		}
	}

	sum.Steps = len(res.Trace)
	sum.FinalSoCKWh = sim.State.SoCKWh
	sum.FinalSoCPct = usableSoCPct(&sim)
	return res, nil
}

func (e *Engine) step(sim *model.Battery, idx int, s model.TimeSeriesSample, sum *Summary) StepResult {
	hours := s.IntervalHours()

	row := StepResult{
		Index:       idx,
		Timestamp:   s.Timestamp,
		Action:      model.ActionIdle,
		SoCStartKWh: sim.State.SoCKWh,
		SoCEndKWh:   sim.State.SoCKWh,
	}

	switch {
	case hours <= 0:
		// Zero-energy, state-preserving step.
		e.log.Warn("non-positive interval length, skipping energy flows",
			"index", idx, "timestamp", s.Timestamp, "interval_days", s.IntervalLengthDays)
	case math.IsNaN(s.LoadPowerW) || math.IsNaN(s.ProductionPowerW):
		// Coerced non-numeric reading: zero flows for this step.
		e.log.Warn("non-numeric power reading, treating step as zero-flow",
			"index", idx, "timestamp", s.Timestamp)
	default:
		loadKWh := s.LoadKWh()
		ourProductionKWh := s.ProductionKWh() * sim.Params.PVSharePct / 100

		flows := sim.Step(loadKWh, ourProductionKWh, hours)

		row.LoadKWh = loadKWh
		row.ProductionKWh = ourProductionKWh
		row.SoCStartKWh = flows.SoCStartKWh
		row.SoCEndKWh = flows.SoCEndKWh
		row.ChargeKWh = flows.ChargeKWh
		row.DischargeKWh = flows.DischargeKWh
		row.UnmetLoadKWh = flows.UnmetLoadKWh
		row.ExportedKWh = flows.ExportedKWh
		row.Action = model.ActionFromFlows(flows)

		sum.TotalUnmetLoadKWh += flows.UnmetLoadKWh
		sum.TotalExportedKWh += flows.ExportedKWh
		sum.CumulativeSurplusKWh += flows.ChargeKWh
		sum.TotalLoadKWh += loadKWh
		sum.TotalProductionKWh += ourProductionKWh
	}

	if sim.Full() {
		sum.FullBatterySteps++
	}

	row.RunningUnmetKWh = sum.TotalUnmetLoadKWh
	row.RunningExportedKWh = sum.TotalExportedKWh
	return row
}

// ensureSorted returns the samples in ascending timestamp order,
// copying and sorting only when the input is out of order.
func (e *Engine) ensureSorted(samples []model.TimeSeriesSample) []model.TimeSeriesSample {
	sorted := true
	for i := 1; i < len(samples); i++ {
		if samples[i].Timestamp.Before(samples[i-1].Timestamp) {
			sorted = false
			break
		}
	}
	if sorted {
		return samples
	}

	e.log.Warn("samples out of order, re-sorting by timestamp", "count", len(samples))
	cp := make([]model.TimeSeriesSample, len(samples))
	copy(cp, samples)
	sort.SliceStable(cp, func(i, j int) bool {
		return cp[i].Timestamp.Before(cp[j].Timestamp)
	})
	return cp
}

// usableSoCPct expresses SoC as a percentage of the usable range
// (floor..capacity). Zero-capacity batteries report 0.
func usableSoCPct(b *model.Battery) float64 {
	minSoC := b.Params.MinUsableSoCKWh()
	maxSoC := b.Params.MaxSoCKWh()
	if maxSoC <= minSoC {
		return 0
	}
	return (b.State.SoCKWh - minSoC) / (maxSoC - minSoC) * 100
}
