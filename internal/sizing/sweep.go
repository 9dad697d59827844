package sizing

import (
	"fmt"
	"log/slog"

	"solar-dispatch/internal/dispatch"
	"solar-dispatch/internal/model"
)

// FullCoverageEpsilonKWh: once residual unmet load drops to or below
// this, the sweep treats coverage as complete and stops early.
const FullCoverageEpsilonKWh = 0.1

// StackResult is one row of the sweep output.
type StackResult struct {
	StackCount     int     `json:"stack_count"`
	CapacityKWh    float64 `json:"capacity_kwh"`
	UnmetLoadKWh   float64 `json:"unmet_load_kwh"`
	CoveredKWh     float64 `json:"covered_kwh"`
	CoveragePct    float64 `json:"coverage_pct"`
	IncrementalPct float64 `json:"incremental_pct"`
}

// SweepResult is the full sweep output: the per-stack-count table plus
// the minimal stack count attaining each requested coverage target.
type SweepResult struct {
	BaselineUnmetKWh float64       `json:"baseline_unmet_kwh"`
	Stacks           []StackResult `json:"stacks"`

	// Attained maps a requested target percentage to the minimal stack
	// count whose coverage reached it. Targets missing from the map
	// were not achieved within MaxStacks. Float keys do not survive
	// JSON encoding; the API layer flattens this into a list.
	Attained map[float64]int `json:"-"`
}

// Analyzer sizes a battery by re-running the dispatch simulation with
// increasing stack counts.
type Analyzer struct {
	engine *dispatch.Engine
	log    *slog.Logger
}

func NewAnalyzer(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{engine: dispatch.New(logger), log: logger}
}

// Analyze runs the sweep. base supplies every battery parameter except
// capacity, which is derived from the stack count per iteration. The
// zero-capacity baseline run defines the coverage denominator. Any
// error from an inner run aborts the sweep immediately.
func (a *Analyzer) Analyze(samples []model.TimeSeriesSample, base model.BatteryParams, targets []float64, maxStacks int) (*SweepResult, error) {
	if maxStacks < 1 {
		return nil, fmt.Errorf("max stacks must be >= 1, got %d", maxStacks)
	}

	baselineUnmet, err := a.runUnmet(samples, base.ParamsForStacks(0))
	if err != nil {
		return nil, fmt.Errorf("baseline run: %w", err)
	}

	res := &SweepResult{
		BaselineUnmetKWh: baselineUnmet,
		Stacks:           make([]StackResult, 0, maxStacks),
		Attained:         make(map[float64]int),
	}

	remaining := make([]float64, len(targets))
	copy(remaining, targets)

	prevCoverage := 0.0
	for stacks := 1; stacks <= maxStacks; stacks++ {
		unmet, err := a.runUnmet(samples, base.ParamsForStacks(stacks))
		if err != nil {
			return nil, fmt.Errorf("stack count %d: %w", stacks, err)
		}

		covered := baselineUnmet - unmet
		coverage := 100.0
		if baselineUnmet > 0 {
			coverage = covered / baselineUnmet * 100
		}

		row := StackResult{
			StackCount:     stacks,
			CapacityKWh:    float64(stacks) * model.StackCapacityKWh,
			UnmetLoadKWh:   unmet,
			CoveredKWh:     covered,
			CoveragePct:    coverage,
			IncrementalPct: coverage - prevCoverage,
		}
		res.Stacks = append(res.Stacks, row)
		prevCoverage = coverage

		// Coverage is not guaranteed monotone, so every still-open
		// target is checked at every stack count.
		remaining = res.markAttained(remaining, coverage, stacks)

		if unmet <= FullCoverageEpsilonKWh {
			a.log.Info("full coverage reached, stopping sweep",
				"stack_count", stacks, "unmet_kwh", unmet)
			for _, t := range remaining {
				res.Attained[t] = stacks
			}
			break
		}
	}

	return res, nil
}

func (r *SweepResult) markAttained(remaining []float64, coverage float64, stacks int) []float64 {
	open := remaining[:0]
	for _, t := range remaining {
		if coverage >= t {
			r.Attained[t] = stacks
		} else {
			open = append(open, t)
		}
	}
	return open
}

func (a *Analyzer) runUnmet(samples []model.TimeSeriesSample, params model.BatteryParams) (float64, error) {
	batt, err := model.NewBattery(params)
	if err != nil {
		return 0, err
	}
	res, err := a.engine.Run(samples, batt, dispatch.RunOptions{})
	if err != nil {
		return 0, err
	}
	return res.Summary.TotalUnmetLoadKWh, nil
}
