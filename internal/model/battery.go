package model

import (
	"fmt"
	"math"
)

// StackCapacityKWh is the nameplate capacity of a single battery stack.
// Total capacity is always an integer multiple of this.
const StackCapacityKWh = 38.4

// BatteryParams defines the physical parameters of the storage system.
// Units:
// - CapacityKWh: kWh (stack count x StackCapacityKWh)
// - DepthOfDischargePct: percent of capacity that is usable, 0..100
// - Max rates: kW
// - Efficiencies: 0..1
// - InitialSoCPct: percent of total capacity, 0..100
// - PVSharePct: percent of reported production attributable to this
//   system (multi-system sites sharing one PV array), 0..100
type BatteryParams struct {
	CapacityKWh         float64
	DepthOfDischargePct float64
	MaxChargeRateKW     float64
	MaxDischargeRateKW  float64
	ChargeEfficiency    float64
	DischargeEfficiency float64
	InitialSoCPct       float64
	PVSharePct          float64
}

// ParamsForStacks returns a copy with capacity set from a stack count.
func (p BatteryParams) ParamsForStacks(stacks int) BatteryParams {
	out := p
	out.CapacityKWh = float64(stacks) * StackCapacityKWh
	return out
}

// MinUsableSoCKWh is the depth-of-discharge floor in absolute kWh.
func (p BatteryParams) MinUsableSoCKWh() float64 {
	return p.CapacityKWh * (1 - p.DepthOfDischargePct/100)
}

// MaxSoCKWh is the nameplate ceiling in absolute kWh.
func (p BatteryParams) MaxSoCKWh() float64 {
	return p.CapacityKWh
}

// ConfigError reports a battery parameter outside its physical range.
// It is raised before any simulation step executes.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("battery config: %s %s", e.Field, e.Reason)
}

func (p BatteryParams) Validate() error {
	if p.CapacityKWh < 0 || math.IsNaN(p.CapacityKWh) {
		return &ConfigError{"CapacityKWh", "must be >= 0"}
	}
	if p.DepthOfDischargePct <= 0 || p.DepthOfDischargePct > 100 {
		return &ConfigError{"DepthOfDischargePct", "must be in (0, 100]"}
	}
	if p.MaxChargeRateKW < 0 {
		return &ConfigError{"MaxChargeRateKW", "must be >= 0"}
	}
	if p.MaxDischargeRateKW < 0 {
		return &ConfigError{"MaxDischargeRateKW", "must be >= 0"}
	}
	if p.ChargeEfficiency <= 0 || p.ChargeEfficiency > 1 {
		return &ConfigError{"ChargeEfficiency", "must be in (0, 1]"}
	}
	if p.DischargeEfficiency <= 0 || p.DischargeEfficiency > 1 {
		return &ConfigError{"DischargeEfficiency", "must be in (0, 1]"}
	}
	if p.InitialSoCPct < 0 || p.InitialSoCPct > 100 {
		return &ConfigError{"InitialSoCPct", "must be in [0, 100]"}
	}
	if p.PVSharePct < 0 || p.PVSharePct > 100 {
		return &ConfigError{"PVSharePct", "must be in [0, 100]"}
	}
	return nil
}

// BatteryState captures mutable state.
type BatteryState struct {
	// SoCKWh is the current state of charge in absolute kWh,
	// always within [MinUsableSoCKWh, MaxSoCKWh].
	SoCKWh float64
}

// Battery bundles params + state.
type Battery struct {
	Params BatteryParams
	State  BatteryState
}

// NewBattery validates params and creates a battery at InitialSoCPct,
// clamped into the usable range.
func NewBattery(params BatteryParams) (*Battery, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	b := &Battery{Params: params}
	b.State.SoCKWh = b.clampSoC(params.CapacityKWh * params.InitialSoCPct / 100)
	return b, nil
}

// StepFlows captures what the battery did over one interval.
// All values are >= 0; at most one of ChargeKWh/DischargeKWh is nonzero.
type StepFlows struct {
	SoCStartKWh  float64
	SoCEndKWh    float64
	ChargeKWh    float64 // energy stored (post charge efficiency)
	DischargeKWh float64 // energy delivered to load (post discharge efficiency)
	UnmetLoadKWh float64 // deficit the battery could not cover
	ExportedKWh  float64 // raw surplus energy that did not fit
}

// Step advances the battery over one interval.
// loadKWh and productionKWh are this system's energies for the interval
// (production already scaled by the PV share); hours is the interval
// length. hours <= 0 is a state-preserving no-op.
func (b *Battery) Step(loadKWh, productionKWh, hours float64) StepFlows {
	f := StepFlows{SoCStartKWh: b.State.SoCKWh}
	if hours <= 0 {
		f.SoCEndKWh = b.State.SoCKWh
		return f
	}

	minSoC := b.Params.MinUsableSoCKWh()
	maxSoC := b.Params.MaxSoCKWh()

	surplus := productionKWh - loadKWh
	if surplus > 0 {
		potential := surplus * b.Params.ChargeEfficiency
		space := maxSoC - b.State.SoCKWh
		rateLimit := b.Params.MaxChargeRateKW * hours

		actual := math.Min(potential, math.Min(rateLimit, space))
		if actual < 0 {
			actual = 0
		}
		b.State.SoCKWh += actual
		f.ChargeKWh = actual
		// Undo the efficiency factor so exported reflects raw surplus
		// energy, not post-efficiency energy.
		f.ExportedKWh = math.Max(0, (potential-actual)/b.Params.ChargeEfficiency)
	} else if surplus < 0 {
		needed := loadKWh - productionKWh
		available := (b.State.SoCKWh - minSoC) * b.Params.DischargeEfficiency
		rateLimit := b.Params.MaxDischargeRateKW * hours

		delivered := math.Min(needed, math.Min(rateLimit, available))
		if delivered < 0 {
			delivered = 0
		}
		b.State.SoCKWh -= delivered / b.Params.DischargeEfficiency
		f.DischargeKWh = delivered
		f.UnmetLoadKWh = math.Max(0, needed-delivered)
	}

	b.State.SoCKWh = b.clampSoC(b.State.SoCKWh)
	f.SoCEndKWh = b.State.SoCKWh
	return f
}

// Full reports whether the battery is at (or above) its ceiling.
func (b *Battery) Full() bool {
	return b.State.SoCKWh >= b.Params.MaxSoCKWh()
}

func (b *Battery) clampSoC(soc float64) float64 {
	minSoC := b.Params.MinUsableSoCKWh()
	maxSoC := b.Params.MaxSoCKWh()
	if soc < minSoC {
		return minSoC
	}
	if soc > maxSoC {
		return maxSoC
	}
	return soc
}
