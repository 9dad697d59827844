package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"solar-dispatch/internal/model"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Optional: load battery parameters from a separate YAML (e.g.
	// examples/batteries/*.yaml). If both BatteryFile and Battery are
	// provided, Battery overrides BatteryFile field by field.
	BatteryFile string           `yaml:"battery_file"`
	Battery     BatteryConfig    `yaml:"battery"`
	Simulation  SimulationConfig `yaml:"simulation"`
	Sweep       SweepConfig      `yaml:"sweep"`
}

// BatteryConfig defines battery parameters as they appear in YAML.
// Efficiencies are percentages here; the model uses fractions.
type BatteryConfig struct {
	Name                   string  `yaml:"name" json:"name,omitempty"`
	Stacks                 int     `yaml:"stacks" json:"stacks"`
	DepthOfDischargePct    float64 `yaml:"depth_of_discharge_pct" json:"depth_of_discharge_pct,omitempty"`
	MaxChargeRateKW        float64 `yaml:"max_charge_rate_kw" json:"max_charge_rate_kw,omitempty"`
	MaxDischargeRateKW     float64 `yaml:"max_discharge_rate_kw" json:"max_discharge_rate_kw,omitempty"`
	ChargeEfficiencyPct    float64 `yaml:"charge_efficiency_pct" json:"charge_efficiency_pct,omitempty"`
	DischargeEfficiencyPct float64 `yaml:"discharge_efficiency_pct" json:"discharge_efficiency_pct,omitempty"`
	InitialSoCPct          float64 `yaml:"initial_soc_pct" json:"initial_soc_pct,omitempty"`
	PVSharePct             float64 `yaml:"pv_share_pct" json:"pv_share_pct,omitempty"`
}

type SimulationConfig struct {
	// StepDelayMs is a cosmetic per-step delay for live-progress UIs.
	// It has no effect on computed results.
	StepDelayMs int `yaml:"step_delay_ms"`
}

type SweepConfig struct {
	TargetCoveragePcts []float64 `yaml:"targets"`
	MaxStacks          int       `yaml:"max_stacks"`
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not default or
// validate it. Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	// If battery_file is set, load it and merge in any explicit
	// overrides from c.Battery.
	if c.BatteryFile != "" {
		batteryPath := c.BatteryFile
		if !filepath.IsAbs(batteryPath) {
			// Prefer interpreting relative paths as relative to the
			// config file directory, falling back to the cwd.
			cand := filepath.Join(filepath.Dir(path), batteryPath)
			if _, err := os.Stat(cand); err == nil {
				batteryPath = cand
			}
		}
		loaded, err := LoadBatteryFile(batteryPath)
		if err != nil {
			return nil, err
		}
		c.Battery = MergeBattery(loaded, c.Battery)
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	c.Battery = c.Battery.WithDefaults()
	if c.Sweep.MaxStacks == 0 {
		c.Sweep.MaxStacks = 10
	}
}

// WithDefaults fills unset battery fields: depth of discharge 70%, the
// whole production stream, and a starting charge at the
// depth-of-discharge floor (so energy delivered is explainable purely
// by energy stored).
func (b BatteryConfig) WithDefaults() BatteryConfig {
	if b.DepthOfDischargePct == 0 {
		b.DepthOfDischargePct = 70
	}
	if b.PVSharePct == 0 {
		b.PVSharePct = 100
	}
	if b.InitialSoCPct == 0 {
		b.InitialSoCPct = 100 - b.DepthOfDischargePct
	}
	return b
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Battery.Stacks < 0 {
		return errors.New("battery.stacks must be >= 0")
	}
	if c.Simulation.StepDelayMs < 0 {
		return errors.New("simulation.step_delay_ms must be >= 0")
	}
	for _, t := range c.Sweep.TargetCoveragePcts {
		if t <= 0 || t > 100 {
			return fmt.Errorf("sweep target %v must be in (0, 100]", t)
		}
	}
	// Validate battery params by constructing a model.Battery.
	if _, err := model.NewBattery(c.Battery.ToModelParams()); err != nil {
		return fmt.Errorf("battery config invalid: %w", err)
	}
	return nil
}

func (b BatteryConfig) ToModelParams() model.BatteryParams {
	return model.BatteryParams{
		CapacityKWh:         float64(b.Stacks) * model.StackCapacityKWh,
		DepthOfDischargePct: b.DepthOfDischargePct,
		MaxChargeRateKW:     b.MaxChargeRateKW,
		MaxDischargeRateKW:  b.MaxDischargeRateKW,
		ChargeEfficiency:    b.ChargeEfficiencyPct / 100,
		DischargeEfficiency: b.DischargeEfficiencyPct / 100,
		InitialSoCPct:       b.InitialSoCPct,
		PVSharePct:          b.PVSharePct,
	}
}

type batteryFileWrapper struct {
	Battery BatteryConfig `yaml:"battery"`
}

// LoadBatteryFile reads a standalone battery preset YAML.
func LoadBatteryFile(path string) (BatteryConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return BatteryConfig{}, err
	}
	var w batteryFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return BatteryConfig{}, err
	}
	return w.Battery, nil
}

// MergeBattery overlays non-zero fields from override onto base.
// Used when loading a battery preset file and then applying overrides
// from the main config or an API request.
func MergeBattery(base, override BatteryConfig) BatteryConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.Stacks != 0 {
		out.Stacks = override.Stacks
	}
	if override.DepthOfDischargePct != 0 {
		out.DepthOfDischargePct = override.DepthOfDischargePct
	}
	if override.MaxChargeRateKW != 0 {
		out.MaxChargeRateKW = override.MaxChargeRateKW
	}
	if override.MaxDischargeRateKW != 0 {
		out.MaxDischargeRateKW = override.MaxDischargeRateKW
	}
	if override.ChargeEfficiencyPct != 0 {
		out.ChargeEfficiencyPct = override.ChargeEfficiencyPct
	}
	if override.DischargeEfficiencyPct != 0 {
		out.DischargeEfficiencyPct = override.DischargeEfficiencyPct
	}
	if override.InitialSoCPct != 0 {
		out.InitialSoCPct = override.InitialSoCPct
	}
	if override.PVSharePct != 0 {
		out.PVSharePct = override.PVSharePct
	}
	return out
}
