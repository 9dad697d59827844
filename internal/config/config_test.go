package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solar-dispatch/internal/model"
)

func writeYAML(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeYAML(t, t.TempDir(), "config.yaml", `
battery:
  stacks: 2
  max_charge_rate_kw: 5
  max_discharge_rate_kw: 5
  charge_efficiency_pct: 95
  discharge_efficiency_pct: 95
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 70.0, c.Battery.DepthOfDischargePct, 1e-9)
	assert.InDelta(t, 100.0, c.Battery.PVSharePct, 1e-9)
	assert.InDelta(t, 30.0, c.Battery.InitialSoCPct, 1e-9)
	assert.Equal(t, 10, c.Sweep.MaxStacks)
}

func TestLoad_InitialSoCDefaultsToFloor(t *testing.T) {
	path := writeYAML(t, t.TempDir(), "config.yaml", `
battery:
  stacks: 1
  depth_of_discharge_pct: 60
  max_charge_rate_kw: 5
  max_discharge_rate_kw: 5
  charge_efficiency_pct: 95
  discharge_efficiency_pct: 95
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 40.0, c.Battery.InitialSoCPct, 1e-9)
}

func TestLoad_BatteryFileMergedWithOverrides(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, "preset.yaml", `
battery:
  name: two-stack
  stacks: 2
  depth_of_discharge_pct: 80
  max_charge_rate_kw: 5
  max_discharge_rate_kw: 5
  charge_efficiency_pct: 95
  discharge_efficiency_pct: 95
`)
	path := writeYAML(t, dir, "config.yaml", `
battery_file: preset.yaml
battery:
  stacks: 3
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "two-stack", c.Battery.Name)
	assert.Equal(t, 3, c.Battery.Stacks)
	assert.InDelta(t, 80.0, c.Battery.DepthOfDischargePct, 1e-9)
}

func TestLoad_RejectsBadSweepTarget(t *testing.T) {
	path := writeYAML(t, t.TempDir(), "config.yaml", `
battery:
  stacks: 1
  max_charge_rate_kw: 5
  max_discharge_rate_kw: 5
  charge_efficiency_pct: 95
  discharge_efficiency_pct: 95
sweep:
  targets: [50, 101]
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsBadEfficiency(t *testing.T) {
	path := writeYAML(t, t.TempDir(), "config.yaml", `
battery:
  stacks: 1
  max_charge_rate_kw: 5
  max_discharge_rate_kw: 5
  charge_efficiency_pct: 120
  discharge_efficiency_pct: 95
`)

	_, err := Load(path)
	require.Error(t, err)
	var cfgErr *model.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestToModelParams(t *testing.T) {
	b := BatteryConfig{
		Stacks:                 2,
		DepthOfDischargePct:    70,
		MaxChargeRateKW:        6,
		MaxDischargeRateKW:     7,
		ChargeEfficiencyPct:    95,
		DischargeEfficiencyPct: 90,
		InitialSoCPct:          30,
		PVSharePct:             50,
	}

	p := b.ToModelParams()
	assert.InDelta(t, 2*model.StackCapacityKWh, p.CapacityKWh, 1e-9)
	assert.InDelta(t, 0.95, p.ChargeEfficiency, 1e-9)
	assert.InDelta(t, 0.90, p.DischargeEfficiency, 1e-9)
	assert.InDelta(t, 50.0, p.PVSharePct, 1e-9)
}

func TestMergeBattery_OnlyNonZeroFieldsOverride(t *testing.T) {
	base := BatteryConfig{
		Name:                   "base",
		Stacks:                 2,
		DepthOfDischargePct:    80,
		MaxChargeRateKW:        5,
		MaxDischargeRateKW:     5,
		ChargeEfficiencyPct:    95,
		DischargeEfficiencyPct: 95,
	}

	merged := MergeBattery(base, BatteryConfig{Stacks: 4, PVSharePct: 50})
	assert.Equal(t, "base", merged.Name)
	assert.Equal(t, 4, merged.Stacks)
	assert.InDelta(t, 80.0, merged.DepthOfDischargePct, 1e-9)
	assert.InDelta(t, 50.0, merged.PVSharePct, 1e-9)

	// A zero override changes nothing.
	assert.Equal(t, base, MergeBattery(base, BatteryConfig{}))
}
