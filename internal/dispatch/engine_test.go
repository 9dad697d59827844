package dispatch

import (
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solar-dispatch/internal/model"
)

var t0 = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func testEngine() *Engine {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testParams() model.BatteryParams {
	return model.BatteryParams{
		CapacityKWh:         10,
		DepthOfDischargePct: 100,
		MaxChargeRateKW:     100,
		MaxDischargeRateKW:  100,
		ChargeEfficiency:    1,
		DischargeEfficiency: 1,
		InitialSoCPct:       50,
		PVSharePct:          100,
	}
}

// hourly builds consecutive one-hour samples from (load, production)
// watt pairs.
func hourly(pairs ...[2]float64) []model.TimeSeriesSample {
	out := make([]model.TimeSeriesSample, len(pairs))
	for i, p := range pairs {
		out[i] = model.TimeSeriesSample{
			Timestamp:          t0.Add(time.Duration(i) * time.Hour),
			LoadPowerW:         p[0],
			ProductionPowerW:   p[1],
			IntervalLengthDays: 1.0 / 24,
		}
	}
	return out
}

func mustBattery(t *testing.T, p model.BatteryParams) *model.Battery {
	t.Helper()
	b, err := model.NewBattery(p)
	require.NoError(t, err)
	return b
}

func TestRun_NilBattery(t *testing.T) {
	_, err := testEngine().Run(nil, nil, RunOptions{})
	assert.Error(t, err)
}

func TestRun_InvalidConfigFailsBeforeLoop(t *testing.T) {
	p := testParams()
	batt := mustBattery(t, p)
	batt.Params.ChargeEfficiency = 1.5 // corrupt after construction

	_, err := testEngine().Run(hourly([2]float64{1000, 0}), batt, RunOptions{})
	require.Error(t, err)
	var cfgErr *model.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestRun_EmptyInput(t *testing.T) {
	batt := mustBattery(t, testParams())
	res, err := testEngine().Run(nil, batt, RunOptions{})
	require.NoError(t, err)
	assert.Empty(t, res.Trace)
	assert.Zero(t, res.Summary.TotalUnmetLoadKWh)
	assert.Zero(t, res.Summary.TotalExportedKWh)
	assert.Zero(t, res.Summary.Steps)
}

func TestRun_OneStepPerSampleInOrder(t *testing.T) {
	batt := mustBattery(t, testParams())
	samples := hourly([2]float64{1000, 0}, [2]float64{0, 5000}, [2]float64{2000, 1000})

	res, err := testEngine().Run(samples, batt, RunOptions{})
	require.NoError(t, err)
	require.Len(t, res.Trace, 3)
	for i, row := range res.Trace {
		assert.Equal(t, i, row.Index)
		assert.Equal(t, samples[i].Timestamp, row.Timestamp)
	}
}

func TestRun_EnergyConservationAtUnitEfficiency(t *testing.T) {
	batt := mustBattery(t, testParams())
	samples := hourly(
		[2]float64{1000, 0},
		[2]float64{0, 8000},
		[2]float64{3000, 500},
		[2]float64{0, 12000},
		[2]float64{6000, 0},
	)

	res, err := testEngine().Run(samples, batt, RunOptions{})
	require.NoError(t, err)
	for _, row := range res.Trace {
		assert.InDelta(t, row.ChargeKWh-row.DischargeKWh, row.SoCEndKWh-row.SoCStartKWh, 1e-9,
			"step %d", row.Index)
	}
}

func TestRun_Idempotent(t *testing.T) {
	params := testParams()
	params.ChargeEfficiency = 0.93
	params.DischargeEfficiency = 0.91
	samples := hourly(
		[2]float64{1200, 0},
		[2]float64{400, 7000},
		[2]float64{2500, 300},
		[2]float64{100, 9000},
	)

	a, err := testEngine().Run(samples, mustBattery(t, params), RunOptions{})
	require.NoError(t, err)
	b, err := testEngine().Run(samples, mustBattery(t, params), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRun_DoesNotMutateCallerBattery(t *testing.T) {
	batt := mustBattery(t, testParams())
	before := batt.State.SoCKWh

	_, err := testEngine().Run(hourly([2]float64{5000, 0}), batt, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, before, batt.State.SoCKWh)
}

func TestRun_RunningTotalsMonotone(t *testing.T) {
	batt := mustBattery(t, testParams())
	samples := hourly(
		[2]float64{4000, 0},
		[2]float64{0, 20000},
		[2]float64{8000, 0},
		[2]float64{0, 30000},
		[2]float64{2000, 2000},
	)

	res, err := testEngine().Run(samples, batt, RunOptions{})
	require.NoError(t, err)
	prevUnmet, prevExported := 0.0, 0.0
	for _, row := range res.Trace {
		assert.GreaterOrEqual(t, row.RunningUnmetKWh, prevUnmet)
		assert.GreaterOrEqual(t, row.RunningExportedKWh, prevExported)
		prevUnmet = row.RunningUnmetKWh
		prevExported = row.RunningExportedKWh
	}
	assert.InDelta(t, prevUnmet, res.Summary.TotalUnmetLoadKWh, 1e-9)
	assert.InDelta(t, prevExported, res.Summary.TotalExportedKWh, 1e-9)
}

func TestRun_OutOfOrderSamplesResorted(t *testing.T) {
	batt := mustBattery(t, testParams())
	samples := hourly([2]float64{1000, 0}, [2]float64{2000, 0}, [2]float64{3000, 0})
	shuffled := []model.TimeSeriesSample{samples[2], samples[0], samples[1]}

	want, err := testEngine().Run(samples, mustBattery(t, testParams()), RunOptions{})
	require.NoError(t, err)
	got, err := testEngine().Run(shuffled, batt, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// The caller's slice must stay in its original order.
	assert.Equal(t, samples[2].Timestamp, shuffled[0].Timestamp)
}

func TestRun_NonPositiveIntervalPreservesState(t *testing.T) {
	batt := mustBattery(t, testParams())
	samples := hourly([2]float64{0, 5000}, [2]float64{3000, 0})
	samples[1].IntervalLengthDays = 0

	res, err := testEngine().Run(samples, batt, RunOptions{})
	require.NoError(t, err)
	require.Len(t, res.Trace, 2)

	row := res.Trace[1]
	assert.Equal(t, row.SoCStartKWh, row.SoCEndKWh)
	assert.Zero(t, row.ChargeKWh)
	assert.Zero(t, row.DischargeKWh)
	assert.Zero(t, row.UnmetLoadKWh)
	assert.Equal(t, model.ActionIdle, row.Action)
}

func TestRun_NaNReadingIsZeroFlow(t *testing.T) {
	batt := mustBattery(t, testParams())
	samples := hourly([2]float64{1000, 0}, [2]float64{1000, 0})
	samples[1].LoadPowerW = math.NaN()

	res, err := testEngine().Run(samples, batt, RunOptions{})
	require.NoError(t, err)
	row := res.Trace[1]
	assert.Equal(t, row.SoCStartKWh, row.SoCEndKWh)
	assert.Zero(t, row.UnmetLoadKWh)
	assert.Zero(t, row.LoadKWh)
}

func TestRun_PVShareScalesProduction(t *testing.T) {
	params := testParams()
	params.PVSharePct = 25
	batt := mustBattery(t, params)

	res, err := testEngine().Run(hourly([2]float64{0, 8000}), batt, RunOptions{})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, res.Trace[0].ProductionKWh, 1e-9)
}

func TestRun_ZeroCapacityUnmetEqualsLoad(t *testing.T) {
	params := testParams()
	params.CapacityKWh = 0
	batt := mustBattery(t, params)
	samples := hourly([2]float64{1500, 0}, [2]float64{2500, 0})

	res, err := testEngine().Run(samples, batt, RunOptions{})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, res.Trace[0].UnmetLoadKWh, 1e-9)
	assert.InDelta(t, 2.5, res.Trace[1].UnmetLoadKWh, 1e-9)
	assert.InDelta(t, 4.0, res.Summary.TotalUnmetLoadKWh, 1e-9)
}

func TestRun_FullBatteryStepsCounted(t *testing.T) {
	params := testParams()
	params.InitialSoCPct = 100
	batt := mustBattery(t, params)
	samples := hourly([2]float64{0, 5000}, [2]float64{0, 5000}, [2]float64{20000, 0})

	res, err := testEngine().Run(samples, batt, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Summary.FullBatterySteps)
}

type recordingObserver struct {
	steps []StepResult
}

func (o *recordingObserver) OnStep(step StepResult) { o.steps = append(o.steps, step) }

func TestRun_ObserverSeesEveryStep(t *testing.T) {
	batt := mustBattery(t, testParams())
	samples := hourly([2]float64{1000, 0}, [2]float64{0, 5000}, [2]float64{500, 500})

	obs := &recordingObserver{}
	res, err := testEngine().Run(samples, batt, RunOptions{Observer: obs})
	require.NoError(t, err)
	assert.Equal(t, res.Trace, obs.steps)
}

func TestRun_StepDelayDoesNotChangeResults(t *testing.T) {
	samples := hourly([2]float64{1000, 0}, [2]float64{0, 5000})

	plain, err := testEngine().Run(samples, mustBattery(t, testParams()), RunOptions{})
	require.NoError(t, err)
	delayed, err := testEngine().Run(samples, mustBattery(t, testParams()),
		RunOptions{StepDelay: time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, plain, delayed)
}

func TestRun_FinalSoCPctOfUsableRange(t *testing.T) {
	params := testParams()
	params.DepthOfDischargePct = 70 // usable 3..10 kWh
	params.InitialSoCPct = 100
	batt := mustBattery(t, params)

	// Discharge 3.5 kWh: soc 6.5, usable range position (6.5-3)/7.
	res, err := testEngine().Run(hourly([2]float64{3500, 0}), batt, RunOptions{})
	require.NoError(t, err)
	assert.InDelta(t, 6.5, res.Summary.FinalSoCKWh, 1e-9)
	assert.InDelta(t, 50.0, res.Summary.FinalSoCPct, 1e-9)
}
