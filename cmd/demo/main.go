package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"time"

	"solar-dispatch/internal/dispatch"
	"solar-dispatch/internal/model"
	"solar-dispatch/internal/recommend"
	"solar-dispatch/internal/sizing"
)

// Demo:
// - Generate a synthetic week of hourly load/PV readings
// - Run the dispatch simulation with a two-stack battery
// - Print the summary, recommendations and a small sizing sweep
func main() {
	days := flag.Int("days", 7, "Number of synthetic days to simulate")
	outCSV := flag.String("out", "", "Optional path to write the trace CSV")
	flag.Parse()

	samples := syntheticWeek(*days)

	params := model.BatteryParams{
		CapacityKWh:         2 * model.StackCapacityKWh,
		DepthOfDischargePct: 70,
		MaxChargeRateKW:     15,
		MaxDischargeRateKW:  15,
		ChargeEfficiency:    0.95,
		DischargeEfficiency: 0.95,
		InitialSoCPct:       30,
		PVSharePct:          100,
	}
	batt, err := model.NewBattery(params)
	if err != nil {
		panic(err)
	}

	engine := dispatch.New(slog.Default())
	result, err := engine.Run(samples, batt, dispatch.RunOptions{})
	if err != nil {
		panic(err)
	}

	fmt.Printf("simulated %d hourly steps over %d days\n", result.Summary.Steps, *days)
	fmt.Printf("unmet load: %.1f kWh, exported: %.1f kWh, final soc: %.1f kWh\n",
		result.Summary.TotalUnmetLoadKWh, result.Summary.TotalExportedKWh, result.Summary.FinalSoCKWh)

	rec := recommend.Recommend(result.Trace)
	if rec.BestChargeHour != nil {
		fmt.Printf("best charge hour: %02d:00 (%.1f kWh potential)\n",
			rec.BestChargeHour.Hour, rec.BestChargeHour.KWh)
	}
	if rec.BestDischargeHour != nil {
		fmt.Printf("best discharge hour: %02d:00 (%.1f kWh unmet)\n",
			rec.BestDischargeHour.Hour, rec.BestDischargeHour.KWh)
	}

	analyzer := sizing.NewAnalyzer(slog.Default())
	sweep, err := analyzer.Analyze(samples, params, []float64{50, 80, 95}, 8)
	if err != nil {
		panic(err)
	}
	fmt.Printf("\nbaseline unmet: %.1f kWh\n", sweep.BaselineUnmetKWh)
	for _, row := range sweep.Stacks {
		fmt.Printf("  %d stacks -> %.1f%% coverage\n", row.StackCount, row.CoveragePct)
	}

	if *outCSV != "" {
		if err := dispatch.WriteTraceCSV(*outCSV, result.Trace); err != nil {
			panic(err)
		}
		fmt.Printf("\nwrote trace: %s\n", *outCSV)
	}
}

// syntheticWeek builds hourly samples: a morning/evening load profile
// against a midday solar bell curve.
func syntheticWeek(days int) []model.TimeSeriesSample {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	samples := make([]model.TimeSeriesSample, 0, days*24)

	for d := 0; d < days; d++ {
		for h := 0; h < 24; h++ {
			ts := start.AddDate(0, 0, d).Add(time.Duration(h) * time.Hour)

			// Load: 800W base, peaks around 07:00 and 20:00.
			load := 800.0
			load += 1500 * gauss(float64(h), 7, 2)
			load += 2200 * gauss(float64(h), 20, 2.5)

			// PV: bell curve peaking at 13:00, ~9kW peak.
			production := 9000 * gauss(float64(h), 13, 2.8)
			if h < 5 || h > 21 {
				production = 0
			}

			samples = append(samples, model.TimeSeriesSample{
				Timestamp:          ts,
				LoadPowerW:         load,
				ProductionPowerW:   production,
				IntervalLengthDays: 1.0 / 24,
			})
		}
	}
	return samples
}

func gauss(x, mean, sigma float64) float64 {
	d := (x - mean) / sigma
	return math.Exp(-0.5 * d * d)
}
