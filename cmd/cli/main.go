package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"solar-dispatch/internal/config"
	"solar-dispatch/internal/data"
	"solar-dispatch/internal/dispatch"
	"solar-dispatch/internal/model"
	"solar-dispatch/internal/recommend"
	"solar-dispatch/internal/sizing"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "simulate":
		cmdSimulate(os.Args[2:])
	case "sweep":
		cmdSweep(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli simulate --data load_production.csv --config examples/config.yaml --out results/trace.csv")
	fmt.Println("  cli sweep --data load_production.csv --config examples/config.yaml")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - simulate replays the series through the battery and prints summary + recommendations")
	fmt.Println("  - sweep re-runs with increasing stack counts to size the battery for coverage targets")
}

func cmdSimulate(args []string) {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	dataPath := fs.String("data", "", "Path to time-series CSV or JSON")
	cfgPath := fs.String("config", "", "Path to YAML config")
	outPath := fs.String("out", "", "Optional path to write the trace CSV")
	n := fs.Int("n", 0, "Optional: limit to first N steps (0=all)")
	_ = fs.Parse(args)

	cfg, samples := loadInputs(*cfgPath, *dataPath)
	if *n > 0 && *n < len(samples) {
		samples = samples[:*n]
	}

	batt, err := model.NewBattery(cfg.Battery.ToModelParams())
	if err != nil {
		fatal(err)
	}

	engine := dispatch.New(slog.Default())
	result, err := engine.Run(samples, batt, dispatch.RunOptions{
		StepDelay: time.Duration(cfg.Simulation.StepDelayMs) * time.Millisecond,
	})
	if err != nil {
		fatal(err)
	}

	printSummary(result.Summary)
	printRecommendation(recommend.Recommend(result.Trace))

	if *outPath != "" {
		if err := dispatch.WriteTraceCSV(*outPath, result.Trace); err != nil {
			fatal(err)
		}
		fmt.Printf("\nwrote trace: %s (%d rows)\n", *outPath, len(result.Trace))
	}
}

func cmdSweep(args []string) {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	dataPath := fs.String("data", "", "Path to time-series CSV or JSON")
	cfgPath := fs.String("config", "", "Path to YAML config")
	_ = fs.Parse(args)

	cfg, samples := loadInputs(*cfgPath, *dataPath)
	if len(cfg.Sweep.TargetCoveragePcts) == 0 {
		fmt.Println("config has no sweep.targets")
		os.Exit(2)
	}

	analyzer := sizing.NewAnalyzer(slog.Default())
	result, err := analyzer.Analyze(samples, cfg.Battery.ToModelParams(), cfg.Sweep.TargetCoveragePcts, cfg.Sweep.MaxStacks)
	if err != nil {
		fatal(err)
	}

	fmt.Printf("baseline unmet load: %.1f kWh\n\n", result.BaselineUnmetKWh)
	fmt.Println("stacks  capacity_kwh  covered_kwh  coverage_pct  incremental_pct")
	for _, row := range result.Stacks {
		fmt.Printf("%6d  %12.1f  %11.1f  %12.1f  %15.1f\n",
			row.StackCount, row.CapacityKWh, row.CoveredKWh, row.CoveragePct, row.IncrementalPct)
	}

	fmt.Println()
	targets := make([]float64, len(cfg.Sweep.TargetCoveragePcts))
	copy(targets, cfg.Sweep.TargetCoveragePcts)
	sort.Float64s(targets)
	for _, t := range targets {
		if stacks, ok := result.Attained[t]; ok {
			fmt.Printf("%.0f%% coverage: %d stacks (%.1f kWh)\n",
				t, stacks, float64(stacks)*model.StackCapacityKWh)
		} else {
			fmt.Printf("%.0f%% coverage: not achieved within %d stacks\n", t, cfg.Sweep.MaxStacks)
		}
	}
}

func loadInputs(cfgPath, dataPath string) (*config.Config, []model.TimeSeriesSample) {
	if cfgPath == "" {
		fmt.Println("--config is required")
		os.Exit(2)
	}
	if dataPath == "" {
		fmt.Println("--data is required")
		os.Exit(2)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatal(err)
	}

	samples, report, err := data.LoadSamples(dataPath, slog.Default())
	if err != nil {
		fatal(err)
	}
	if report.CoercedPowers > 0 || report.BadIntervals > 0 {
		fmt.Printf("data quality: %d coerced readings, %d bad intervals out of %d rows\n",
			report.CoercedPowers, report.BadIntervals, report.Rows)
	}
	return cfg, samples
}

func printSummary(s dispatch.Summary) {
	fmt.Printf("steps:              %d\n", s.Steps)
	fmt.Printf("final soc:          %.2f kWh (%.1f%% of usable range)\n", s.FinalSoCKWh, s.FinalSoCPct)
	fmt.Printf("total load:         %.1f kWh\n", s.TotalLoadKWh)
	fmt.Printf("total production:   %.1f kWh\n", s.TotalProductionKWh)
	fmt.Printf("unmet load (grid):  %.1f kWh\n", s.TotalUnmetLoadKWh)
	fmt.Printf("exported:           %.1f kWh\n", s.TotalExportedKWh)
	fmt.Printf("stored surplus:     %.1f kWh\n", s.CumulativeSurplusKWh)
	fmt.Printf("full-battery steps: %d\n", s.FullBatterySteps)
}

func printRecommendation(rec recommend.Recommendation) {
	fmt.Println()
	if rec.BestChargeHour != nil {
		fmt.Printf("best charge hour:      %02d:00 (%.1f kWh potential)\n",
			rec.BestChargeHour.Hour, rec.BestChargeHour.KWh)
	} else {
		fmt.Println("best charge hour:      no hour qualifies")
	}
	if rec.BestDischargeHour != nil {
		fmt.Printf("best discharge hour:   %02d:00 (%.1f kWh unmet)\n",
			rec.BestDischargeHour.Hour, rec.BestDischargeHour.KWh)
	} else {
		fmt.Println("best discharge hour:   no hour qualifies")
	}
	if rec.GridChargeHour != nil {
		fmt.Printf("grid charge hour:      %02d:00 (%.1f kWh unmet)\n",
			rec.GridChargeHour.Hour, rec.GridChargeHour.KWh)
	}
	if rec.BatteryDischargeHour != nil {
		fmt.Printf("battery discharge hour: %02d:00 (%.1f kWh exported)\n",
			rec.BatteryDischargeHour.Hour, rec.BatteryDischargeHour.KWh)
	}
	if len(rec.Daily) > 0 {
		fmt.Println("\ndate        unmet_kwh  exported_kwh")
		for _, d := range rec.Daily {
			fmt.Printf("%s  %9.1f  %12.1f\n", d.Date, d.UnmetLoadKWh, d.ExportedKWh)
		}
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
