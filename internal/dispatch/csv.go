package dispatch

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

func WriteTraceCSV(path string, trace []StepResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"index",
		"timestamp",
		"action",
		"load_kwh",
		"production_kwh",
		"soc_start_kwh",
		"soc_end_kwh",
		"charge_kwh",
		"discharge_kwh",
		"unmet_load_kwh",
		"exported_kwh",
		"running_total_unmet_kwh",
		"running_total_exported_kwh",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range trace {
		row := []string{
			strconv.Itoa(r.Index),
			fmtTime(r.Timestamp),
			string(r.Action),
			fmtFloat(r.LoadKWh),
			fmtFloat(r.ProductionKWh),
			fmtFloat(r.SoCStartKWh),
			fmtFloat(r.SoCEndKWh),
			fmtFloat(r.ChargeKWh),
			fmtFloat(r.DischargeKWh),
			fmtFloat(r.UnmetLoadKWh),
			fmtFloat(r.ExportedKWh),
			fmtFloat(r.RunningUnmetKWh),
			fmtFloat(r.RunningExportedKWh),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
