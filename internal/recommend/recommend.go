package recommend

import (
	"sort"

	"solar-dispatch/internal/dispatch"
)

// QualifyingHourKWh is the minimum aggregate energy an hour-of-day must
// carry before it is suggested as a charge or discharge window.
const QualifyingHourKWh = 5.0

// HourPick is an hour-of-day (0-23) with its aggregate energy.
type HourPick struct {
	Hour int     `json:"hour"`
	KWh  float64 `json:"kwh"`
}

// DayTotals are the per-calendar-day unmet and exported sums.
type DayTotals struct {
	Date         string  `json:"date"` // YYYY-MM-DD in the trace's own timezone
	UnmetLoadKWh float64 `json:"unmet_load_kwh"`
	ExportedKWh  float64 `json:"exported_kwh"`
}

// Recommendation is derived from a dispatch trace. Hour picks are nil
// when no hour qualifies (or the trace is empty); that is not an error.
type Recommendation struct {
	// BestChargeHour is the hour-of-day with the largest aggregate
	// charging potential (surplus production), if any hour clears the
	// qualifying threshold.
	BestChargeHour *HourPick `json:"best_charge_hour,omitempty"`

	// BestDischargeHour is the symmetric pick over unmet load.
	BestDischargeHour *HourPick `json:"best_discharge_hour,omitempty"`

	// GridChargeHour is the hour with the greatest aggregate unmet
	// load, with no threshold applied.
	GridChargeHour *HourPick `json:"grid_charge_hour,omitempty"`

	// BatteryDischargeHour is the hour with the greatest aggregate
	// exported energy, with no threshold applied.
	BatteryDischargeHour *HourPick `json:"battery_discharge_hour,omitempty"`

	Daily []DayTotals `json:"daily"`
}

// Recommend post-processes a dispatch trace into actionable hours and
// daily energy summaries. An empty trace yields an empty
// Recommendation.
func Recommend(trace []dispatch.StepResult) Recommendation {
	var rec Recommendation
	if len(trace) == 0 {
		return rec
	}

	var potentialByHour, unmetByHour, exportedByHour [24]float64
	daily := map[string]*DayTotals{}

	for _, row := range trace {
		h := row.Timestamp.Hour()

		// Charging potential: surplus of this system's production over
		// load, floored at zero per step.
		if surplus := row.ProductionKWh - row.LoadKWh; surplus > 0 {
			potentialByHour[h] += surplus
		}
		unmetByHour[h] += row.UnmetLoadKWh
		exportedByHour[h] += row.ExportedKWh

		day := row.Timestamp.Format("2006-01-02")
		d, ok := daily[day]
		if !ok {
			d = &DayTotals{Date: day}
			daily[day] = d
		}
		d.UnmetLoadKWh += row.UnmetLoadKWh
		d.ExportedKWh += row.ExportedKWh
	}

	rec.BestChargeHour = pickHour(potentialByHour, QualifyingHourKWh)
	rec.BestDischargeHour = pickHour(unmetByHour, QualifyingHourKWh)
	rec.GridChargeHour = pickHour(unmetByHour, 0)
	rec.BatteryDischargeHour = pickHour(exportedByHour, 0)

	rec.Daily = make([]DayTotals, 0, len(daily))
	for _, d := range daily {
		rec.Daily = append(rec.Daily, *d)
	}
	sort.Slice(rec.Daily, func(i, j int) bool {
		return rec.Daily[i].Date < rec.Daily[j].Date
	})
	return rec
}

// pickHour is a stable argmax over hours 0..23: ties go to the lowest
// hour. Hours below minKWh do not qualify; a zero minKWh always yields
// a pick (hour 0 when all buckets are zero).
func pickHour(byHour [24]float64, minKWh float64) *HourPick {
	best := -1
	for h, kwh := range byHour {
		if kwh < minKWh {
			continue
		}
		if best == -1 || kwh > byHour[best] {
			best = h
		}
	}
	if best == -1 {
		return nil
	}
	return &HourPick{Hour: best, KWh: byHour[best]}
}
