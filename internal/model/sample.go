package model

import "time"

// TimeSeriesSample is one step of the input series: instantaneous power
// readings plus the length of the interval the sample represents.
//
// Power readings may be NaN when the source row could not be coerced to
// a number; the dispatch engine treats such steps as zero-flow.
type TimeSeriesSample struct {
	Timestamp          time.Time `json:"timestamp"`
	LoadPowerW         float64   `json:"load_power_w"`
	ProductionPowerW   float64   `json:"production_power_w"`
	IntervalLengthDays float64   `json:"interval_length_days"`
}

// IntervalHours converts the interval length to hours.
func (s TimeSeriesSample) IntervalHours() float64 {
	return s.IntervalLengthDays * 24
}

// LoadKWh is the load energy over the interval.
func (s TimeSeriesSample) LoadKWh() float64 {
	return s.LoadPowerW * 0.001 * s.IntervalHours()
}

// ProductionKWh is the total production energy over the interval,
// before applying any PV share.
func (s TimeSeriesSample) ProductionKWh() float64 {
	return s.ProductionPowerW * 0.001 * s.IntervalHours()
}
