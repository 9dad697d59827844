package model

// Action is a human-friendly operating mode for a timestep.
// Keep these values stable; they are intended for CSV output.
type Action string

const (
	ActionCharging    Action = "CHARGING"
	ActionIdle        Action = "IDLE"
	ActionDischarging Action = "DISCHARGING"
)

func ActionFromFlows(f StepFlows) Action {
	switch {
	case f.ChargeKWh > 0:
		return ActionCharging
	case f.DischargeKWh > 0:
		return ActionDischarging
	default:
		return ActionIdle
	}
}
