package ws

import (
	"encoding/json"

	"solar-dispatch/internal/config"
	"solar-dispatch/internal/dispatch"
	"solar-dispatch/internal/recommend"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message type constants
const (
	// Client -> Server
	TypeRunStart  = "run:start"
	TypeRunPause  = "run:pause"
	TypeRunResume = "run:resume"

	// Server -> Client
	TypeRunState = "run:state"
	TypeStep     = "run:step"
	TypeRunDone  = "run:done"
	TypeRunError = "run:error"
)

// Client -> Server payloads

type RunStartPayload struct {
	Dataset     string               `json:"dataset"`
	Battery     config.BatteryConfig `json:"battery"`
	BatteryID   string               `json:"battery_id,omitempty"`
	StepDelayMs int                  `json:"step_delay_ms,omitempty"`
}

// Server -> Client payloads

type RunStatePayload struct {
	Running bool `json:"running"`
	Paused  bool `json:"paused"`
}

type RunDonePayload struct {
	Summary        dispatch.Summary         `json:"summary"`
	Recommendation recommend.Recommendation `json:"recommendation"`
}

type RunErrorPayload struct {
	Message string `json:"message"`
}

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}
