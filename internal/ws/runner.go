package ws

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"solar-dispatch/internal/dispatch"
	"solar-dispatch/internal/model"
	"solar-dispatch/internal/recommend"
)

// Runner drives one live dispatch run at a time, broadcasting each
// step to the hub. Pause/resume only gate the loop's pacing; the
// computed trace is identical to a batch run.
type Runner struct {
	hub    *Hub
	engine *dispatch.Engine
	log    *slog.Logger

	mu      sync.Mutex
	running bool
	paused  atomic.Bool
}

func NewRunner(hub *Hub, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		hub:    hub,
		engine: dispatch.New(logger),
		log:    logger,
	}
}

// Start launches a run in the background. Only one run is active at a
// time; starting while busy is an error.
func (r *Runner) Start(samples []model.TimeSeriesSample, batt *model.Battery, stepDelay time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return fmt.Errorf("a run is already in progress")
	}
	r.running = true
	r.paused.Store(false)

	go r.run(samples, batt, stepDelay)
	return nil
}

func (r *Runner) run(samples []model.TimeSeriesSample, batt *model.Battery, stepDelay time.Duration) {
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
		r.broadcastState()
	}()

	r.broadcastState()

	result, err := r.engine.Run(samples, batt, dispatch.RunOptions{
		Observer:  observerFunc(r.broadcastStep),
		Paused:    r.paused.Load,
		StepDelay: stepDelay,
	})
	if err != nil {
		r.broadcast(TypeRunError, RunErrorPayload{Message: err.Error()})
		return
	}

	r.broadcast(TypeRunDone, RunDonePayload{
		Summary:        result.Summary,
		Recommendation: recommend.Recommend(result.Trace),
	})
}

func (r *Runner) Pause()  { r.paused.Store(true); r.broadcastState() }
func (r *Runner) Resume() { r.paused.Store(false); r.broadcastState() }

func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Runner) broadcastStep(step dispatch.StepResult) {
	r.broadcast(TypeStep, step)
}

func (r *Runner) broadcastState() {
	r.broadcast(TypeRunState, RunStatePayload{
		Running: r.Running(),
		Paused:  r.paused.Load(),
	})
}

func (r *Runner) broadcast(msgType string, payload any) {
	msg, err := NewEnvelope(msgType, payload)
	if err != nil {
		r.log.Warn("failed to encode message", "type", msgType, "error", err)
		return
	}
	r.hub.Broadcast(msg)
}

// observerFunc adapts a function to dispatch.Observer.
type observerFunc func(dispatch.StepResult)

func (f observerFunc) OnStep(step dispatch.StepResult) { f(step) }
