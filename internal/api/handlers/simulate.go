package handlers

import (
	"errors"
	"net/http"

	"solar-dispatch/internal/api/models"
	"solar-dispatch/internal/data"
	"solar-dispatch/internal/dispatch"
	"solar-dispatch/internal/model"
	"solar-dispatch/internal/recommend"

	"github.com/gin-gonic/gin"
)

// SimulateHandler handles dispatch-simulation requests
type SimulateHandler struct {
	deps *Deps
}

// NewSimulateHandler creates a new simulate handler
func NewSimulateHandler(deps *Deps) *SimulateHandler {
	return &SimulateHandler{deps: deps}
}

// RunSimulation handles POST /api/v1/simulate
func (h *SimulateHandler) RunSimulation(c *gin.Context) {
	var req models.SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorJSON("INVALID_REQUEST", err.Error()))
		return
	}

	samples, report, err := h.loadSamples(req.DataSource)
	if err != nil {
		status, code := classifyDataError(err)
		c.JSON(status, errorJSON(code, err.Error()))
		return
	}

	if req.Options.LimitSteps > 0 && req.Options.LimitSteps < len(samples) {
		samples = samples[:req.Options.LimitSteps]
	}

	params, err := h.deps.buildParams(req.BatteryID, req.Battery)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorJSON("INVALID_BATTERY", err.Error()))
		return
	}
	batt, err := model.NewBattery(params)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorJSON("INVALID_BATTERY", err.Error()))
		return
	}

	engine := dispatch.New(h.deps.Log)
	result, err := engine.Run(samples, batt, dispatch.RunOptions{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorJSON("SIMULATION_ERROR", err.Error()))
		return
	}

	resp := models.SimulateResponse{
		Status:         "completed",
		Summary:        result.Summary,
		Recommendation: recommend.Recommend(result.Trace),
		LoadReport:     report,
	}
	if req.Options.IncludeTrace {
		resp.Trace = result.Trace
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SimulateHandler) loadSamples(src models.DataSourceConfig) ([]model.TimeSeriesSample, *data.LoadReport, error) {
	path, err := h.deps.resolveDataset(src.Dataset)
	if err != nil {
		return nil, nil, err
	}
	return h.deps.Cache.Load(path, h.deps.Log)
}

// classifyDataError maps loader failures onto HTTP status + error code.
func classifyDataError(err error) (int, string) {
	var inputErr *data.InputError
	if errors.As(err, &inputErr) {
		return http.StatusUnprocessableEntity, "INVALID_INPUT_DATA"
	}
	return http.StatusBadRequest, "DATA_LOAD_ERROR"
}
