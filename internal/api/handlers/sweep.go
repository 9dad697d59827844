package handlers

import (
	"net/http"
	"sort"

	"solar-dispatch/internal/api/models"
	"solar-dispatch/internal/sizing"

	"github.com/gin-gonic/gin"
)

// SweepHandler handles stack-sizing requests
type SweepHandler struct {
	deps *Deps
}

// NewSweepHandler creates a new sweep handler
func NewSweepHandler(deps *Deps) *SweepHandler {
	return &SweepHandler{deps: deps}
}

const defaultMaxStacks = 10

// RunSweep handles POST /api/v1/sweep
func (h *SweepHandler) RunSweep(c *gin.Context) {
	var req models.SweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorJSON("INVALID_REQUEST", err.Error()))
		return
	}
	for _, t := range req.TargetCoveragePcts {
		if t <= 0 || t > 100 {
			c.JSON(http.StatusBadRequest, errorJSON("INVALID_REQUEST", "targets must be in (0, 100]"))
			return
		}
	}

	path, err := h.deps.resolveDataset(req.DataSource.Dataset)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorJSON("DATA_LOAD_ERROR", err.Error()))
		return
	}
	samples, _, err := h.deps.Cache.Load(path, h.deps.Log)
	if err != nil {
		status, code := classifyDataError(err)
		c.JSON(status, errorJSON(code, err.Error()))
		return
	}

	params, err := h.deps.buildParams(req.BatteryID, req.Battery)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorJSON("INVALID_BATTERY", err.Error()))
		return
	}

	maxStacks := req.MaxStacks
	if maxStacks <= 0 {
		maxStacks = defaultMaxStacks
	}

	analyzer := sizing.NewAnalyzer(h.deps.Log)
	result, err := analyzer.Analyze(samples, params, req.TargetCoveragePcts, maxStacks)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorJSON("SWEEP_ERROR", err.Error()))
		return
	}

	resp := models.SweepResponse{Status: "completed", Result: result}
	for target, stacks := range result.Attained {
		resp.Attained = append(resp.Attained, models.TargetAttainment{TargetPct: target, StackCount: stacks})
	}
	sort.Slice(resp.Attained, func(i, j int) bool {
		return resp.Attained[i].TargetPct < resp.Attained[j].TargetPct
	})
	for _, t := range req.TargetCoveragePcts {
		if _, ok := result.Attained[t]; !ok {
			resp.Unattained = append(resp.Unattained, t)
		}
	}
	c.JSON(http.StatusOK, resp)
}
