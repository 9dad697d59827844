package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"solar-dispatch/internal/api/models"
	"solar-dispatch/internal/config"
	"solar-dispatch/internal/model"

	"github.com/gin-gonic/gin"
)

// BatteryHandler handles battery preset requests
type BatteryHandler struct {
	deps *Deps
}

// NewBatteryHandler creates a new battery handler
func NewBatteryHandler(deps *Deps) *BatteryHandler {
	return &BatteryHandler{deps: deps}
}

// ListBatteries handles GET /api/v1/batteries
func (h *BatteryHandler) ListBatteries(c *gin.Context) {
	batteries := []models.BatteryInfo{}

	entries, err := os.ReadDir(h.deps.BatteryDir)
	if err != nil {
		if !os.IsNotExist(err) {
			h.deps.Log.Warn("failed to read battery directory",
				"dir", h.deps.BatteryDir, "error", err)
		}
		c.JSON(http.StatusOK, gin.H{"batteries": batteries})
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(h.deps.BatteryDir, entry.Name())
		info, err := h.loadBatteryInfo(path, entry.Name())
		if err != nil {
			h.deps.Log.Warn("skipping invalid battery file", "path", path, "error", err)
			continue
		}
		batteries = append(batteries, *info)
	}

	c.JSON(http.StatusOK, gin.H{"batteries": batteries})
}

func (h *BatteryHandler) loadBatteryInfo(path, filename string) (*models.BatteryInfo, error) {
	preset, err := config.LoadBatteryFile(path)
	if err != nil {
		return nil, err
	}

	id := strings.TrimSuffix(filename, ".yaml")
	name := preset.Name
	if name == "" {
		name = id
	}

	return &models.BatteryInfo{
		ID:   id,
		Name: name,
		File: path,
		Specs: models.BatterySpecs{
			Stacks:             preset.Stacks,
			CapacityKWh:        float64(preset.Stacks) * model.StackCapacityKWh,
			MaxChargeRateKW:    preset.MaxChargeRateKW,
			MaxDischargeRateKW: preset.MaxDischargeRateKW,
		},
	}, nil
}
