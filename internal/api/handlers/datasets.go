package handlers

import (
	"net/http"

	"solar-dispatch/internal/data"

	"github.com/gin-gonic/gin"
)

// DatasetHandler handles dataset discovery requests
type DatasetHandler struct {
	deps *Deps
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(deps *Deps) *DatasetHandler {
	return &DatasetHandler{deps: deps}
}

// ListDatasets handles GET /api/v1/datasets
func (h *DatasetHandler) ListDatasets(c *gin.Context) {
	datasets, err := data.ListDatasets(h.deps.DataDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorJSON("DATASET_LIST_ERROR", err.Error()))
		return
	}
	if datasets == nil {
		datasets = []data.DatasetInfo{}
	}
	c.JSON(http.StatusOK, gin.H{"datasets": datasets})
}
