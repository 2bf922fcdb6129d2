package handlers

import (
	"net/http"

	"lotsizing/internal/analysis"
	"lotsizing/internal/api/models"

	"github.com/gin-gonic/gin"
)

// Aggregate handles POST /api/v1/aggregate
func Aggregate(c *gin.Context) {
	var req models.AggregateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	groups, err := analysis.Aggregate(req.Records, analysis.AggregateOptions{
		Pattern:   req.Pattern,
		Precision: req.Precision,
	})
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_PATTERN", err.Error(), nil)
		return
	}
	c.JSON(http.StatusOK, models.AggregateResponse{Averages: groups})
}
