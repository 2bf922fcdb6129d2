package handlers

import (
	"net/http"

	"lotsizing/internal/api/models"
	"lotsizing/internal/config"
	"lotsizing/internal/solver"

	"github.com/gin-gonic/gin"
)

// ListSolvers handles GET /api/v1/solvers
func ListSolvers(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		infos := solver.Available(cfg.SolverOptions())
		out := make([]models.SolverInfo, 0, len(infos))
		for _, info := range infos {
			out = append(out, models.SolverInfo{
				Name:        info.Name,
				Description: info.Description,
				Available:   info.Available,
			})
		}
		c.JSON(http.StatusOK, gin.H{"solvers": out, "default": cfg.Solver.Name})
	}
}
