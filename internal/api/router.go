// Package api wires the HTTP handlers into a gin engine.
package api

import (
	"net/http"

	"lotsizing/internal/api/handlers"
	"lotsizing/internal/api/middleware"
	"lotsizing/internal/config"
	"lotsizing/internal/data"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the API engine. cfg supplies solver, parser and limit
// defaults; cache holds uploaded instances.
func NewRouter(cfg *config.Config, cache *data.InstanceCache) *gin.Engine {
	router := gin.New()
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	instanceHandler := handlers.NewInstanceHandler(cache, cfg)
	solveHandler := handlers.NewSolveHandler(cache, cfg)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "cached_instances": cache.Len()})
	})

	api := router.Group("/api/v1")
	{
		api.GET("/solvers", handlers.ListSolvers(cfg))

		api.POST("/instances", instanceHandler.CreateInstance)
		api.DELETE("/instances", instanceHandler.ClearInstances)
		api.GET("/instances/:id", instanceHandler.GetInstance)
		api.GET("/instances/:id/formulation", instanceHandler.GetFormulation)
		api.GET("/instances/:id/lp", instanceHandler.GetLP)
		api.POST("/instances/:id/solve", solveHandler.SolveInstance)

		api.POST("/solve", solveHandler.Solve)
		api.POST("/aggregate", handlers.Aggregate)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})
	return router
}
