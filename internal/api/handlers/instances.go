package handlers

import (
	"log"
	"net/http"

	"lotsizing/internal/api/models"
	"lotsizing/internal/config"
	"lotsizing/internal/data"
	"lotsizing/internal/formulation"

	"github.com/gin-gonic/gin"
)

// InstanceHandler handles instance upload and inspection requests
type InstanceHandler struct {
	cache *data.InstanceCache
	cfg   *config.Config
}

// NewInstanceHandler creates a new instance handler
func NewInstanceHandler(cache *data.InstanceCache, cfg *config.Config) *InstanceHandler {
	return &InstanceHandler{cache: cache, cfg: cfg}
}

// CreateInstance handles POST /api/v1/instances
func (h *InstanceHandler) CreateInstance(c *gin.Context) {
	var req models.CreateInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	entry, err := parseAndStore(h.cache, h.cfg, req.Name, req.Text, req.Parser)
	if err != nil {
		log.Printf("InstanceHandler: parse failed: %v", err)
		respondParseError(c, err)
		return
	}
	log.Printf("InstanceHandler: stored %s (%s, %dx%d)", entry.ID, entry.Name,
		entry.Parsed.Instance.NProd, entry.Parsed.Instance.NPer)
	c.JSON(http.StatusCreated, instanceResponse(entry))
}

// ClearInstances handles DELETE /api/v1/instances
func (h *InstanceHandler) ClearInstances(c *gin.Context) {
	n := h.cache.Clear()
	log.Printf("InstanceHandler: cleared %d cached instance(s)", n)
	c.JSON(http.StatusOK, models.ClearInstancesResponse{Cleared: n})
}

// GetInstance handles GET /api/v1/instances/:id
func (h *InstanceHandler) GetInstance(c *gin.Context) {
	entry, ok := lookup(c, h.cache)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, instanceResponse(entry))
}

// GetFormulation handles GET /api/v1/instances/:id/formulation
func (h *InstanceHandler) GetFormulation(c *gin.Context) {
	entry, ok := lookup(c, h.cache)
	if !ok {
		return
	}
	f, bigM, err := formulation.Build(entry.Parsed.Instance, h.cfg.FormulationOptions())
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_INSTANCE", err.Error(), nil)
		return
	}
	c.JSON(http.StatusOK, models.FormulationResponse{
		ID:    entry.ID,
		Stats: f.Stats(),
		BigM:  bigM,
	})
}

// GetLP handles GET /api/v1/instances/:id/lp
func (h *InstanceHandler) GetLP(c *gin.Context) {
	entry, ok := lookup(c, h.cache)
	if !ok {
		return
	}
	f, _, err := formulation.Build(entry.Parsed.Instance, h.cfg.FormulationOptions())
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_INSTANCE", err.Error(), nil)
		return
	}
	text, err := formulation.WriteLPString(f)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "LP_WRITE_ERROR", err.Error(), nil)
		return
	}
	c.Header("Content-Disposition", "inline; filename=\""+entry.Name+".lp\"")
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

func lookup(c *gin.Context, cache *data.InstanceCache) (*data.CacheEntry, bool) {
	id := c.Param("id")
	entry, ok := cache.Get(id)
	if !ok {
		respondError(c, http.StatusNotFound, "INSTANCE_NOT_FOUND", "instance not found or expired", map[string]interface{}{"id": id})
		return nil, false
	}
	return entry, true
}

func parserFor(cfg *config.Config, opts models.ParserOptions) data.Parser {
	pc := cfg.Parser
	if opts.BlockSize > 0 {
		pc.BlockSize = opts.BlockSize
	}
	if opts.SkipLines != nil && *opts.SkipLines >= 0 {
		pc.SkipLines = opts.SkipLines
	}
	return pc.ToParser()
}

func parseAndStore(cache *data.InstanceCache, cfg *config.Config, name, text string, opts models.ParserOptions) (*data.CacheEntry, error) {
	parsed, err := parserFor(cfg, opts).Parse(text)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = "instance-" + data.GenerateCacheKey(text)[:8]
	}
	parsed.Instance.Name = name
	return cache.Put(name, text, parsed), nil
}

func instanceResponse(entry *data.CacheEntry) models.InstanceResponse {
	in := entry.Parsed.Instance
	return models.InstanceResponse{
		ID:          entry.ID,
		Name:        entry.Name,
		NProd:       in.NProd,
		NPer:        in.NPer,
		Capacity:    in.Capacity,
		DemandTotal: in.DemandTotal(),
		Warnings:    entry.Parsed.Warnings,
		CreatedAt:   entry.CreatedAt,
		ExpiresAt:   entry.ExpiresAt,
	}
}
