package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"freshlogic/internal/models"
	"freshlogic/internal/riskerr"
	"freshlogic/internal/service"
)

// Error codes returned alongside the riskerr kinds.
const (
	codeBadRequest      = "invalid_request"
	codeSessionNotFound = "session_not_found"
	codeAdvisorDisabled = "advisor_disabled"
	codeAdvisorFailed   = "advisor_failed"
	codeInternal        = "internal"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Handler handles HTTP requests
type Handler struct {
	analyzer *service.Analyzer
	metrics  http.Handler
	logger   *zap.Logger
}

// NewHandler creates a new API handler. metrics may be nil.
func NewHandler(analyzer *service.Analyzer, metrics http.Handler, logger *zap.Logger) *Handler {
	return &Handler{
		analyzer: analyzer,
		metrics:  metrics,
		logger:   logger,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		// Analysis
		api.POST("/analyze", h.Analyze)

		// Crop profiles
		api.GET("/crops", h.ListCrops)
		api.GET("/crops/:name", h.GetCrop)

		// Sessions and history
		api.GET("/sessions/:id", h.GetSession)
		api.POST("/sessions/:id/explain", h.Explain)
		api.GET("/history", h.History)
	}

	// Health check
	r.GET("/health", h.HealthCheck)

	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics))
	}
}

// Analyze handles route analysis
func (h *Handler) Analyze(c *gin.Context) {
	var req models.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": codeBadRequest})
		return
	}

	rec, err := h.analyzer.Analyze(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// ListCrops returns every supported crop profile
func (h *Handler) ListCrops(c *gin.Context) {
	profiles := h.analyzer.Crops()
	c.JSON(http.StatusOK, gin.H{
		"crops": profiles,
		"total": len(profiles),
	})
}

// GetCrop returns one crop profile
func (h *Handler) GetCrop(c *gin.Context) {
	profile, err := h.analyzer.Crop(c.Param("name"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetSession returns the latest analysis of a session
func (h *Handler) GetSession(c *gin.Context) {
	rec, err := h.analyzer.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Explain asks the advisor about a session
func (h *Handler) Explain(c *gin.Context) {
	var req models.ExplainRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": codeBadRequest})
			return
		}
	}

	sessionID := c.Param("id")
	text, err := h.analyzer.Explain(c.Request.Context(), sessionID, req.Question)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":  sessionID,
		"explanation": text,
	})
}

// History returns recent analyses
func (h *Handler) History(c *gin.Context) {
	limit := defaultHistoryLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer", "code": codeBadRequest})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := h.analyzer.History(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"analyses": records,
		"total":    len(records),
	})
}

// HealthCheck returns service health and the models in use
func (h *Handler) HealthCheck(c *gin.Context) {
	resp := gin.H{
		"status":          "healthy",
		"service":         "freshlogic-route-risk",
		"crops":           len(h.analyzer.Crops()),
		"advisor_enabled": h.analyzer.AdvisorEnabled(),
	}
	if info := h.analyzer.AdvisorInfo(); info != nil {
		resp["advisor"] = info
	}

	info, err := h.analyzer.ModelInfo(c.Request.Context())
	if err != nil {
		h.logger.Warn("Model info unavailable", zap.Error(err))
		resp["status"] = "degraded"
		resp["models_error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	if info != nil {
		resp["models"] = info
	}
	c.JSON(http.StatusOK, resp)
}

// writeError maps err to a status code and a stable error code.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": codeSessionNotFound})
		return
	case errors.Is(err, service.ErrAdvisorDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "code": codeAdvisorDisabled})
		return
	}

	kind := riskerr.KindOf(err)
	switch kind {
	case riskerr.KindUnsupportedCrop:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "code": string(kind)})
	case riskerr.KindInvalidRoute:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": string(kind)})
	case riskerr.KindModelFailure:
		h.logger.Error("Model failure", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "code": string(kind)})
	default:
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		code := codeInternal
		if c.FullPath() == "/api/v1/sessions/:id/explain" {
			code = codeAdvisorFailed
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": code})
	}
}
