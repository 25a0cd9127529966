package handlers

import (
	"errors"
	"net/http"

	"building_automation/internal/logger"
	"building_automation/internal/models"
	"building_automation/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	hub      *BridgeHub
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, hub *BridgeHub, log *logger.Logger) *Handler {
	return &Handler{services: services, hub: hub, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Device bridge channel (HTTP upgrade) — same port
	router.GET("/ws", h.wsConnect)

	// Versioned API endpoints
	h.registerAPIRoutes(router)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.requestLogger)
	devices := api.Group("/devices/:deviceId")
	{
		automation := devices.Group("/automation")
		{
			automation.GET("", h.getRule)
			automation.POST("", h.createRule)
			automation.PATCH("", h.updateRule)
			automation.DELETE("", h.deleteRule)
			automation.POST("/validate", h.validateStages)
		}
		devices.GET("/events", h.getEvents)
		devices.GET("/events/count", h.getEventCount)
		devices.POST("/relearn", h.relearn)
		devices.GET("/patterns", h.getPatterns)
		devices.GET("/lock", h.getLock)
	}
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondServiceError maps service-layer errors to HTTP responses. Validation
// failures list every violation; unexpected errors are logged with context and
// hidden behind a generic message.
func (h *Handler) respondServiceError(c *gin.Context, err error, userMsg, logKey string, kv ...interface{}) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"errors":   verr.Errors,
			"warnings": verr.Warnings,
		})
		return
	}
	if errors.Is(err, models.ErrRuleNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": models.ErrRuleNotFound.Error()})
		return
	}
	if h.log != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": userMsg})
}
