package handlers

import (
	"template_purifier/internal/logger"
	"template_purifier/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// purifier state stream (HTTP upgrade) on the same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerPurifierRoutes(api)
		h.registerStateRoutes(api)
		h.registerCallLogRoutes(api)
		api.POST("/templates/render", h.renderTemplate)
	}
}

func (h *Handler) registerPurifierRoutes(api *gin.RouterGroup) {
	purifiers := api.Group("/purifiers")
	{
		purifiers.GET("", h.listPurifiers)
		purifiers.GET("/:id", h.getPurifier)
		purifiers.POST("/:id/turn_on", h.turnOn)
		purifiers.POST("/:id/turn_off", h.turnOff)
		purifiers.POST("/:id/refresh", h.refreshPurifier)
		// Body example: {"percentage":60}
		purifiers.POST("/:id/percentage", h.setPercentage)
		// Body example: {"preset_mode":"sleep"}
		purifiers.POST("/:id/preset_mode", h.setPresetMode)
	}
}

func (h *Handler) registerStateRoutes(api *gin.RouterGroup) {
	states := api.Group("/states")
	{
		states.GET("", h.listStates)
		states.GET("/:entity_id", h.getEntityState)
		states.POST("/:entity_id", h.setEntityState)
	}
}

func (h *Handler) registerCallLogRoutes(api *gin.RouterGroup) {
	api.GET("/service_calls", h.getServiceCalls)
}
