package handlers

import (
	"errors"
	"net/http"

	"template_purifier/internal/models"
	"template_purifier/internal/purifier"
	"template_purifier/internal/service"
	"template_purifier/internal/template"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK            = "ok"
	statusTurnedOn      = "turned_on"
	statusTurnedOff     = "turned_off"
	statusRefreshed     = "refreshed"
	statusPercentageSet = "percentage_set"
	statusPresetModeSet = "preset_mode_set"

	errTurnOn          = "failed to turn purifier on"
	errTurnOff         = "failed to turn purifier off"
	errRefresh         = "failed to refresh purifier"
	errSetPercentage   = "failed to set percentage"
	errSetPresetMode   = "failed to set preset mode"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// statusFor maps domain errors to HTTP codes; other errors get fallback.
func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, purifier.ErrPurifierNotFound),
		errors.Is(err, service.ErrStateNotFound):
		return http.StatusNotFound
	case errors.Is(err, purifier.ErrInvalidPresetMode),
		errors.Is(err, purifier.ErrInvalidPercentage),
		errors.Is(err, purifier.ErrActionNotConfigured),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrInvalidTimeRange),
		errors.Is(err, service.ErrEmptyTemplate),
		errors.Is(err, template.ErrSyntax),
		errors.Is(err, template.ErrUndefinedEntity):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrStatesReadOnly):
		return http.StatusConflict
	default:
		return fallback
	}
}

// respondControl answers a purifier control request. Client errors carry the
// error text; dispatch failures surface as 502.
func (h *Handler) respondControl(c *gin.Context, status string, st models.PurifierState, err error, userMsg, logKey string) {
	if err != nil {
		code := statusFor(err, http.StatusBadGateway)
		msg := userMsg
		if code != http.StatusBadGateway {
			msg = err.Error()
		}
		h.logAndJSONError(c, code, msg, logKey, err, "id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "state": st})
}

// SetPercentageRequest is the payload of the percentage endpoint.
type SetPercentageRequest struct {
	// Fan speed, 0..100
	Percentage *int `json:"percentage" binding:"required" example:"60"`
}

// SetPresetModeRequest is the payload of the preset_mode endpoint.
type SetPresetModeRequest struct {
	// One of the purifier's preset_modes
	PresetMode string `json:"preset_mode" binding:"required" example:"sleep"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      List purifiers
// @Tags         purifiers
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, purifiers"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/purifiers [get]
// @Security     BearerAuth
func (h *Handler) listPurifiers(c *gin.Context) {
	list := h.services.Purifiers.List(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"count":     len(list),
		"purifiers": list,
	})
}

// @Summary      Get purifier
// @Description  id is the entity id, its object id, or the unique_id
// @Tags         purifiers
// @Produce      json
// @Param        id   path      string  true  "Purifier id"
// @Success      200  {object}  models.PurifierState
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/purifiers/{id} [get]
// @Security     BearerAuth
func (h *Handler) getPurifier(c *gin.Context) {
	st, err := h.services.Purifiers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err, http.StatusInternalServerError), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Turn purifier on
// @Tags         purifiers
// @Produce      json
// @Param        id   path      string  true  "Purifier id"
// @Success      200  {object}  map[string]interface{}  "status, state"
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/purifiers/{id}/turn_on [post]
// @Security     BearerAuth
func (h *Handler) turnOn(c *gin.Context) {
	st, err := h.services.Purifiers.TurnOn(c.Request.Context(), c.Param("id"))
	h.respondControl(c, statusTurnedOn, st, err, errTurnOn, "purifier_turn_on_failed")
}

// @Summary      Turn purifier off
// @Tags         purifiers
// @Produce      json
// @Param        id   path      string  true  "Purifier id"
// @Success      200  {object}  map[string]interface{}  "status, state"
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/purifiers/{id}/turn_off [post]
// @Security     BearerAuth
func (h *Handler) turnOff(c *gin.Context) {
	st, err := h.services.Purifiers.TurnOff(c.Request.Context(), c.Param("id"))
	h.respondControl(c, statusTurnedOff, st, err, errTurnOff, "purifier_turn_off_failed")
}

// @Summary      Refresh purifier
// @Description  Re-render every template now instead of waiting for the next tick
// @Tags         purifiers
// @Produce      json
// @Param        id   path      string  true  "Purifier id"
// @Success      200  {object}  map[string]interface{}  "status, state"
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/purifiers/{id}/refresh [post]
// @Security     BearerAuth
func (h *Handler) refreshPurifier(c *gin.Context) {
	st, err := h.services.Purifiers.Refresh(c.Request.Context(), c.Param("id"))
	if err != nil {
		code := statusFor(err, http.StatusInternalServerError)
		h.logAndJSONError(c, code, errRefresh+": "+err.Error(), "purifier_refresh_failed", err, "id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusRefreshed, "state": st})
}

// @Summary      Set fan speed
// @Tags         purifiers
// @Accept       json
// @Produce      json
// @Param        id    path   string                true  "Purifier id"
// @Param        body  body   SetPercentageRequest  true  "Percentage payload"
// @Success      200   {object}  map[string]interface{}  "status, state"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/purifiers/{id}/percentage [post]
// @Security     BearerAuth
func (h *Handler) setPercentage(c *gin.Context) {
	var req SetPercentageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	st, err := h.services.Purifiers.SetPercentage(c.Request.Context(), c.Param("id"), *req.Percentage)
	h.respondControl(c, statusPercentageSet, st, err, errSetPercentage, "purifier_set_percentage_failed")
}

// @Summary      Set preset mode
// @Tags         purifiers
// @Accept       json
// @Produce      json
// @Param        id    path   string                true  "Purifier id"
// @Param        body  body   SetPresetModeRequest  true  "Preset mode payload"
// @Success      200   {object}  map[string]interface{}  "status, state"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/purifiers/{id}/preset_mode [post]
// @Security     BearerAuth
func (h *Handler) setPresetMode(c *gin.Context) {
	var req SetPresetModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	st, err := h.services.Purifiers.SetPresetMode(c.Request.Context(), c.Param("id"), req.PresetMode)
	h.respondControl(c, statusPresetModeSet, st, err, errSetPresetMode, "purifier_set_preset_mode_failed")
}
