package handlers

import (
	"net/http"

	"template_purifier/internal/service"

	"github.com/gin-gonic/gin"
)

const errListStates = "failed to load states"

// SetStateRequest writes one entity state, e.g. {"state":"on"}.
type SetStateRequest struct {
	State      string         `json:"state" binding:"required" example:"on"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// @Summary      List entity states
// @Tags         states
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, states"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/states [get]
// @Security     BearerAuth
func (h *Handler) listStates(c *gin.Context) {
	list, err := h.services.States.List(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListStates, "states_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(list),
		"states": list,
	})
}

// @Summary      Get entity state
// @Tags         states
// @Produce      json
// @Param        entity_id  path      string  true  "Entity id"  example(input_boolean.purifier_switch)
// @Success      200        {object}  models.EntityState
// @Failure      401        {object}  map[string]string
// @Failure      404        {object}  map[string]string
// @Router       /api/v1/states/{entity_id} [get]
// @Security     BearerAuth
func (h *Handler) getEntityState(c *gin.Context) {
	st, err := h.services.States.Get(c.Request.Context(), c.Param("entity_id"))
	if err != nil {
		code := statusFor(err, http.StatusInternalServerError)
		if code == http.StatusInternalServerError {
			h.logAndJSONError(c, code, errListStates, "states_get_failed", err, "entity_id", c.Param("entity_id"))
			return
		}
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Set entity state
// @Description  Attributes are kept when omitted. Only available against the local state store.
// @Tags         states
// @Accept       json
// @Produce      json
// @Param        entity_id  path   string           true  "Entity id"
// @Param        body       body   SetStateRequest  true  "State payload"
// @Success      200        {object}  models.EntityState
// @Failure      400        {object}  map[string]string
// @Failure      401        {object}  map[string]string
// @Failure      409        {object}  map[string]string
// @Router       /api/v1/states/{entity_id} [post]
// @Security     BearerAuth
func (h *Handler) setEntityState(c *gin.Context) {
	var req SetStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	st, err := h.services.States.Set(c.Request.Context(), service.StateParams{
		EntityID:   c.Param("entity_id"),
		State:      req.State,
		Attributes: req.Attributes,
	})
	if err != nil {
		code := statusFor(err, http.StatusInternalServerError)
		msg := err.Error()
		if code == http.StatusInternalServerError {
			msg = "failed to store state"
		}
		h.logAndJSONError(c, code, msg, "states_set_failed", err, "entity_id", c.Param("entity_id"))
		return
	}
	c.JSON(http.StatusOK, st)
}
