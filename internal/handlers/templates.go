package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RenderTemplateRequest is a developer-tools render request.
type RenderTemplateRequest struct {
	Template  string         `json:"template" binding:"required"`
	Variables map[string]any `json:"variables,omitempty"`
}

// @Summary      Render template
// @Description  Render a template against the current entity states
// @Tags         templates
// @Accept       json
// @Produce      json
// @Param        body  body   RenderTemplateRequest  true  "Template payload"
// @Success      200   {object}  map[string]string  "result"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/templates/render [post]
// @Security     BearerAuth
func (h *Handler) renderTemplate(c *gin.Context) {
	var req RenderTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	out, err := h.services.Templates.Render(c.Request.Context(), req.Template, req.Variables)
	if err != nil {
		code := statusFor(err, http.StatusInternalServerError)
		msg := err.Error()
		if code == http.StatusInternalServerError {
			msg = "failed to render template"
		}
		h.logAndJSONError(c, code, msg, "template_render_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": out})
}
