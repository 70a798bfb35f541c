package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"template_purifier/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errFromInvalid = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid   = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// isDateOnly reports whether the query string represents a date without time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

// @Summary      List service calls
// @Description  Filter dispatched service calls by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD') and domain. If 'to' is date-only, it is treated as end-of-day inclusive.
// @Tags         service_calls
// @Produce      json
// @Param        from    query   string  false  "Start of range"  example(2025-08-01)
// @Param        to      query   string  false  "End of range. Date-only treated as end of day."  example(2025-08-31)
// @Param        domain  query   string  false  "Service domain"  example(input_boolean)
// @Success      200     {object}  map[string]interface{}  "count, calls"
// @Failure      400     {object}  map[string]string
// @Failure      401     {object}  map[string]string
// @Failure      500     {object}  map[string]string
// @Router       /api/v1/service_calls [get]
// @Security     BearerAuth
func (h *Handler) getServiceCalls(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		from   time.Time
		to     time.Time
		domain = strings.ToLower(strings.TrimSpace(c.Query("domain")))
		err    error
	)
	if qs := c.Query("from"); qs != "" {
		from, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errFromInvalid})
			return
		}
	}
	// If only a date is provided, make 'to' end-of-day inclusive.
	if qs := c.Query("to"); qs != "" {
		to, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errToInvalid})
			return
		}
		if isDateOnly(qs) {
			to = to.Add(24*time.Hour - time.Nanosecond).UTC()
		}
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'from' must be <= 'to'"})
		return
	}
	calls, err := h.services.CallLog.List(ctx, service.LogFilter{
		From:   from,
		To:     to,
		Domain: domain,
	})
	if err != nil {
		h.logAndJSONError(c, statusFor(err, http.StatusInternalServerError), "failed to load service calls",
			"service_calls_list_failed", err, "from", from, "to", to, "domain", domain)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(calls),
		"calls": calls,
	})
}

func parseQueryTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf(
		"invalid time format %q, expected one of: "+
			"RFC3339 (e.g. 2025-08-27T15:04:05Z), "+
			"'YYYY-MM-DD HH:MM:SS', "+
			"'YYYY-MM-DD'",
		s,
	)
}
