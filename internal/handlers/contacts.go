package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/intakt/hunter/backend/internal/contacts"
	"github.com/intakt/hunter/backend/internal/util"
)

// LeadContacts handles GET /api/v1/leads/:placeId/contacts. Reads fail soft,
// so the endpoint always answers 200 with whatever could be fetched.
func (h *Handlers) LeadContacts(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	placeID := c.Param("placeId")
	limit := contacts.DefaultPreviewLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	rows := h.contacts.ListForPlace(c.Request.Context(), placeID, limit)
	count := h.contacts.Count(c.Request.Context(), placeID)

	c.JSON(http.StatusOK, gin.H{
		"contacts": rows,
		"total":    count,
	})
}
