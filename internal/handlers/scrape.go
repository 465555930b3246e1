package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/intakt/hunter/backend/internal/errors"
	"github.com/intakt/hunter/backend/internal/logger"
	"github.com/intakt/hunter/backend/internal/scrape"
	"github.com/intakt/hunter/backend/internal/util"
	"go.uber.org/zap"
)

// StartScrape handles POST /api/v1/scrape. On success the response carries
// the correlation id; results arrive later through the change feed.
func (h *Handlers) StartScrape(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var form scrape.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		util.RespondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	clientQueryID, err := h.scrape.Start(c.Request.Context(), userID, form)
	if err != nil {
		if apiErr, ok := err.(*apierrors.APIError); ok {
			util.RespondWithAPIError(c, apiErr)
			return
		}
		logger.Log.Error("scrape submission failed", logger.WithUserID(userID), zap.Error(err))
		util.RespondWithAPIError(c, apierrors.BadRequest(err.Error()))
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"clientQueryId": clientQueryID})
}

// LastScrapeForm handles GET /api/v1/scrape/last. Advisory; a miss is an
// empty 200, not an error.
func (h *Handlers) LastScrapeForm(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	form, found := h.scrape.LastForm(c.Request.Context(), userID)
	if !found {
		c.JSON(http.StatusOK, gin.H{"form": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"form": form})
}
