package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/intakt/hunter/backend/internal/errors"
	"github.com/intakt/hunter/backend/internal/leads"
	"github.com/intakt/hunter/backend/internal/logger"
	"github.com/intakt/hunter/backend/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListLeads handles GET /api/v1/leads. Filters, sort and pagination come in
// as query parameters; the response is one page plus pagination bookkeeping.
func (h *Handlers) ListLeads(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var params leads.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		util.RespondBadRequest(c, "invalid query parameters: "+err.Error())
		return
	}

	result, err := h.leads.List(c.Request.Context(), userID, params)
	if err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetLead handles GET /api/v1/leads/:placeId.
func (h *Handlers) GetLead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	placeID := c.Param("placeId")
	lead, err := h.leads.Get(c.Request.Context(), userID, placeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "lead")
			return
		}
		logger.Log.Error("failed to fetch lead", logger.WithPlaceID(placeID), zap.Error(err))
		util.RespondInternalError(c, "failed to fetch lead")
		return
	}

	c.JSON(http.StatusOK, lead)
}

// contactedUpdate is the body for SetContacted.
type contactedUpdate struct {
	Contacted *bool `json:"contacted" binding:"required"`
}

// SetContacted handles PATCH /api/v1/leads/:placeId/contacted.
func (h *Handlers) SetContacted(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	placeID := c.Param("placeId")
	var req contactedUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	// Scope check before the write; the update itself keys on place_id.
	if _, err := h.leads.Get(c.Request.Context(), userID, placeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "lead")
			return
		}
		logger.Log.Error("failed to fetch lead", logger.WithPlaceID(placeID), zap.Error(err))
		util.RespondInternalError(c, "failed to update lead")
		return
	}

	if err := h.leads.SetContacted(c.Request.Context(), userID, placeID, *req.Contacted); err != nil {
		var missing *leads.ErrContactedColumnMissing
		if errors.As(err, &missing) {
			util.RespondWithAPIError(c, apierrors.BadRequest(missing.Error()))
			return
		}
		logger.Log.Error("failed to update contacted status", logger.WithPlaceID(placeID), zap.Error(err))
		util.RespondInternalError(c, "failed to update lead")
		return
	}

	c.JSON(http.StatusOK, gin.H{"place_id": placeID, "contacted": *req.Contacted})
}
