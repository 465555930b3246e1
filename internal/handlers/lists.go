package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/intakt/hunter/backend/internal/lists"
	"github.com/intakt/hunter/backend/internal/logger"
	"github.com/intakt/hunter/backend/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// createListRequest is the body for CreateList.
type createListRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description,omitempty"`
}

// CreateList handles POST /api/v1/lists.
func (h *Handlers) CreateList(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req createListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	list, err := h.lists.Create(c.Request.Context(), userID, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, lists.ErrEmptyName) {
			util.RespondValidationError(c, "name", "list name is required")
			return
		}
		logger.Log.Error("failed to create list", zap.Error(err))
		util.RespondInternalError(c, "failed to create list")
		return
	}

	c.JSON(http.StatusCreated, list)
}

// ListLists handles GET /api/v1/lists.
func (h *Handlers) ListLists(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	rows, err := h.lists.List(c.Request.Context(), userID)
	if err != nil {
		logger.Log.Error("failed to fetch lists", zap.Error(err))
		util.RespondInternalError(c, "failed to fetch lists")
		return
	}

	c.JSON(http.StatusOK, gin.H{"lists": rows})
}

// DeleteList handles DELETE /api/v1/lists/:listId. Deleting a list that no
// longer exists is still a 204.
func (h *Handlers) DeleteList(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	listID := c.Param("listId")
	list, err := h.lists.Get(c.Request.Context(), listID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Already gone; deletion is idempotent.
		c.Status(http.StatusNoContent)
		return
	} else if err != nil {
		logger.Log.Error("failed to fetch list", zap.Error(err))
		util.RespondInternalError(c, "failed to delete list")
		return
	}
	if list.UserID != userID {
		util.RespondNotFound(c, "list")
		return
	}

	if err := h.lists.Delete(c.Request.Context(), listID); err != nil {
		logger.Log.Error("failed to delete list", zap.Error(err))
		util.RespondInternalError(c, "failed to delete list")
		return
	}

	c.Status(http.StatusNoContent)
}

// addLeadsRequest is the body for AddLeadsToList.
type addLeadsRequest struct {
	PlaceIDs []string `json:"place_ids" binding:"required"`
}

// AddLeadsToList handles POST /api/v1/lists/:listId/leads. Re-adding leads
// already on the list is a no-op; added reports only new rows.
func (h *Handlers) AddLeadsToList(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	listID := c.Param("listId")
	if !h.ownsList(c, userID, listID) {
		return
	}

	var req addLeadsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	added, err := h.lists.AddLeads(c.Request.Context(), listID, req.PlaceIDs)
	if err != nil {
		logger.Log.Error("failed to add leads to list", zap.Error(err))
		util.RespondInternalError(c, "failed to add leads to list")
		return
	}

	c.JSON(http.StatusOK, gin.H{"added": added})
}

// ListLeadsInList handles GET /api/v1/lists/:listId/leads.
func (h *Handlers) ListLeadsInList(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	listID := c.Param("listId")
	if !h.ownsList(c, userID, listID) {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "0"))

	result, err := h.lists.Leads(c.Request.Context(), userID, listID, page, pageSize)
	if err != nil {
		logger.Log.Error("failed to fetch list leads", zap.Error(err))
		util.RespondInternalError(c, "failed to fetch list leads")
		return
	}

	c.JSON(http.StatusOK, result)
}

// RemoveLeadFromList handles DELETE /api/v1/lists/:listId/leads/:placeId.
func (h *Handlers) RemoveLeadFromList(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	listID := c.Param("listId")
	if !h.ownsList(c, userID, listID) {
		return
	}

	if err := h.lists.Remove(c.Request.Context(), listID, c.Param("placeId")); err != nil {
		logger.Log.Error("failed to remove lead from list", zap.Error(err))
		util.RespondInternalError(c, "failed to remove lead from list")
		return
	}

	c.Status(http.StatusNoContent)
}

// ownsList verifies the list belongs to the user, responding on failure. A
// missing list answers 404 so ids cannot be probed across users.
func (h *Handlers) ownsList(c *gin.Context, userID, listID string) bool {
	list, err := h.lists.Get(c.Request.Context(), listID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "list")
			return false
		}
		logger.Log.Error("failed to fetch list", zap.Error(err))
		util.RespondInternalError(c, "failed to fetch list")
		return false
	}
	if list.UserID != userID {
		util.RespondNotFound(c, "list")
		return false
	}
	return true
}
