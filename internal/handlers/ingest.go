package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/intakt/hunter/backend/internal/ingest"
	"github.com/intakt/hunter/backend/internal/logger"
	"github.com/intakt/hunter/backend/internal/util"
	"go.uber.org/zap"
)

// IngestAuthMiddleware guards the pipeline endpoints with a shared token.
// With no token configured the endpoints are disabled outright.
func (h *Handlers) IngestAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		configured := h.cfg.IngestToken
		if configured == "" {
			util.RespondForbidden(c, "ingest is not enabled")
			c.Abort()
			return
		}

		presented := c.GetHeader("X-Ingest-Token")
		if subtle.ConstantTimeCompare([]byte(presented), []byte(configured)) != 1 {
			util.RespondUnauthorized(c, "invalid ingest token")
			c.Abort()
			return
		}

		c.Next()
	}
}

// IngestBatch handles POST /api/v1/ingest. The pipeline posts scraped leads
// and contacts here; each lead fans out to the owner's change feed.
func (h *Handlers) IngestBatch(c *gin.Context) {
	var batch ingest.Batch
	if err := c.ShouldBindJSON(&batch); err != nil {
		util.RespondBadRequest(c, "invalid batch: "+err.Error())
		return
	}

	summary, err := h.ingest.Apply(c.Request.Context(), batch)
	if err != nil {
		logger.Log.Error("pipeline batch failed",
			zap.String("client_query_id", batch.ClientQueryID),
			zap.Error(err),
		)
		util.RespondInternalError(c, "failed to apply batch")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ingestDeleteRequest is the body for IngestDelete.
type ingestDeleteRequest struct {
	UserID  string `json:"userId" binding:"required"`
	PlaceID string `json:"placeId" binding:"required"`
}

// IngestDelete handles POST /api/v1/ingest/delete for pipeline cleanup
// deliveries. Deleting an absent lead is a no-op.
func (h *Handlers) IngestDelete(c *gin.Context) {
	var req ingestDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	if err := h.ingest.Delete(c.Request.Context(), req.UserID, req.PlaceID); err != nil {
		logger.Log.Error("pipeline delete failed", logger.WithPlaceID(req.PlaceID), zap.Error(err))
		util.RespondInternalError(c, "failed to delete lead")
		return
	}

	c.Status(http.StatusNoContent)
}
