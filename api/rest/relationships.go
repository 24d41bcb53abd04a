package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vidarp/server/game/relationship"
)

// RelationshipHandler serves proposals and relationships.
type RelationshipHandler struct {
	db  *gorm.DB
	rel *relationship.Service
}

func NewRelationshipHandler(db *gorm.DB, rel *relationship.Service) *RelationshipHandler {
	return &RelationshipHandler{db: db, rel: rel}
}

// List handles GET /api/relationships: active relationships plus pending
// proposals addressed to the player.
func (h *RelationshipHandler) List(c *gin.Context) {
	p := currentPlayer(c, h.db)
	if p == nil {
		return
	}
	rels, err := h.rel.Of(c.Request.Context(), p.ID)
	if err != nil {
		fail(c, err)
		return
	}
	props, err := h.rel.PendingFor(c.Request.Context(), p.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"relationships": rels, "proposals": props})
}

type proposeRequest struct {
	ToPlayerID int64  `json:"to_player_id" binding:"required"`
	Kind       string `json:"kind" binding:"required"`
	RingItemID string `json:"ring_item_id"`
}

// Propose handles POST /api/relationships/propose.
func (h *RelationshipHandler) Propose(c *gin.Context) {
	p := currentPlayer(c, h.db)
	if p == nil {
		return
	}
	var req proposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	prop, err := h.rel.Propose(c.Request.Context(), p.ID, req.ToPlayerID, req.Kind, req.RingItemID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"proposal": prop})
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad id"})
		return 0, false
	}
	return id, true
}

// Accept handles POST /api/relationships/proposals/:id/accept.
func (h *RelationshipHandler) Accept(c *gin.Context) {
	p := currentPlayer(c, h.db)
	if p == nil {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	rel, err := h.rel.Accept(c.Request.Context(), id, p.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"relationship": rel})
}

// Reject handles POST /api/relationships/proposals/:id/reject.
func (h *RelationshipHandler) Reject(c *gin.Context) {
	p := currentPlayer(c, h.db)
	if p == nil {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.rel.Reject(c.Request.Context(), id, p.ID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "proposal rejected"})
}

// End handles POST /api/relationships/:id/end. Marriages charge the
// divorce fee; the service blocks the transition when it cannot be paid.
func (h *RelationshipHandler) End(c *gin.Context) {
	p := currentPlayer(c, h.db)
	if p == nil {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.rel.End(c.Request.Context(), id, p.ID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "relationship ended"})
}
