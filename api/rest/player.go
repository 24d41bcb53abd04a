package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vidarp/server/game/effect"
	mw "github.com/vidarp/server/middleware"
	"github.com/vidarp/server/model"
)

// PlayerHandler serves the player's own profile and transient effects.
type PlayerHandler struct {
	db         *gorm.DB
	transients *effect.Transients
	logger     *zap.Logger
}

func NewPlayerHandler(db *gorm.DB, tr *effect.Transients, logger *zap.Logger) *PlayerHandler {
	return &PlayerHandler{db: db, transients: tr, logger: logger}
}

// currentPlayer loads the player row for the authenticated account. A nil
// return means the response was already written.
func currentPlayer(c *gin.Context, db *gorm.DB) *model.Player {
	accountID := mw.GetAccountID(c)
	var p model.Player
	if err := db.Where("account_id = ?", accountID).First(&p).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return nil
	}
	return &p
}

// Profile handles GET /api/player.
func (h *PlayerHandler) Profile(c *gin.Context) {
	p := currentPlayer(c, h.db)
	if p == nil {
		return
	}

	var acc model.Account
	if err := h.db.First(&acc, p.AccountID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	var diseases []model.PlayerDisease
	_ = h.db.Where("player_id = ?", p.ID).Find(&diseases).Error

	names := make([]string, 0, len(diseases))
	for _, d := range diseases {
		names = append(names, d.Name)
	}

	c.JSON(http.StatusOK, gin.H{
		"player":       p,
		"username":     acc.Username,
		"display_name": acc.DisplayName(),
		"role":         acc.Role,
		"diseases":     names,
	})
}

// Effects handles GET /api/player/effects: the unexpired transient mood
// messages.
func (h *PlayerHandler) Effects(c *gin.Context) {
	p := currentPlayer(c, h.db)
	if p == nil {
		return
	}
	list, err := h.transients.List(c.Request.Context(), p.ID)
	if err != nil {
		h.logger.Warn("transient effect read failed", zap.Int64("player_id", p.ID), zap.Error(err))
		list = nil
	}
	c.JSON(http.StatusOK, gin.H{"effects": list})
}
