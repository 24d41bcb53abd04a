package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vidarp/server/game/wallet"
	"github.com/vidarp/server/model"
)

// RankingHandler serves the cached wealth ranking.
type RankingHandler struct {
	db     *gorm.DB
	wallet *wallet.Service
}

func NewRankingHandler(db *gorm.DB, w *wallet.Service) *RankingHandler {
	return &RankingHandler{db: db, wallet: w}
}

// Wealth handles GET /api/ranking/wealth.
func (h *RankingHandler) Wealth(c *gin.Context) {
	n, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	entries, err := h.wallet.TopBalances(c.Request.Context(), n)
	if err != nil {
		fail(c, err)
		return
	}

	// Resolve display names for the board.
	type rankedRow struct {
		PlayerID    int64  `json:"player_id"`
		DisplayName string `json:"display_name"`
		Balance     int64  `json:"balance"`
	}
	out := make([]rankedRow, 0, len(entries))
	for _, e := range entries {
		row := rankedRow{PlayerID: e.PlayerID, Balance: e.Balance}
		var p model.Player
		if err := h.db.First(&p, e.PlayerID).Error; err == nil {
			var acc model.Account
			if err := h.db.First(&acc, p.AccountID).Error; err == nil {
				row.DisplayName = acc.DisplayName()
			}
		}
		out = append(out, row)
	}
	c.JSON(http.StatusOK, gin.H{"ranking": out})
}
