package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vidarp/server/audit"
	"github.com/vidarp/server/game/wallet"
	mw "github.com/vidarp/server/middleware"
)

// WalletHandler serves balance, history and money transfers.
type WalletHandler struct {
	db     *gorm.DB
	wallet *wallet.Service
	audit  *audit.Service
}

func NewWalletHandler(db *gorm.DB, w *wallet.Service, aud *audit.Service) *WalletHandler {
	return &WalletHandler{db: db, wallet: w, audit: aud}
}

// Show handles GET /api/wallet.
func (h *WalletHandler) Show(c *gin.Context) {
	p := currentPlayer(c, h.db)
	if p == nil {
		return
	}
	txs, err := h.wallet.RecentTransactions(c.Request.Context(), p.ID, 20)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"balance":      p.WalletBalance,
		"transactions": txs,
	})
}

type transferRequest struct {
	ToPlayerID int64 `json:"to_player_id" binding:"required"`
	Amount     int64 `json:"amount" binding:"required"`
}

// Transfer handles POST /api/wallet/transfer.
func (h *WalletHandler) Transfer(c *gin.Context) {
	p := currentPlayer(c, h.db)
	if p == nil {
		return
	}
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	rec, err := h.wallet.TransferMoney(c.Request.Context(), p.ID, req.ToPlayerID, req.Amount)
	if err != nil {
		fail(c, err)
		return
	}

	accountID := mw.GetAccountID(c)
	h.audit.Log(audit.Entry{
		TraceID:   mw.GetTraceID(c),
		AccountID: &accountID,
		PlayerID:  &p.ID,
		Action:    "wallet.transfer",
		Request:   req,
		Response:  gin.H{"transaction_id": rec.ID},
		IP:        c.ClientIP(),
	})
	c.JSON(http.StatusOK, gin.H{"transaction": rec})
}
