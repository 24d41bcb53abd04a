package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vidarp/server/audit"
	"github.com/vidarp/server/catalog"
	"github.com/vidarp/server/game/effect"
	"github.com/vidarp/server/game/inventory"
	"github.com/vidarp/server/game/medicine"
	"github.com/vidarp/server/game/wallet"
	mw "github.com/vidarp/server/middleware"
	"github.com/vidarp/server/model"
)

// InventoryHandler serves the projected inventory and the consume/send
// actions on it.
type InventoryHandler struct {
	db          *gorm.DB
	projector   *inventory.Projector
	customIndex *inventory.CustomIndex
	transients  *effect.Transients
	medicine    *medicine.Service
	wallet      *wallet.Service
	catalog     *catalog.Catalog
	audit       *audit.Service
	logger      *zap.Logger
}

func NewInventoryHandler(db *gorm.DB, proj *inventory.Projector, ci *inventory.CustomIndex,
	tr *effect.Transients, med *medicine.Service, w *wallet.Service,
	cat *catalog.Catalog, aud *audit.Service, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		db: db, projector: proj, customIndex: ci, transients: tr,
		medicine: med, wallet: w, catalog: cat, audit: aud, logger: logger,
	}
}

// List handles GET /api/player/inventory: the projected inventory plus the
// received-gift history (rows that carry a sender).
func (h *InventoryHandler) List(c *gin.Context) {
	p := currentPlayer(c, h.db)
	if p == nil {
		return
	}

	var rows []model.Inventory
	if err := h.db.Where("player_id = ?", p.ID).Order("id").Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	custom, err := h.customIndex.ForRows(c.Request.Context(), rows)
	if err != nil {
		h.logger.Warn("custom index fetch failed", zap.Error(err))
		custom = nil
	}

	items := h.projector.ProjectAll(rows, custom)
	received := make([]*inventory.DisplayItem, 0)
	for _, it := range items {
		if it.SenderName != "" {
			received = append(received, it)
		}
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "received": received})
}

// loadOwnedRow resolves the :id path param to an inventory row owned by the
// player. A nil return means the response was written.
func (h *InventoryHandler) loadOwnedRow(c *gin.Context, playerID int64) *model.Inventory {
	rowID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad row id"})
		return nil
	}
	var row model.Inventory
	if err := h.db.Where("id = ? AND player_id = ?", rowID, playerID).First(&row).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not in inventory"})
		return nil
	}
	return &row
}

// Use handles POST /api/player/inventory/:id/use. Medicines route through
// the cure path; everything else resolves its effect spec against the
// player's stats.
func (h *InventoryHandler) Use(c *gin.Context) {
	p := currentPlayer(c, h.db)
	if p == nil {
		return
	}
	row := h.loadOwnedRow(c, p.ID)
	if row == nil {
		return
	}

	if model.IsCustomItemID(row.ItemID) {
		h.useCustom(c, p, row)
		return
	}

	entry, ok := h.catalog.Lookup(row.ItemID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "item no longer exists"})
		return
	}
	item := entry.Item

	if medicine.IsMedicine(item.Name) {
		cured, err := h.medicine.TryCure(c.Request.Context(), p.ID, item.Name)
		if err != nil {
			fail(c, err)
			return
		}
		if !cured {
			c.JSON(http.StatusOK, gin.H{"cured": false, "message": "medicine ineffective"})
			return
		}
		if err := inventory.Consume(h.db, p.ID, row.ItemID, 1); err != nil {
			h.logger.Warn("medicine consume failed", zap.Int64("row_id", row.ID), zap.Error(err))
		}
		h.logAction(c, p, "inventory.use", gin.H{"item": item.Name, "cured": true})
		c.JSON(http.StatusOK, gin.H{"cured": true})
		return
	}

	if item.Effect == nil && item.ItemType != model.ItemTypeDrink {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item cannot be used"})
		return
	}

	delta := effect.Resolve(item.Effect, effect.Context{
		HappinessStore: entry.HappinessStore,
		ItemType:       item.ItemType,
	})
	h.applyAndConsume(c, p, row, item.Name, item.ItemType, delta)
}

func (h *InventoryHandler) useCustom(c *gin.Context, p *model.Player, row *model.Inventory) {
	var ci model.CustomItem
	if err := h.db.First(&ci, "id = ?", row.ItemID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "item no longer exists"})
		return
	}
	if ci.ItemType == model.ItemTypeObject {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item cannot be used"})
		return
	}
	delta := effect.Resolve(effect.ParseSpec(ci.Effects), effect.Context{ItemType: ci.ItemType})
	h.applyAndConsume(c, p, row, ci.Name, ci.ItemType, delta)
}

// applyAndConsume applies the delta and removes one unit, in one
// transaction, then registers any transient mood messages.
func (h *InventoryHandler) applyAndConsume(c *gin.Context, p *model.Player, row *model.Inventory, itemName, itemType string, delta effect.Delta) {
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var fresh model.Player
		if err := tx.First(&fresh, p.ID).Error; err != nil {
			return err
		}
		effect.Apply(&fresh, delta)
		if err := tx.Model(&model.Player{}).Where("id = ?", fresh.ID).
			Updates(map[string]interface{}{
				"health":     fresh.Health,
				"hunger":     fresh.Hunger,
				"mood":       fresh.Mood,
				"happiness":  fresh.Happiness,
				"energy":     fresh.Energy,
				"alcoholism": fresh.Alcoholism,
			}).Error; err != nil {
			return err
		}
		*p = fresh
		return inventory.Consume(tx, p.ID, row.ItemID, 1)
	})
	if err != nil {
		fail(c, err)
		return
	}

	// Drinks always leave a transient message, mood effects leave theirs.
	messages := delta.Messages
	if len(messages) == 0 && itemType == model.ItemTypeDrink {
		messages = []string{"Bebeu " + itemName}
	}
	for _, msg := range messages {
		if err := h.transients.Add(c.Request.Context(), p.ID, msg); err != nil {
			h.logger.Warn("transient effect write failed", zap.Int64("player_id", p.ID), zap.Error(err))
		}
	}

	h.logAction(c, p, "inventory.use", gin.H{"item": itemName})
	c.JSON(http.StatusOK, gin.H{"player": p, "messages": messages})
}

type sendRequest struct {
	ToPlayerID int64 `json:"to_player_id" binding:"required"`
	Qty        int   `json:"qty" binding:"required,min=1"`
}

// Send handles POST /api/player/inventory/:id/send.
func (h *InventoryHandler) Send(c *gin.Context) {
	p := currentPlayer(c, h.db)
	if p == nil {
		return
	}
	row := h.loadOwnedRow(c, p.ID)
	if row == nil {
		return
	}
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	// Ring items bind to proposals, they do not travel as gifts.
	if entry, ok := h.catalog.Lookup(row.ItemID); ok && entry.Item.RelationshipType != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ring items cannot be sent"})
		return
	}

	var acc model.Account
	if err := h.db.First(&acc, mw.GetAccountID(c)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	res, err := h.wallet.TransferItem(c.Request.Context(), p.ID, req.ToPlayerID, row.ItemID, req.Qty, acc.Username)
	if err != nil {
		fail(c, err)
		return
	}
	h.logAction(c, p, "inventory.send", gin.H{
		"item_id": row.ItemID, "to": req.ToPlayerID, "granted": res.Granted,
	})
	c.JSON(http.StatusOK, gin.H{"granted": res.Granted, "truncated": res.Truncated})
}

func (h *InventoryHandler) logAction(c *gin.Context, p *model.Player, action string, detail interface{}) {
	accountID := mw.GetAccountID(c)
	h.audit.Log(audit.Entry{
		TraceID:   mw.GetTraceID(c),
		AccountID: &accountID,
		PlayerID:  &p.ID,
		Action:    action,
		Request:   detail,
		IP:        c.ClientIP(),
	})
}
