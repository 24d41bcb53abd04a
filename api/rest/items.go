package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/vidarp/server/game/effect"
	"github.com/vidarp/server/game/inventory"
	mw "github.com/vidarp/server/middleware"
	"github.com/vidarp/server/model"
)

// ItemHandler serves custom item creation.
type ItemHandler struct {
	db *gorm.DB
}

func NewItemHandler(db *gorm.DB) *ItemHandler {
	return &ItemHandler{db: db}
}

type customItemRequest struct {
	Name        string          `json:"name" binding:"required,min=2,max=64"`
	Description string          `json:"description" binding:"max=500"`
	Price       int64           `json:"price" binding:"min=0"`
	ItemType    string          `json:"item_type" binding:"required,oneof=food drink object"`
	Effects     json.RawMessage `json:"effects"`
	Icon        string          `json:"icon" binding:"max=128"`
}

// CreateCustom handles POST /api/items/custom. The creator receives one
// unit of the new item.
func (h *ItemHandler) CreateCustom(c *gin.Context) {
	p := currentPlayer(c, h.db)
	if p == nil {
		return
	}
	var req customItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	// Consumables need a parseable effect spec; objects may have none.
	if req.ItemType != model.ItemTypeObject && effect.ParseSpec(req.Effects) == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "effects spec is missing or malformed"})
		return
	}

	item := model.CustomItem{
		ID:               model.CustomItemPrefix + uuid.NewString(),
		Name:             req.Name,
		Description:      req.Description,
		Price:            req.Price,
		ItemType:         req.ItemType,
		Effects:          datatypes.JSON(req.Effects),
		Icon:             req.Icon,
		CreatorAccountID: mw.GetAccountID(c),
	}
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		_, err := inventory.Grant(tx, p.ID, item.ID, 1, "")
		return err
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item})
}
