package inventory

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/vidarp/server/model"
)

// MaxStack is the per-(player,item) quantity cap. Not a database
// constraint; every grant path goes through Grant so the cap holds.
const MaxStack = 10

var ErrNothingToGrant = errors.New("inventory: quantity must be positive")

// GrantResult reports how much of a grant landed. Truncated is the part
// that did not fit under the stack cap; callers surface it to the user.
type GrantResult struct {
	Granted   int `json:"granted"`
	Truncated int `json:"truncated"`
}

// Grant adds qty of itemID to the player's stack, merging with an existing
// row and truncating at MaxStack. sender is recorded on rows that arrive as
// gifts or deliveries; pass "" for purchases. tx may be a transaction or a
// plain DB handle.
func Grant(tx *gorm.DB, playerID int64, itemID string, qty int, sender string) (GrantResult, error) {
	if qty <= 0 {
		return GrantResult{}, ErrNothingToGrant
	}

	var row model.Inventory
	err := tx.Where("player_id = ? AND item_id = ?", playerID, itemID).First(&row).Error
	switch {
	case err == nil:
		room := MaxStack - row.Qty
		if room <= 0 {
			return GrantResult{Truncated: qty}, nil
		}
		granted := qty
		if granted > room {
			granted = room
		}
		updates := map[string]interface{}{"qty": row.Qty + granted}
		if sender != "" {
			now := time.Now()
			updates["sender_name"] = sender
			updates["received_at"] = &now
		}
		if err := tx.Model(&model.Inventory{}).Where("id = ?", row.ID).
			Updates(updates).Error; err != nil {
			return GrantResult{}, err
		}
		return GrantResult{Granted: granted, Truncated: qty - granted}, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		granted := qty
		if granted > MaxStack {
			granted = MaxStack
		}
		row = model.Inventory{PlayerID: playerID, ItemID: itemID, Qty: granted}
		if sender != "" {
			now := time.Now()
			row.SenderName = sender
			row.ReceivedAt = &now
		}
		if err := tx.Create(&row).Error; err != nil {
			return GrantResult{}, err
		}
		return GrantResult{Granted: granted, Truncated: qty - granted}, nil

	default:
		return GrantResult{}, err
	}
}

var ErrNotEnough = errors.New("inventory: not enough of the item")

// Consume removes qty of itemID from the player's stack, deleting the row
// when it reaches zero. Removing more than is held fails with ErrNotEnough
// and writes nothing.
func Consume(tx *gorm.DB, playerID int64, itemID string, qty int) error {
	if qty <= 0 {
		return ErrNothingToGrant
	}
	var row model.Inventory
	if err := tx.Where("player_id = ? AND item_id = ?", playerID, itemID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotEnough
		}
		return err
	}
	if row.Qty < qty {
		return ErrNotEnough
	}
	if row.Qty == qty {
		return tx.Delete(&model.Inventory{}, row.ID).Error
	}
	return tx.Model(&model.Inventory{}).Where("id = ?", row.ID).
		Update("qty", row.Qty-qty).Error
}
