package model

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Item types.
const (
	ItemTypeFood   = "food"
	ItemTypeDrink  = "drink"
	ItemTypeObject = "object"
)

// CustomItemPrefix marks item IDs that resolve against custom_items
// instead of the static catalog.
const CustomItemPrefix = "custom_"

// IsCustomItemID reports whether an item ID belongs to a user-created item.
func IsCustomItemID(id string) bool {
	return strings.HasPrefix(id, CustomItemPrefix)
}

// CustomItem is a user-created catalog entry persisted in the database.
// Effects uses the same JSON shape as catalog items: a single
// {"type","value","message"} object or {"type":"multiple","effects":[...]}.
type CustomItem struct {
	ID               string         `gorm:"primaryKey;size:44" json:"id"`
	Name             string         `gorm:"size:64;not null" json:"name"`
	Description      string         `gorm:"type:text" json:"description"`
	Price            int64          `gorm:"default:0" json:"price"`
	ItemType         string         `gorm:"size:16;default:'object'" json:"item_type"`
	Effects          datatypes.JSON `json:"effects"`
	Icon             string         `gorm:"size:128" json:"icon"`
	CreatorAccountID int64          `gorm:"index;not null" json:"creator_account_id"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// Inventory is one item stack owned by a player. SenderName is set when the
// stack arrived as a gift or delivery; such rows also feed the received
// history projection.
type Inventory struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	PlayerID   int64      `gorm:"index:idx_player_inventory;not null" json:"player_id"`
	ItemID     string     `gorm:"size:44;not null" json:"item_id"`
	Qty        int        `gorm:"default:1" json:"qty"`
	SenderName string     `gorm:"size:40" json:"sender_name"`
	ReceivedAt *time.Time `json:"received_at"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
