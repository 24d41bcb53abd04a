package model

import (
	"time"

	"gorm.io/datatypes"
)

// Order statuses (manager approval).
const (
	OrderPending  = "pending"
	OrderApproved = "approved"
	OrderRejected = "rejected"
)

// Courier statuses for delivery orders. The courier stage advances
// independently of the manager stage.
const (
	CourierWaiting   = "waiting"
	CourierAccepted  = "accepted"
	CourierRejected  = "rejected"
	CourierDelivered = "delivered"
)

// OrderLine is one line item inside an order's JSON snapshot.
type OrderLine struct {
	ItemID    string `json:"item_id"`
	Name      string `json:"name"`
	Qty       int    `json:"qty"`
	UnitPrice int64  `json:"unit_price"`
}

// Order is a cart snapshot awaiting manager approval. No funds move and no
// inventory is granted until a manager approves it.
type Order struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	StoreID   string         `gorm:"index:idx_order_store;size:32;not null" json:"store_id"`
	BuyerID   int64          `gorm:"index:idx_order_buyer;not null" json:"buyer_id"`
	Lines     datatypes.JSON `json:"lines"` // []OrderLine
	Total     int64          `gorm:"not null" json:"total"`
	Status    string         `gorm:"size:16;default:'pending'" json:"status"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// DeliveryOrder is an order fulfilled by a courier. ManagerStatus and
// CourierStatus transition independently: a manager may approve before or
// after a courier accepts, and funds only move on manager approval.
type DeliveryOrder struct {
	ID               int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	StoreID          string         `gorm:"index:idx_delivery_store;size:32;not null" json:"store_id"`
	BuyerID          int64          `gorm:"index:idx_delivery_buyer;not null" json:"buyer_id"`
	Lines            datatypes.JSON `json:"lines"` // []OrderLine
	Total            int64          `gorm:"not null" json:"total"`
	ManagerStatus    string         `gorm:"size:16;default:'pending'" json:"manager_status"`
	CourierStatus    string         `gorm:"size:16;default:'waiting'" json:"courier_status"`
	CourierAccountID *int64         `json:"courier_account_id"`
	Address          string         `gorm:"size:128" json:"address"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}
