package model

import "time"

// Transaction kinds.
const (
	TxKindTransfer = "transfer"
	TxKindPurchase = "purchase"
	TxKindDivorce  = "divorce"
	TxKindDelivery = "delivery"
)

// Transaction records one balance movement between two parties. Store-side
// parties are recorded by store ID in the counterparty field.
type Transaction struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SenderID     int64     `gorm:"index:idx_tx_sender" json:"sender_id"`
	ReceiverID   int64     `gorm:"index:idx_tx_receiver" json:"receiver_id"`
	Counterparty string    `gorm:"size:40" json:"counterparty"` // store ID or display name
	Amount       int64     `gorm:"not null" json:"amount"`
	Kind         string    `gorm:"size:16;not null" json:"kind"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Sale records one line item sold by a store, written when an order is
// approved (one Sale per line item).
type Sale struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	StoreID   string    `gorm:"index:idx_sale_store;size:32;not null" json:"store_id"`
	BuyerID   int64     `gorm:"not null" json:"buyer_id"`
	ItemID    string    `gorm:"size:44;not null" json:"item_id"`
	Qty       int       `gorm:"not null" json:"qty"`
	UnitPrice int64     `gorm:"not null" json:"unit_price"`
	Total     int64     `gorm:"not null" json:"total"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
