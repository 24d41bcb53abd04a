package model

import "time"

// Store is the mutable side of a catalog store: its balance and manager.
// The item listing itself lives in the static catalog files.
type Store struct {
	ID               string    `gorm:"primaryKey;size:32" json:"id"`
	Name             string    `gorm:"size:64;not null" json:"name"`
	Balance          int64     `gorm:"default:0" json:"balance"`
	ManagerAccountID *int64    `json:"manager_account_id"`
	HappinessStore   bool      `gorm:"default:false" json:"happiness_store"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}
