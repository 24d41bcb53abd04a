package model

import "time"

// Player holds the avatar state for one account. All stats are integers
// kept within [0,100]; WalletBalance is whole currency units.
type Player struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID     int64     `gorm:"uniqueIndex;not null" json:"account_id"`
	Health        int       `gorm:"default:100" json:"health"`
	Hunger        int       `gorm:"default:100" json:"hunger"`
	Mood          int       `gorm:"default:50" json:"mood"`
	Happiness     int       `gorm:"default:50" json:"happiness"`
	Energy        int       `gorm:"default:100" json:"energy"`
	Alcoholism    int       `gorm:"default:0" json:"alcoholism"`
	DiseaseStat   int       `gorm:"default:0" json:"disease_stat"`
	WalletBalance int64     `gorm:"default:0" json:"wallet_balance"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// PlayerDisease is one entry in a player's active-disease set.
// Presence/absence only; the numeric DiseaseStat on Player is reconciled
// against this set by the medicine service.
type PlayerDisease struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PlayerID  int64     `gorm:"index:idx_player_disease;not null" json:"player_id"`
	Name      string    `gorm:"size:64;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
