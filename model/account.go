package model

import (
	"strings"
	"time"
)

// Account roles.
const (
	RolePlayer  = "player"
	RoleManager = "manager"
	RoleCourier = "courier"
	RoleMedic   = "medic"
	RoleAdmin   = "admin"
)

// Account represents a registered user.
// Username carries a 4-digit discriminator suffix ("ana#0412") so display
// names do not have to be globally unique.
type Account struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:40;not null" json:"username"`
	PasswordHash string     `gorm:"size:64;not null" json:"-"`
	Role         string     `gorm:"size:16;default:'player'" json:"role"`
	Status       int        `gorm:"default:1" json:"status"` // 0=banned 1=normal
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	LastLoginIP  string     `gorm:"size:45" json:"last_login_ip"`
}

// DisplayName strips the "#NNNN" discriminator for presentation.
func (a *Account) DisplayName() string {
	return DisplayName(a.Username)
}

// DisplayName strips a trailing "#NNNN" discriminator from a username.
func DisplayName(username string) string {
	i := strings.LastIndexByte(username, '#')
	if i < 0 {
		return username
	}
	suffix := username[i+1:]
	if len(suffix) != 4 {
		return username
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return username
		}
	}
	return username[:i]
}
