package model

import "time"

// Relationship kinds.
const (
	RelFriendship = "friendship"
	RelDating     = "dating"
	RelEngagement = "engagement"
	RelMarriage   = "marriage"
)

// Proposal statuses.
const (
	ProposalPending  = "pending"
	ProposalAccepted = "accepted"
	ProposalRejected = "rejected"
	ProposalCanceled = "canceled"
)

// Proposal is a pending relationship offer from one player to another.
// Ring kinds (dating/engagement/marriage) reference the ring item used.
type Proposal struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	FromPlayer int64     `gorm:"index:idx_proposal_from;not null" json:"from_player"`
	ToPlayer   int64     `gorm:"index:idx_proposal_to;not null" json:"to_player"`
	Kind       string    `gorm:"size:16;not null" json:"kind"`
	RingItemID string    `gorm:"size:44" json:"ring_item_id"`
	Status     string    `gorm:"size:16;default:'pending'" json:"status"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Relationship links two players. PlayerA is always the smaller ID so the
// pair has one canonical row.
type Relationship struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PlayerA   int64     `gorm:"index:idx_rel_a;not null" json:"player_a"`
	PlayerB   int64     `gorm:"index:idx_rel_b;not null" json:"player_b"`
	Kind      string    `gorm:"size:16;not null" json:"kind"`
	StartedAt time.Time `gorm:"autoCreateTime" json:"started_at"`
}
