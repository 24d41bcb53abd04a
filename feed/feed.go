// Package feed publishes row-change notifications to the pub/sub layer.
// Clients listening on the SSE stream re-fetch the affected resource; no
// deltas are carried, only {table, event, row id}.
package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/vidarp/server/cache"
)

// Event names.
const (
	EventInsert = "insert"
	EventUpdate = "update"
	EventDelete = "delete"
)

// AnnounceChannel carries broadcasts every connected client receives.
const AnnounceChannel = "announce"

// PlayerChannel is the channel a single player's notifications go to.
func PlayerChannel(playerID int64) string {
	return fmt.Sprintf("player:%d", playerID)
}

// Notice is the payload published for one row change.
type Notice struct {
	Table string `json:"table"`
	Event string `json:"event"`
	RowID int64  `json:"row_id"`
}

// Publisher fans row-change notices out to player channels. Publish
// failures are logged, never surfaced: the feed is advisory and the row
// change has already committed.
type Publisher struct {
	ps     cache.PubSub
	logger *zap.Logger
}

func NewPublisher(ps cache.PubSub, logger *zap.Logger) *Publisher {
	return &Publisher{ps: ps, logger: logger}
}

// Notify publishes a notice to each player's channel.
func (p *Publisher) Notify(ctx context.Context, n Notice, playerIDs ...int64) {
	raw, err := json.Marshal(n)
	if err != nil {
		return
	}
	for _, id := range playerIDs {
		if err := p.ps.Publish(ctx, PlayerChannel(id), string(raw)); err != nil {
			p.logger.Warn("feed publish failed",
				zap.Int64("player_id", id),
				zap.String("table", n.Table),
				zap.Error(err))
		}
	}
}

// Announce publishes a notice on the broadcast channel.
func (p *Publisher) Announce(ctx context.Context, n Notice) {
	raw, err := json.Marshal(n)
	if err != nil {
		return
	}
	if err := p.ps.Publish(ctx, AnnounceChannel, string(raw)); err != nil {
		p.logger.Warn("feed announce failed", zap.String("table", n.Table), zap.Error(err))
	}
}
