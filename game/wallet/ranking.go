package wallet

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/vidarp/server/model"
)

const rankingKey = "ranking:wealth"

// RankEntry is one row of the wealth ranking.
type RankEntry struct {
	PlayerID int64 `json:"player_id"`
	Balance  int64 `json:"balance"`
}

// RefreshRanking rebuilds the cached wealth ZSet from the top wallet
// balances. Runs on a scheduler tick; reads go through TopBalances.
func (svc *Service) RefreshRanking(ctx context.Context, top int) error {
	if top <= 0 {
		top = 100
	}
	var players []model.Player
	if err := svc.db.WithContext(ctx).
		Order("wallet_balance DESC").Limit(top).Find(&players).Error; err != nil {
		return err
	}
	for _, p := range players {
		member := strconv.FormatInt(p.ID, 10)
		if err := svc.cache.ZAdd(ctx, rankingKey, float64(p.WalletBalance), member); err != nil {
			svc.logger.Warn("ranking zadd failed", zap.Int64("player_id", p.ID), zap.Error(err))
		}
	}
	return nil
}

// TopBalances reads the top n entries of the cached wealth ranking.
func (svc *Service) TopBalances(ctx context.Context, n int) ([]RankEntry, error) {
	if n <= 0 || n > 100 {
		n = 10
	}
	members, err := svc.cache.ZRevRange(ctx, rankingKey, 0, int64(n-1))
	if err != nil {
		return nil, err
	}
	out := make([]RankEntry, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		score, err := svc.cache.ZScore(ctx, rankingKey, m)
		if err != nil {
			continue
		}
		out = append(out, RankEntry{PlayerID: id, Balance: int64(score)})
	}
	return out, nil
}
