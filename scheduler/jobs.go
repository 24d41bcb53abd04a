package scheduler

import (
	"context"

	"go.uber.org/zap"

	"github.com/vidarp/server/config"
	"github.com/vidarp/server/game/medicine"
	"github.com/vidarp/server/game/stats"
	"github.com/vidarp/server/game/wallet"
)

// RegisterGameJobs wires the background loops: hunger and sobriety decay,
// disease-stat reconciliation and the wealth ranking refresh. Intervals
// come from the game config.
func RegisterGameJobs(s *Scheduler, cfg config.GameConfig, decay *stats.Decay, med *medicine.Service, w *wallet.Service, logger *zap.Logger) {
	s.AddTicker("hunger_decay", cfg.HungerDecayInterval, func() {
		decay.HungerTick(cfg.HungerDecayStep)
	})

	s.AddTicker("sobriety_decay", cfg.SobrietyInterval, func() {
		decay.SobrietyTick(cfg.SobrietyStep)
	})

	s.AddTicker("disease_reconcile", cfg.ReconcileInterval, func() {
		if _, err := med.ReconcileAll(context.Background()); err != nil {
			logger.Error("disease reconcile tick failed", zap.Error(err))
		}
	})

	s.AddTicker("wealth_ranking", cfg.RankingInterval, func() {
		if err := w.RefreshRanking(context.Background(), 100); err != nil {
			logger.Error("ranking refresh failed", zap.Error(err))
		}
	})
}
