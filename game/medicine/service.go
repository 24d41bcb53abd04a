// Package medicine resolves medicine items against a player's active
// diseases and keeps the numeric disease stat consistent with the set.
package medicine

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vidarp/server/game/stats"
	"github.com/vidarp/server/model"
)

const (
	// HealthBonus is restored when a cure lands, clamped to the stat cap.
	HealthBonus = 20
	// DiseaseStatDrop is subtracted from the disease stat per cure; the
	// stat goes straight to 0 when the disease set empties.
	DiseaseStatDrop = 15
)

// cures maps medicine item name → the disease it treats.
var cures = map[string]string{
	"Complexo Vitamínico": "Desnutrição",
	"Antigripal":          "Gripe",
	"Antibiótico":         "Infecção",
	"Soro Caseiro":        "Desidratação",
	"Analgésico":          "Enxaqueca",
}

// CureFor returns the disease the given medicine treats, if any.
func CureFor(itemName string) (string, bool) {
	d, ok := cures[itemName]
	return d, ok
}

// IsMedicine reports whether the item name is a known medicine.
func IsMedicine(itemName string) bool {
	_, ok := cures[itemName]
	return ok
}

type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// TryCure consumes a medicine against the player's disease set. When the
// mapped disease is active it removes it, restores HealthBonus health and
// lowers the disease stat, all in one transaction, and returns true. When
// the item is not a medicine or the player does not carry the mapped
// disease, nothing is written and the result is false ("ineffective").
func (svc *Service) TryCure(ctx context.Context, playerID int64, itemName string) (bool, error) {
	disease, ok := cures[itemName]
	if !ok {
		return false, nil
	}

	cured := false
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("player_id = ? AND name = ?", playerID, disease).
			Delete(&model.PlayerDisease{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		var remaining int64
		if err := tx.Model(&model.PlayerDisease{}).
			Where("player_id = ?", playerID).Count(&remaining).Error; err != nil {
			return err
		}

		var p model.Player
		if err := tx.First(&p, playerID).Error; err != nil {
			return err
		}
		p.Health = stats.Apply(p.Health, HealthBonus)
		if remaining == 0 {
			p.DiseaseStat = 0
		} else {
			p.DiseaseStat = stats.Apply(p.DiseaseStat, -DiseaseStatDrop)
		}
		if err := tx.Model(&model.Player{}).Where("id = ?", p.ID).
			Updates(map[string]interface{}{
				"health":       p.Health,
				"disease_stat": p.DiseaseStat,
			}).Error; err != nil {
			return err
		}

		cured = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if cured {
		svc.logger.Info("disease cured",
			zap.Int64("player_id", playerID),
			zap.String("medicine", itemName),
			zap.String("disease", disease))
	}
	return cured, nil
}

// Contract adds a disease to the player's set and raises the disease stat.
// Adding a disease the player already has is a no-op.
func (svc *Service) Contract(ctx context.Context, playerID int64, disease string, statRaise int) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&model.PlayerDisease{}).
			Where("player_id = ? AND name = ?", playerID, disease).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}
		if err := tx.Create(&model.PlayerDisease{PlayerID: playerID, Name: disease}).Error; err != nil {
			return err
		}
		var p model.Player
		if err := tx.First(&p, playerID).Error; err != nil {
			return err
		}
		return tx.Model(&model.Player{}).Where("id = ?", p.ID).
			Update("disease_stat", stats.Apply(p.DiseaseStat, statRaise)).Error
	})
}

// Reconcile forces the disease stat to 0 when the player's disease set is
// empty. The set and the stat are written independently elsewhere, so they
// can drift; this is the repair path.
func (svc *Service) Reconcile(ctx context.Context, playerID int64) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active int64
		if err := tx.Model(&model.PlayerDisease{}).
			Where("player_id = ?", playerID).Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return nil
		}
		res := tx.Model(&model.Player{}).
			Where("id = ? AND disease_stat <> 0", playerID).
			Update("disease_stat", 0)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			svc.logger.Info("disease stat repaired", zap.Int64("player_id", playerID))
		}
		return nil
	})
}

// ReconcileAll repairs every player whose disease stat is stale, returning
// the number of rows fixed. Runs from the scheduler and the admin endpoint.
func (svc *Service) ReconcileAll(ctx context.Context) (int64, error) {
	res := svc.db.WithContext(ctx).
		Exec(`UPDATE players SET disease_stat = 0
		      WHERE disease_stat <> 0
		        AND id NOT IN (SELECT DISTINCT player_id FROM player_diseases)`)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		svc.logger.Info("disease reconciliation", zap.Int64("repaired", res.RowsAffected))
	}
	return res.RowsAffected, nil
}
