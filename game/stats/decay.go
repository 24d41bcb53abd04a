package stats

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vidarp/server/model"
)

// Decay applies the periodic stat drains. It runs under the scheduler; the
// client never computes decay itself.
type Decay struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewDecay creates a Decay job runner.
func NewDecay(db *gorm.DB, logger *zap.Logger) *Decay {
	return &Decay{db: db, logger: logger}
}

// HungerTick lowers every player's hunger by step, floored at 0.
func (d *Decay) HungerTick(step int) {
	if step <= 0 {
		return
	}
	err := d.db.Model(&model.Player{}).
		Where("hunger > 0").
		Update("hunger", gorm.Expr("CASE WHEN hunger - ? < 0 THEN 0 ELSE hunger - ? END", step, step)).Error
	if err != nil {
		d.logger.Warn("hunger decay failed", zap.Error(err))
	}
}

// SobrietyTick lowers every player's alcoholism by step toward 0.
func (d *Decay) SobrietyTick(step int) {
	if step <= 0 {
		return
	}
	err := d.db.Model(&model.Player{}).
		Where("alcoholism > 0").
		Update("alcoholism", gorm.Expr("CASE WHEN alcoholism - ? < 0 THEN 0 ELSE alcoholism - ? END", step, step)).Error
	if err != nil {
		d.logger.Warn("sobriety decay failed", zap.Error(err))
	}
}
