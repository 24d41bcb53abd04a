package effect

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vidarp/server/cache"
)

// DefaultMoodTTL is how long a transient mood message stays visible.
const DefaultMoodTTL = 60 * time.Minute

// MoodEffect is one time-boxed message shown on a player's profile after a
// mood-affecting item or a drink.
type MoodEffect struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Transients stores per-player transient mood effects in the cache. The
// list is pruned lazily: expired entries are dropped on every read.
type Transients struct {
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewTransients creates a Transients store. ttl <= 0 uses DefaultMoodTTL.
func NewTransients(c cache.Cache, ttl time.Duration, logger *zap.Logger) *Transients {
	if ttl <= 0 {
		ttl = DefaultMoodTTL
	}
	return &Transients{cache: c, ttl: ttl, logger: logger}
}

func moodKey(playerID int64) string {
	return fmt.Sprintf("moodfx:%d", playerID)
}

// Add registers a transient message for the player.
func (t *Transients) Add(ctx context.Context, playerID int64, message string) error {
	if message == "" {
		return nil
	}
	list, err := t.load(ctx, playerID)
	if err != nil {
		return err
	}
	list = prune(list)
	list = append(list, MoodEffect{Message: message, ExpiresAt: time.Now().Add(t.ttl)})
	return t.store(ctx, playerID, list)
}

// List returns the player's unexpired transient effects, rewriting the
// cached list when pruning removed anything.
func (t *Transients) List(ctx context.Context, playerID int64) ([]MoodEffect, error) {
	list, err := t.load(ctx, playerID)
	if err != nil {
		return nil, err
	}
	pruned := prune(list)
	if len(pruned) != len(list) {
		if err := t.store(ctx, playerID, pruned); err != nil {
			t.logger.Warn("mood effect prune write failed",
				zap.Int64("player_id", playerID), zap.Error(err))
		}
	}
	return pruned, nil
}

func (t *Transients) load(ctx context.Context, playerID int64) ([]MoodEffect, error) {
	raw, err := t.cache.Get(ctx, moodKey(playerID))
	if err != nil {
		if cache.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var list []MoodEffect
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		// A corrupt entry is dropped rather than surfaced.
		return nil, nil
	}
	return list, nil
}

func (t *Transients) store(ctx context.Context, playerID int64, list []MoodEffect) error {
	if len(list) == 0 {
		return t.cache.Del(ctx, moodKey(playerID))
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}
	// The key outlives the longest entry slightly; lazy pruning handles
	// the rest.
	return t.cache.Set(ctx, moodKey(playerID), string(raw), t.ttl+time.Minute)
}

func prune(list []MoodEffect) []MoodEffect {
	now := time.Now()
	out := list[:0]
	for _, e := range list {
		if e.ExpiresAt.After(now) {
			out = append(out, e)
		}
	}
	return out
}

