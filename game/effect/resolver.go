// Package effect turns item effect specs into clamped stat deltas.
package effect

import (
	"encoding/json"

	"github.com/vidarp/server/catalog"
	"github.com/vidarp/server/game/stats"
	"github.com/vidarp/server/model"
)

// Delta is the accumulated stat change produced by resolving an effect
// spec. Values are raw (unclamped); clamping happens when the delta is
// applied to a player.
type Delta struct {
	Health     int
	Hunger     int
	Mood       int
	Happiness  int
	Energy     int
	Alcoholism int
	Messages   []string
}

// IsZero reports whether the delta changes nothing.
func (d Delta) IsZero() bool {
	return d.Health == 0 && d.Hunger == 0 && d.Mood == 0 &&
		d.Happiness == 0 && d.Energy == 0 && d.Alcoholism == 0
}

// Context carries the item metadata that changes how effects resolve.
type Context struct {
	// HappinessStore routes mood/hunger/energy effects into happiness for
	// stores flagged that way (ice cream, adult novelty).
	HappinessStore bool
	// ItemType is the consumed item's type; drinks always register a
	// transient mood message even without a mood delta.
	ItemType string
}

// Resolve accumulates an effect spec into a Delta. The spec may be a single
// effect, a composite ("multiple") effect, or nil. Sub-effects with unknown
// or empty types are skipped; nothing here is a fatal error.
func Resolve(spec *catalog.Effect, ctx Context) Delta {
	var d Delta
	accumulate(spec, &d)

	if ctx.HappinessStore && d.Happiness == 0 {
		// Derive happiness from the first non-zero of mood/hunger/energy.
		switch {
		case d.Mood != 0:
			d.Happiness = d.Mood
		case d.Hunger != 0:
			d.Happiness = d.Hunger
		case d.Energy != 0:
			d.Happiness = d.Energy
		}
	}
	return d
}

func accumulate(e *catalog.Effect, d *Delta) {
	if e == nil {
		return
	}
	switch e.Type {
	case catalog.EffectMultiple:
		for i := range e.Effects {
			accumulate(&e.Effects[i], d)
		}
	case catalog.EffectHealth:
		d.Health += e.Value
	case catalog.EffectHunger:
		d.Hunger += e.Value
	case catalog.EffectMood:
		d.Mood += e.Value
		if e.Message != "" {
			d.Messages = append(d.Messages, e.Message)
		}
	case catalog.EffectHappiness:
		d.Happiness += e.Value
	case catalog.EffectEnergy:
		d.Energy += e.Value
	case catalog.EffectAlcoholism:
		d.Alcoholism += e.Value
	default:
		// Unknown or missing type: skip.
	}
}

// ResolveList accumulates a plain list of effects, for callers holding the
// array form instead of the tagged composite.
func ResolveList(specs []catalog.Effect, ctx Context) Delta {
	composite := &catalog.Effect{Type: catalog.EffectMultiple, Effects: specs}
	return Resolve(composite, ctx)
}

// Apply adds the delta to the player's stats, clamping each to [0,100].
func Apply(p *model.Player, d Delta) {
	p.Health = stats.Apply(p.Health, d.Health)
	p.Hunger = stats.Apply(p.Hunger, d.Hunger)
	p.Mood = stats.Apply(p.Mood, d.Mood)
	p.Happiness = stats.Apply(p.Happiness, d.Happiness)
	p.Energy = stats.Apply(p.Energy, d.Energy)
	p.Alcoholism = stats.Apply(p.Alcoholism, d.Alcoholism)
}

// ParseSpec decodes a JSON effect spec as stored on custom items. It accepts
// either a single effect object or a bare array of effects. Malformed JSON
// yields a nil spec, not an error: custom item effects degrade to no-ops.
func ParseSpec(raw []byte) *catalog.Effect {
	if len(raw) == 0 {
		return nil
	}
	var single catalog.Effect
	if err := json.Unmarshal(raw, &single); err == nil && single.Type != "" {
		return &single
	}
	var list []catalog.Effect
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return &catalog.Effect{Type: catalog.EffectMultiple, Effects: list}
	}
	return nil
}
