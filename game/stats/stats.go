package stats

// Stat bounds. Every avatar stat lives in [0,100] no matter how large a
// delta an item effect produces.
const (
	Min = 0
	Max = 100
)

// Clamp bounds a stat value to [0,100].
func Clamp(v int) int {
	if v < Min {
		return Min
	}
	if v > Max {
		return Max
	}
	return v
}

// Apply adds a delta to a stat and clamps the result.
func Apply(current, delta int) int {
	return Clamp(current + delta)
}

// DecayToward moves a stat toward floor by step, never crossing it.
func DecayToward(current, step, floor int) int {
	next := current - step
	if next < floor {
		return floor
	}
	return next
}
