package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-5))
	assert.Equal(t, 0, Clamp(0))
	assert.Equal(t, 55, Clamp(55))
	assert.Equal(t, 100, Clamp(100))
	assert.Equal(t, 100, Clamp(1000))
}

func TestApply_ClampsBothEnds(t *testing.T) {
	assert.Equal(t, 70, Apply(40, 30))
	assert.Equal(t, 100, Apply(90, 50))
	assert.Equal(t, 0, Apply(10, -80))
}

func TestDecayToward(t *testing.T) {
	assert.Equal(t, 8, DecayToward(10, 2, 0))
	assert.Equal(t, 0, DecayToward(1, 2, 0))
	assert.Equal(t, 0, DecayToward(0, 2, 0))
}
