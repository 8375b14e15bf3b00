package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHHI(t *testing.T) {
	tests := []struct {
		name string
		dist map[string]float64
		want float64
	}{
		{name: "empty", dist: nil, want: 0},
		{name: "zero total", dist: map[string]float64{"a": 0, "b": 0}, want: 0},
		{name: "single holder", dist: map[string]float64{"a": 32}, want: 1},
		{name: "even split of four", dist: map[string]float64{"a": 10, "b": 10, "c": 10, "d": 10}, want: 0.25},
		{name: "negative values ignored", dist: map[string]float64{"a": 10, "b": -5}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, HHI(tt.dist), 1e-9)
		})
	}
}

func TestHHI_Skewed(t *testing.T) {
	// 80/20 split: 0.64 + 0.04
	got := HHI(map[string]float64{"big": 80, "small": 20})
	assert.InDelta(t, 0.68, got, 1e-9)
}

func TestTopShare(t *testing.T) {
	key, share := TopShare(map[string]float64{"lido": 60, "rocketpool": 40})
	assert.Equal(t, "lido", key)
	assert.InDelta(t, 0.6, share, 1e-9)

	key, share = TopShare(nil)
	assert.Equal(t, "", key)
	assert.Zero(t, share)
}

func TestTopShare_TieBreaksDeterministically(t *testing.T) {
	// Equal values must always resolve to the same key regardless of map
	// iteration order.
	for i := 0; i < 50; i++ {
		key, share := TopShare(map[string]float64{"b": 10, "a": 10, "c": 10})
		assert.Equal(t, "a", key)
		assert.InDelta(t, 1.0/3, share, 1e-9)
	}
}

func TestClampAndCap(t *testing.T) {
	assert.Equal(t, 0.0, clamp(-3, 0, 25))
	assert.Equal(t, 25.0, clamp(30, 0, 25))
	assert.Equal(t, 12.5, clamp(12.5, 0, 25))

	assert.Equal(t, 0.0, capAt(-1, 10))
	assert.Equal(t, 10.0, capAt(99, 10))
	assert.Equal(t, 4.0, capAt(4, 10))
}
