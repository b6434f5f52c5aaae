package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnabled_BooleanValues(t *testing.T) {
	s, err := Parse("a=on,b=off,c=true,d=false,e=1,f=0")
	require.NoError(t, err)

	for _, name := range []string{"a", "c", "e"} {
		assert.True(t, s.Enabled(name, 1), name)
		assert.True(t, s.Enabled(name, 0), "fully enabled flags include anonymous callers: %s", name)
	}
	for _, name := range []string{"b", "d", "f"} {
		assert.False(t, s.Enabled(name, 1), name)
	}
	assert.False(t, s.Enabled("missing", 1))
}

func TestEnabled_Percentages(t *testing.T) {
	s, err := Parse("always=100%,never=0%,canary=25%")
	require.NoError(t, err)

	assert.True(t, s.Enabled("always", 7))
	assert.False(t, s.Enabled("never", 7))
	assert.False(t, s.Enabled("canary", 0))

	first := s.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, s.Enabled("canary", 42))
	}

	on := 0
	for id := uint(1); id <= 1000; id++ {
		if s.Enabled("canary", id) {
			on++
		}
	}
	assert.InDelta(t, 250, on, 80)
}

func TestParse_Normalizes(t *testing.T) {
	s, err := Parse(" Live_Feed = ON , , beta=20% ")
	require.NoError(t, err)

	assert.Equal(t, []string{"beta", "live_feed"}, s.Names())
	assert.Equal(t, map[string]string{"beta": "20%", "live_feed": "on"}, s.Raw())
	assert.True(t, s.Enabled(LiveFeed, 0))
	assert.Equal(t, false, s.Evaluate(0)["beta"])
}

func TestParse_Rejects(t *testing.T) {
	for _, raw := range []string{"bad", "x=", "=on", "x=maybe", "x=150%", "x=-5%", "x=abc%"} {
		_, err := Parse(raw)
		assert.Error(t, err, raw)
	}
}

func TestNilSet(t *testing.T) {
	var s *Set
	assert.False(t, s.Enabled(LiveFeed, 1))
	assert.Empty(t, s.Evaluate(1))
	assert.Empty(t, s.Raw())
}
