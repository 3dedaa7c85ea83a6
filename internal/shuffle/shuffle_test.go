package shuffle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShuffleIsStable(t *testing.T) {
	s := New(4)
	first := s.Partition("user-42")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, s.Partition("user-42"))
	}
}

func TestShuffleWithinRange(t *testing.T) {
	s := New(3)
	for _, key := range []string{"a", "b", "c", "d", "e", "f"} {
		p := s.Partition(key)
		assert.GreaterOrEqual(t, p, 0)
		assert.Less(t, p, 3)
	}
}

func TestShuffleDistributesDifferentKeys(t *testing.T) {
	s := New(2)
	seen := map[int]bool{}
	for _, key := range []string{"k0", "k1", "k2", "k3", "k4", "k5", "k6", "k7"} {
		seen[s.Partition(key)] = true
	}
	assert.Len(t, seen, 2, "expected keys to land in both partitions")
}
