package simplex

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalOrder(t *testing.T) {
	a := New(7, 2, 5)
	b := New(5, 7, 2)
	assert.Equal(t, Simplex{2, 5, 7}, a)
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, 2, a.Dim())
}

func TestKeyOrderMatchesCompare(t *testing.T) {
	plexes := []Simplex{
		New(0, 1), New(0, 2), New(1, 2), New(1, 3), New(2, 3),
		New(0, 1<<40), New(1<<40, 1<<41),
	}
	for i := range plexes {
		for j := range plexes {
			c := Compare(plexes[i], plexes[j])
			switch {
			case plexes[i].Key() < plexes[j].Key():
				assert.Equal(t, -1, c)
			case plexes[i].Key() > plexes[j].Key():
				assert.Equal(t, 1, c)
			default:
				assert.Equal(t, 0, c)
			}
		}
	}
}

func TestFromKeyRoundTrip(t *testing.T) {
	s := New(3, 1<<50, 42, 0)
	assert.True(t, s.Equal(FromKey(s.Key())))
}

func TestDownward(t *testing.T) {
	tri := New(4, 9, 2)
	edges := tri.Downward(1)
	require.Len(t, edges, 3)
	assert.Equal(t, Simplex{2, 4}, edges[0])
	assert.Equal(t, Simplex{2, 9}, edges[1])
	assert.Equal(t, Simplex{4, 9}, edges[2])

	verts := tri.Downward(0)
	require.Len(t, verts, 3)

	tet := New(0, 1, 2, 3)
	assert.Len(t, tet.Downward(2), 4)
	assert.Len(t, tet.Downward(1), 6)
	assert.Len(t, tet.Downward(0), 4)

	// The simplex is its own unique Dim()-dimensional sub-simplex
	self := tet.Downward(3)
	require.Len(t, self, 1)
	assert.True(t, tet.Equal(self[0]))

	// All sub-simplices come out in structural order
	for dd := 0; dd < 3; dd++ {
		down := tet.Downward(dd)
		assert.True(t, sort.SliceIsSorted(down, func(a, b int) bool {
			return Compare(down[a], down[b]) < 0
		}))
	}
}

func TestHashSpread(t *testing.T) {
	seen := make(map[uint64]bool)
	for v := uint64(0); v < 100; v++ {
		seen[New(v, v+1, v+2).Hash()] = true
	}
	assert.Equal(t, 100, len(seen))
}

func TestSortedDistribution(t *testing.T) {
	d := NewSortedDistribution([]uint64{3, 0, 5, 2})
	assert.Equal(t, SortedDistribution{0, 3, 3, 8, 10}, d)

	assert.Equal(t, 0, d.RankOf(0))
	assert.Equal(t, 0, d.RankOf(2))
	assert.Equal(t, 2, d.RankOf(3)) // rank 1 owns an empty range
	assert.Equal(t, 2, d.RankOf(7))
	assert.Equal(t, 3, d.RankOf(9))
	assert.Panics(t, func() { d.RankOf(10) })

	assert.Equal(t, uint64(4), d.LocalIndex(2, 7))
	assert.Panics(t, func() { d.LocalIndex(2, 8) })
}
