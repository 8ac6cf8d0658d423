package simplex

import (
	"fmt"
	"sort"
)

// SortedDistribution holds the prefix-sum boundaries of a contiguous global
// ID range split across ranks: rank p owns IDs [dist[p], dist[p+1]). It is
// the vertex analogue of the hash router, used because vertex IDs are
// globally contiguous by construction.
type SortedDistribution []uint64

// NewSortedDistribution builds the boundaries from per-rank counts, indexed
// by rank.
func NewSortedDistribution(counts []uint64) SortedDistribution {
	dist := make(SortedDistribution, len(counts)+1)
	for p, c := range counts {
		dist[p+1] = dist[p] + c
	}
	return dist
}

// RankOf returns the rank whose range contains id, via binary search.
func (d SortedDistribution) RankOf(id uint64) int {
	p := sort.Search(len(d)-1, func(i int) bool { return d[i+1] > id })
	if p == len(d)-1 {
		panic(fmt.Errorf("simplex: id %d beyond distribution end %d", id, d[len(d)-1]))
	}
	return p
}

// LocalIndex converts a global id to the owning rank's local index. The id
// must lie within rank's range.
func (d SortedDistribution) LocalIndex(rank int, id uint64) uint64 {
	if id < d[rank] || id >= d[rank+1] {
		panic(fmt.Errorf("simplex: id %d outside rank %d range [%d,%d)", id, rank, d[rank], d[rank+1]))
	}
	return id - d[rank]
}
