/*
Package partition turns a distributed element→vertex incidence into a target
rank per element. The production partitioner hands the element dual graph to
METIS; the package also provides the block-span helper used to deal an
unpartitioned element list out across ranks.
*/
package partition

import (
	"github.com/parmesh/parmesh/comm"
)

// CSR is the distributed element→vertex incidence in the form the
// partitioner consumes: rank-major global row distribution boundaries, plus
// this rank's rows as fixed-width runs of vertex IDs.
type CSR struct {
	Dist        []uint64 // len P+1, rank p owns global rows [Dist[p], Dist[p+1])
	ColInd      []uint64 // local rows' vertex IDs, VertsPerRow per row
	VertsPerRow int      // simplex dimension + 1
}

// NumRows is the local row count.
func (c CSR) NumRows() int { return len(c.ColInd) / c.VertsPerRow }

// Partitioner assigns a target rank in [0, P) to every local row of a
// distributed CSR. Collective: all ranks of the group call Partition
// together.
type Partitioner interface {
	Partition(r *comm.Rank, csr CSR) ([]int32, error)
}

// Span splits n items into np near-equal blocks with a maximum imbalance of
// one item spread over the leading blocks, and returns block p's half-open
// range.
func Span(n, np, p int) (lo, hi int) {
	per := n / np
	rem := n % np
	var startAdd, endAdd int
	if rem != 0 {
		if p+1 > rem {
			startAdd = rem
		} else {
			startAdd = p
			endAdd = 1
		}
	}
	lo = p*per + startAdd
	hi = lo + per + endAdd
	return
}
