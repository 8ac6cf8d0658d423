package partition

import (
	"fmt"
	"log"

	"github.com/james-bowman/sparse"
	metis "github.com/notargets/go-metis"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/parmesh/parmesh/comm"
)

// Metis partitions the element dual graph with METIS k-way partitioning.
// Rows are gathered to rank 0 (METIS runs serially), the dual graph is
// assembled from the incidence matrix, and the assignment is scattered back
// in row order.
type Metis struct {
	ImbalanceFactor float32 // e.g. 1.05 for 5% allowed imbalance
	Objective       string  // "cut" or "vol"
	Verbose         bool    // log partition quality on rank 0
}

// DefaultMetis returns the stock settings: 5% allowed imbalance, minimize
// communication volume.
func DefaultMetis() Metis {
	return Metis{ImbalanceFactor: 1.05, Objective: "vol"}
}

func (m Metis) Partition(r *comm.Rank, csr CSR) ([]int32, error) {
	np := r.Size()

	// Gather all rows to rank 0, rank-major, which is global row order.
	counts := make([]int, np)
	counts[0] = csr.NumRows()
	rows := comm.NewAllToAllV(r, counts)
	allCols := comm.Exchange(rows.Scaled(csr.VertsPerRow), csr.ColInd)

	var part []int32
	if r.ID() == 0 {
		ne := rows.RecvTotal()
		var err error
		part, err = m.partitionSerial(allCols, ne, csr.VertsPerRow, np)
		if err != nil {
			return nil, err
		}
	}
	// Errors on rank 0 abort the group via comm.Run before the scatter, so
	// the reverse exchange below only runs when partitioning succeeded.
	rows.Swap()
	return comm.Exchange(rows, part), nil
}

func (m Metis) partitionSerial(cols []uint64, ne, vpr, nparts int) ([]int32, error) {
	if ne == 0 {
		return nil, nil
	}
	if nparts == 1 {
		return make([]int32, ne), nil
	}

	xadj, adjncy := dualGraph(cols, ne, vpr)

	opts := make([]int32, metis.NoOptions)
	if err := metis.SetDefaultOptions(opts); err != nil {
		return nil, fmt.Errorf("metis options: %w", err)
	}
	if m.Objective == "vol" {
		opts[metis.OptionObjType] = metis.ObjTypeVol
	} else {
		opts[metis.OptionObjType] = metis.ObjTypeCut
	}
	ubvec := []float32{m.ImbalanceFactor}
	if m.ImbalanceFactor == 0 {
		ubvec[0] = 1.05
	}

	part, objval, err := metis.PartGraphKwayWeighted(
		xadj, adjncy, nil, nil, int32(nparts), nil, ubvec, opts)
	if err != nil {
		return nil, fmt.Errorf("METIS partitioning failed: %w", err)
	}
	if m.Verbose {
		m.analyze(part, nparts, objval)
	}
	return part, nil
}

// dualGraph builds the element adjacency in METIS CSR form. The incidence
// matrix A (elements x vertices) gives the shared-vertex counts as A*Aᵀ; two
// D-simplices are face neighbors iff they share D vertices.
func dualGraph(cols []uint64, ne, vpr int) (xadj, adjncy []int32) {
	vid := make(map[uint64]int)
	for _, v := range cols {
		if _, ok := vid[v]; !ok {
			vid[v] = len(vid)
		}
	}

	inc := sparse.NewDOK(ne, len(vid))
	for e := 0; e < ne; e++ {
		for i := 0; i < vpr; i++ {
			inc.Set(e, vid[cols[e*vpr+i]], 1)
		}
	}
	incCSR := inc.ToCSR()

	shared := &sparse.CSR{}
	shared.Mul(incCSR, incCSR.T())

	adj := make([][]int32, ne)
	shared.DoNonZero(func(i, j int, v float64) {
		if i != j && int(v) >= vpr-1 {
			adj[i] = append(adj[i], int32(j))
		}
	})

	xadj = make([]int32, ne+1)
	for e := 0; e < ne; e++ {
		adjncy = append(adjncy, adj[e]...)
		xadj[e+1] = int32(len(adjncy))
	}
	return xadj, adjncy
}

func (m Metis) analyze(part []int32, nparts int, objval int32) {
	loads := make([]float64, nparts)
	for _, p := range part {
		loads[p]++
	}
	mean := stat.Mean(loads, nil)
	imbalance := 0.0
	if mean > 0 {
		imbalance = floats.Max(loads) / mean
	}
	log.Printf("partition: %d elements over %d parts, objval %d, imbalance %.3f",
		len(part), nparts, objval, imbalance)
}
