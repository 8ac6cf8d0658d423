/*
Package mesh builds, per rank, a consistent ghost-extended and globally
numbered view of a distributed simplex mesh.

A GlobalMesh holds this rank's slice of the global element list: every
element exists on exactly one rank, and vertices and elements are distributed
independently, so the vertices an element references need not reside with it.
Repartitioning moves elements (and attached element data) to realize a new
assignment; LocalMesh grows the local set by ghost rings and enumerates the
sub-entities of every dimension with contiguous global IDs and shared-rank
tables.
*/
package mesh

import (
	"fmt"
	"sort"

	"github.com/parmesh/parmesh/comm"
	"github.com/parmesh/parmesh/partition"
	"github.com/parmesh/parmesh/simplex"
)

// PeelLogger receives ghost-layer diagnostics per ring; nil disables them.
type PeelLogger func(ring, rank int, candidates []simplex.Simplex)

// GlobalMesh is this rank's share of a distributed D-simplex mesh.
type GlobalMesh struct {
	dim   int
	elems []simplex.Simplex
	r     *comm.Rank

	vertexData  MeshData
	elementData MeshData
	vtxDist     simplex.SortedDistribution // set iff vertexData is present

	partitionedByHash bool
	boundary          []*GlobalMesh // by dimension, entries 0<dd<dim used

	// Peel, when set, observes the ghost-layer builder's candidate faces.
	Peel PeelLogger
}

// New creates the rank-local part of a global mesh from the elements this
// rank currently holds. vertexData rows are this rank's contiguous slice of
// the global vertex range (used to build the vertex distribution table);
// elementData rows align with elems. Either may be nil. Collective when
// vertexData is present.
func New(dim int, elems []simplex.Simplex, vertexData, elementData MeshData, r *comm.Rank) *GlobalMesh {
	for _, e := range elems {
		if e.Dim() != dim {
			panic(fmt.Errorf("mesh: element of dimension %d in mesh of dimension %d", e.Dim(), dim))
		}
	}
	if elementData != nil && elementData.Size() != len(elems) {
		panic(fmt.Errorf("mesh: %d element data rows for %d elements", elementData.Size(), len(elems)))
	}
	m := &GlobalMesh{
		dim:         dim,
		elems:       elems,
		r:           r,
		vertexData:  vertexData,
		elementData: elementData,
		boundary:    make([]*GlobalMesh, dim),
	}
	if vertexData != nil {
		counts := comm.Allgather(r, uint64(vertexData.Size()))
		m.vtxDist = simplex.NewSortedDistribution(counts)
	}
	return m
}

func (m *GlobalMesh) Dim() int                    { return m.dim }
func (m *GlobalMesh) Elements() []simplex.Simplex { return m.elems }
func (m *GlobalMesh) NumElements() int            { return len(m.elems) }
func (m *GlobalMesh) ElementData() MeshData       { return m.elementData }

// SetBoundaryMesh attaches a lower-dimensional mesh supplying facet or edge
// data: the boundary mesh's element data becomes the dd-entity data of this
// mesh. Exclusively owned by the parent from here on.
func (m *GlobalMesh) SetBoundaryMesh(bm *GlobalMesh) {
	dd := bm.dim
	if dd <= 0 || dd >= m.dim {
		panic(fmt.Errorf("mesh: boundary mesh dimension %d not in (0, %d)", dd, m.dim))
	}
	m.boundary[dd] = bm
}

// plexToRank returns the ownership router for dimension dd: a pure function
// every rank evaluates identically, so entities can be routed without a
// discovery round. Vertices use the distribution table when present.
func (m *GlobalMesh) plexToRank(dd int) func(simplex.Simplex) int {
	np := m.r.Size()
	if dd == 0 {
		if m.vtxDist != nil {
			dist := m.vtxDist
			return func(s simplex.Simplex) int { return dist.RankOf(s[0]) }
		}
		return func(s simplex.Simplex) int { return int(s[0] % uint64(np)) }
	}
	return func(s simplex.Simplex) int { return int(s.Hash() % uint64(np)) }
}

// vertexLID maps a vertex owned by this rank into the vertex data container.
func (m *GlobalMesh) vertexLID(s simplex.Simplex) uint64 {
	return m.vtxDist.LocalIndex(m.r.ID(), s[0])
}

// DistributedCSR exports the element→vertex incidence for the partitioner.
func (m *GlobalMesh) DistributedCSR() partition.CSR {
	counts := comm.Allgather(m.r, uint64(len(m.elems)))
	cols := make([]uint64, 0, len(m.elems)*(m.dim+1))
	for _, e := range m.elems {
		cols = append(cols, e...)
	}
	return partition.CSR{
		Dist:        simplex.NewSortedDistribution(counts),
		ColInd:      cols,
		VertsPerRow: m.dim + 1,
	}
}

// Repartition redistributes the elements according to the given graph
// partitioner. Collective.
func (m *GlobalMesh) Repartition(p partition.Partitioner) error {
	plan, err := p.Partition(m.r, m.DistributedCSR())
	if err != nil {
		return err
	}
	m.apply(plan)
	m.partitionedByHash = false
	return nil
}

// RepartitionByHash moves every element to its hash owner, aligning element
// residence with the router used by the entity protocols. Idempotent: a
// no-op when the mesh is already hash-consistent. Collective.
func (m *GlobalMesh) RepartitionByHash() {
	if m.partitionedByHash {
		return
	}
	toRank := m.plexToRank(m.dim)
	plan := make([]int32, len(m.elems))
	for i, e := range m.elems {
		plan[i] = int32(toRank(e))
	}
	m.apply(plan)
	m.partitionedByHash = true
}

// apply realizes a partition plan: a stable reshuffle of the local elements
// (and element data) in target-rank order.
func (m *GlobalMesh) apply(plan []int32) {
	if len(plan) != len(m.elems) {
		panic(fmt.Errorf("mesh: plan for %d elements, have %d", len(plan), len(m.elems)))
	}
	perm := make([]int, len(plan))
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool { return plan[perm[a]] < plan[perm[b]] })

	np := m.r.Size()
	counts := make([]int, np)
	send := make([]simplex.Simplex, 0, len(m.elems))
	for _, i := range perm {
		counts[plan[i]]++
		send = append(send, m.elems[i])
	}

	x := comm.NewAllToAllV(m.r, counts)
	m.elems = comm.Exchange(x, send)

	if m.elementData != nil {
		rows := make([]uint64, len(perm))
		for k, i := range perm {
			rows[k] = uint64(i)
		}
		nd, err := m.elementData.Redistributed(rows, x)
		if err != nil {
			panic(fmt.Errorf("mesh: element data redistribution: %w", err))
		}
		m.elementData = nd
	}
}
