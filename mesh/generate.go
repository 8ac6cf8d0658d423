package mesh

import (
	"github.com/parmesh/parmesh/partition"
	"github.com/parmesh/parmesh/simplex"
)

// Generated meshes for tests and the demo command. Vertex IDs are assigned
// grid-major so that coordinate containers line up with contiguous vertex
// ranges.

// TriangleStrip returns n triangles sharing consecutive edges: triangle i is
// (i, i+1, i+2) over n+2 vertices. The two strip ends contribute the only
// boundary vertices of valence one.
func TriangleStrip(n int) []simplex.Simplex {
	elems := make([]simplex.Simplex, n)
	for i := 0; i < n; i++ {
		elems[i] = simplex.New(uint64(i), uint64(i+1), uint64(i+2))
	}
	return elems
}

// UnitSquareTriangles triangulates the unit square with an (n+1)x(n+1)
// vertex grid, two triangles per cell, 2n² in total. Vertex IDs are
// row-major.
func UnitSquareTriangles(n int) []simplex.Simplex {
	vid := func(i, j int) uint64 { return uint64(i*(n+1) + j) }
	elems := make([]simplex.Simplex, 0, 2*n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			elems = append(elems,
				simplex.New(vid(i, j), vid(i, j+1), vid(i+1, j)),
				simplex.New(vid(i, j+1), vid(i+1, j), vid(i+1, j+1)))
		}
	}
	return elems
}

// UnitSquareCoords returns the grid coordinates matching
// UnitSquareTriangles(n), two values per vertex, row-major.
func UnitSquareCoords(n int) *Float64Data {
	h := 1.0 / float64(n)
	data := make([]float64, 0, 2*(n+1)*(n+1))
	for i := 0; i <= n; i++ {
		for j := 0; j <= n; j++ {
			data = append(data, float64(j)*h, float64(i)*h)
		}
	}
	return NewFloat64Data(2, data)
}

// UnitCubeTets triangulates the unit cube with an (n+1)³ vertex grid and six
// tetrahedra per cell (Kuhn subdivision), 6n³ in total.
func UnitCubeTets(n int) []simplex.Simplex {
	vid := func(i, j, k int) uint64 {
		return uint64((i*(n+1)+j)*(n+1) + k)
	}
	// The six tets around the main diagonal (0,0,0)-(1,1,1) of a cell,
	// each a chain of axis steps.
	paths := [6][3]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}
	elems := make([]simplex.Simplex, 0, 6*n*n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < n; k++ {
				for _, path := range paths {
					c := [3]int{i, j, k}
					verts := make([]uint64, 0, 4)
					verts = append(verts, vid(c[0], c[1], c[2]))
					for _, axis := range path {
						c[axis]++
						verts = append(verts, vid(c[0], c[1], c[2]))
					}
					elems = append(elems, simplex.New(verts...))
				}
			}
		}
	}
	return elems
}

// Deal splits elems into np near-equal consecutive blocks and returns rank
// p's block, the usual starting distribution before repartitioning.
func Deal(elems []simplex.Simplex, np, p int) []simplex.Simplex {
	lo, hi := partition.Span(len(elems), np, p)
	return elems[lo:hi]
}
