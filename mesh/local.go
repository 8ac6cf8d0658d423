package mesh

import (
	"github.com/parmesh/parmesh/simplex"
)

// LocalFaces is one dimension's worth of a local mesh: the dd-entities this
// rank needs (owned and ghost alike), their global IDs, optional attached
// data rows, and per-entity shared-rank lists, all aligned to the same
// order.
type LocalFaces struct {
	Dim   int
	Faces []simplex.Simplex
	GIDs  []uint64
	Data  MeshData

	sharedRanks   []int
	sharedOffsets []int // len(Faces)+1
}

func (lf *LocalFaces) Size() int { return len(lf.Faces) }

// SharedRanks lists the other ranks that also reference entity i. Empty for
// entities no other rank requested.
func (lf *LocalFaces) SharedRanks(i int) []int {
	if lf.sharedOffsets == nil {
		return nil
	}
	return lf.sharedRanks[lf.sharedOffsets[i]:lf.sharedOffsets[i+1]]
}

func (lf *LocalFaces) setSharedRanks(flat []int, lens []int) {
	off := make([]int, len(lens)+1)
	for i, n := range lens {
		off[i+1] = off[i] + n
	}
	lf.sharedRanks = flat
	lf.sharedOffsets = off
}

// LocalMesh collects the per-dimension LocalFaces of one local-mesh request.
// Faces[dd] holds the dd-entities; Faces[Dim] the ghost-extended elements.
type LocalMesh struct {
	Dim   int
	Faces []*LocalFaces
}
