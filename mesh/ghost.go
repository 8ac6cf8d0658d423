package mesh

import (
	"fmt"
	"sort"

	"github.com/parmesh/parmesh/comm"
	"github.com/parmesh/parmesh/simplex"
)

// ErrNonManifold reports input topology where a codimension-1 face is
// incident to more than two elements, locally or globally.
var ErrNonManifold = fmt.Errorf("non-manifold input: face incident to more than two elements")

// upEntry pairs a candidate boundary face with the one local element it
// hangs under.
type upEntry struct {
	face simplex.Simplex
	elem int // index into the current element slice
}

// GhostElements grows the local element set by overlap rings of
// cross-process face neighbors. Each ring derives the faces that occur under
// exactly one local element, classifies the fresh ones globally into domain
// boundary (global multiplicity 1, permanently excluded) versus partition
// cut (multiplicity 2), resolves the element on the far side of every cut
// through the face's hash owner, and appends the fetched neighbors.
// Collective; overlap 0 returns a copy of the current elements.
func (m *GlobalMesh) GhostElements(overlap int) ([]simplex.Simplex, error) {
	elems := append([]simplex.Simplex(nil), m.elems...)
	np := m.r.Size()
	toRank := m.plexToRank(m.dim - 1)

	// Faces once classified as domain boundary stay excluded on every
	// later ring without being re-queried.
	domainBoundary := make(map[string]struct{})

	for ol := 1; ol <= overlap; ol++ {
		up, err := boundaryFaces(elems)
		if err != nil {
			return nil, err
		}
		for key := range domainBoundary {
			delete(up, key)
		}
		if err := m.peelDomainBoundary(up, domainBoundary); err != nil {
			return nil, err
		}
		if m.Peel != nil {
			cand := make([]simplex.Simplex, 0, len(up))
			for _, u := range up {
				cand = append(cand, u.face)
			}
			sort.Slice(cand, func(a, b int) bool { return simplex.Compare(cand[a], cand[b]) < 0 })
			m.Peel(ol, m.r.ID(), cand)
		}

		// Route (face, owning element) pairs to each face's owner.
		keys := sortedKeys(up)
		counts := make([]int, np)
		for _, key := range keys {
			counts[toRank(up[key].face)]++
		}
		off := make([]int, np)
		lo := 0
		for p := 0; p < np; p++ {
			off[p] = lo
			lo += counts[p]
		}
		faces := make([]simplex.Simplex, len(keys))
		owners := make([]simplex.Simplex, len(keys))
		for _, key := range keys {
			u := up[key]
			p := toRank(u.face)
			faces[off[p]] = u.face
			owners[off[p]] = elems[u.elem]
			off[p]++
		}

		x := comm.NewAllToAllV(m.r, counts)
		reqFaces := comm.Exchange(x, faces)
		reqElems := comm.Exchange(x, owners)
		x.Swap()

		// Per face, the owner saw one element value from each side of the
		// cut; answer each request with the other one.
		byFace := make(map[string][]simplex.Simplex)
		for i, f := range reqFaces {
			byFace[f.Key()] = append(byFace[f.Key()], reqElems[i])
		}
		answers := make([]simplex.Simplex, len(reqFaces))
		for i, f := range reqFaces {
			vals := byFace[f.Key()]
			if len(vals) != 2 {
				return nil, fmt.Errorf("face %v carried %d elements across the cut: %w", f, len(vals), ErrNonManifold)
			}
			other := vals[0]
			if other.Equal(reqElems[i]) {
				other = vals[1]
			}
			// Once replicas exist on deeper rings, both sides of a face may
			// hold the same element; the echo below is dropped by the
			// requester.
			answers[i] = other
		}
		fetched := comm.Exchange(x, answers)

		have := make(map[string]struct{}, len(elems))
		for _, e := range elems {
			have[e.Key()] = struct{}{}
		}
		sort.Slice(fetched, func(a, b int) bool { return simplex.Compare(fetched[a], fetched[b]) < 0 })
		for _, e := range dedup(fetched) {
			if _, ok := have[e.Key()]; !ok {
				elems = append(elems, e)
			}
		}
	}
	return elems, nil
}

// boundaryFaces derives every codimension-1 face of the given elements and
// keeps those occurring under exactly one element. Two occurrences is an
// internal face; more is non-manifold input.
func boundaryFaces(elems []simplex.Simplex) (map[string]upEntry, error) {
	type mult struct {
		upEntry
		count int
	}
	seen := make(map[string]*mult)
	for elNo, e := range elems {
		for _, f := range e.Downward(e.Dim() - 1) {
			key := f.Key()
			if rec, ok := seen[key]; ok {
				rec.count++
			} else {
				seen[key] = &mult{upEntry: upEntry{face: f, elem: elNo}, count: 1}
			}
		}
	}
	up := make(map[string]upEntry)
	for key, rec := range seen {
		switch {
		case rec.count == 1:
			up[key] = rec.upEntry
		case rec.count > 2:
			return nil, fmt.Errorf("face %v under %d local elements: %w", rec.face, rec.count, ErrNonManifold)
		}
	}
	return up, nil
}

// peelDomainBoundary routes every candidate face to its owner, which counts
// the copies raised across all ranks this ring. Global multiplicity 1 marks
// a true domain boundary face: it is removed from up and memoized so no
// later ring raises it again. Multiplicity 2 is a partition cut and stays.
func (m *GlobalMesh) peelDomainBoundary(up map[string]upEntry, domainBoundary map[string]struct{}) error {
	np := m.r.Size()
	toRank := m.plexToRank(m.dim - 1)

	keys := sortedKeys(up)
	counts := make([]int, np)
	for _, key := range keys {
		counts[toRank(up[key].face)]++
	}
	off := make([]int, np)
	lo := 0
	for p := 0; p < np; p++ {
		off[p] = lo
		lo += counts[p]
	}
	faces := make([]simplex.Simplex, len(keys))
	for _, key := range keys {
		p := toRank(up[key].face)
		faces[off[p]] = up[key].face
		off[p]++
	}

	x := comm.NewAllToAllV(m.r, counts)
	reqFaces := comm.Exchange(x, faces)

	multiplicity := make(map[string]uint64)
	for _, f := range reqFaces {
		multiplicity[f.Key()]++
	}
	reqCount := make([]uint64, len(reqFaces))
	for i, f := range reqFaces {
		reqCount[i] = multiplicity[f.Key()]
	}
	x.Swap()
	faceCount := comm.Exchange(x, reqCount)

	for i, f := range faces {
		switch faceCount[i] {
		case 1:
			delete(up, f.Key())
			domainBoundary[f.Key()] = struct{}{}
		case 2:
			// partition cut, stays a ghost-extension candidate
		default:
			return fmt.Errorf("face %v raised by %d elements globally: %w", f, faceCount[i], ErrNonManifold)
		}
	}
	return nil
}

func sortedKeys(up map[string]upEntry) []string {
	keys := make([]string, 0, len(up))
	for key := range up {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func dedup(sorted []simplex.Simplex) []simplex.Simplex {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || !s.Equal(sorted[i-1]) {
			out = append(out, s)
		}
	}
	return out
}
