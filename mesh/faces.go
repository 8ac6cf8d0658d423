package mesh

import (
	"fmt"
	"sort"

	"github.com/parmesh/parmesh/comm"
	"github.com/parmesh/parmesh/simplex"
)

// LocalMesh builds this rank's local view: the element set extended by
// overlap ghost rings, then for every dimension 0..D the deduplicated
// sub-entities with contiguous global IDs, attached data and shared-rank
// tables. Collective.
func (m *GlobalMesh) LocalMesh(overlap int) (*LocalMesh, error) {
	elems, err := m.GhostElements(overlap)
	if err != nil {
		return nil, err
	}
	lm := &LocalMesh{Dim: m.dim, Faces: make([]*LocalFaces, m.dim+1)}
	for dd := 0; dd <= m.dim; dd++ {
		lf, err := m.enumerateFaces(dd, elems)
		if err != nil {
			return nil, err
		}
		lm.Faces[dd] = lf
	}
	return lm, nil
}

// enumerateFaces runs the distributed entity enumeration for one dimension:
// the dd-dimensional sub-entities of elems are deduplicated per owner,
// routed there, numbered, and shipped back with data and shared ranks.
func (m *GlobalMesh) enumerateFaces(dd int, elems []simplex.Simplex) (*LocalFaces, error) {
	np := m.r.Size()
	toRank := m.plexToRank(dd)

	// Ordered, duplicate-free set per destination, so repeats are never
	// transmitted and the send order is deterministic.
	required := make([]map[string]simplex.Simplex, np)
	for p := range required {
		required[p] = make(map[string]simplex.Simplex)
	}
	for _, e := range elems {
		for _, s := range e.Downward(dd) {
			required[toRank(s)][s.Key()] = s
		}
	}

	counts := make([]int, np)
	total := 0
	for p := 0; p < np; p++ {
		counts[p] = len(required[p])
		total += counts[p]
	}
	faces := make([]simplex.Simplex, 0, total)
	for p := 0; p < np; p++ {
		keys := make([]string, 0, len(required[p]))
		for key := range required[p] {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			faces = append(faces, required[p][key])
		}
	}

	x := comm.NewAllToAllV(m.r, counts)
	reqFaces := comm.Exchange(x, faces)
	x.Swap()

	lf := &LocalFaces{Dim: dd, Faces: faces}
	lf.GIDs = m.contiguousGIDs(dd, reqFaces, x)

	switch {
	case dd == 0 && m.vertexData != nil:
		lids := make([]uint64, len(reqFaces))
		for i, f := range reqFaces {
			lids[i] = m.vertexLID(f)
		}
		data, err := m.vertexData.Redistributed(lids, x)
		if err != nil {
			return nil, fmt.Errorf("vertex data: %w", err)
		}
		lf.Data = data
	case dd > 0 && dd < m.dim && m.boundary[dd] != nil && m.boundary[dd].elementData != nil:
		bm := m.boundary[dd]
		// Align the boundary mesh's residence with the hash router so the
		// entities requested here are owned by the rank we route to.
		bm.RepartitionByHash()
		g2l := make(map[string]uint64, len(bm.elems))
		for i, e := range bm.elems {
			g2l[e.Key()] = uint64(i)
		}
		lids := make([]uint64, len(reqFaces))
		for i, f := range reqFaces {
			if li, ok := g2l[f.Key()]; ok {
				lids[i] = li
			} else {
				lids[i] = NoIndex
			}
		}
		data, err := bm.elementData.Redistributed(lids, x)
		if err != nil {
			return nil, fmt.Errorf("boundary mesh data (dim %d): %w", dd, err)
		}
		lf.Data = data
	}

	m.sharedRanks(lf, reqFaces, x)
	return lf, nil
}

// contiguousGIDs assigns globally unique contiguous IDs to the entities this
// rank owns and returns each requester's IDs in request order. Vertices keep
// their canonical input IDs; for dd>=1 the owner numbers its deduplicated
// entities in structural order starting at its exclusive prefix-sum offset,
// so IDs cover [0, total) with no gaps. x must be in owner→requester
// orientation.
func (m *GlobalMesh) contiguousGIDs(dd int, reqFaces []simplex.Simplex, x *comm.AllToAllV) []uint64 {
	gids := make([]uint64, len(reqFaces))
	if dd == 0 {
		for i, f := range reqFaces {
			gids[i] = f[0]
		}
	} else {
		owned := make(map[string]uint64, len(reqFaces))
		for _, f := range reqFaces {
			owned[f.Key()] = 0
		}
		keys := make([]string, 0, len(owned))
		for key := range owned {
			keys = append(keys, key)
		}
		sort.Strings(keys) // key order is the structural total order

		gid := comm.ExScan(m.r, uint64(len(owned)))
		for _, key := range keys {
			owned[key] = gid
			gid++
		}
		for i, f := range reqFaces {
			gids[i] = owned[f.Key()]
		}
	}
	return comm.Exchange(x, gids)
}

// sharedRanks records, per entity, which other ranks requested it, and ships
// each requester its per-entity rank lists. The lists ride the same routing
// as the enumeration; only the variable-length rank payload needs one more
// exchange. x must be in owner→requester orientation.
func (m *GlobalMesh) sharedRanks(lf *LocalFaces, reqFaces []simplex.Simplex, x *comm.AllToAllV) {
	np := m.r.Size()

	requesters := make(map[string][]int)
	for p := 0; p < np; p++ {
		lo, hi := x.SendSpan(p)
		for i := lo; i < hi; i++ {
			key := reqFaces[i].Key()
			requesters[key] = append(requesters[key], p)
		}
	}

	// Each destination gets the requester set minus itself.
	perItem := make([]int, len(reqFaces))
	flat := make([]int, 0, len(reqFaces))
	sendCounts := make([]int, np)
	for p := 0; p < np; p++ {
		lo, hi := x.SendSpan(p)
		for i := lo; i < hi; i++ {
			for _, q := range requesters[reqFaces[i].Key()] {
				if q != p {
					flat = append(flat, q)
					perItem[i]++
				}
			}
			sendCounts[p] += perItem[i]
		}
	}

	listLens := comm.Exchange(x, perItem)

	recvCounts := make([]int, np)
	for p := 0; p < np; p++ {
		lo, hi := x.RecvSpan(p)
		for i := lo; i < hi; i++ {
			recvCounts[p] += listLens[i]
		}
	}

	xr := comm.NewAllToAllVFromCounts(m.r, sendCounts, recvCounts)
	lf.setSharedRanks(comm.Exchange(xr, flat), listLens)
}
