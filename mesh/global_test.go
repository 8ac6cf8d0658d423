package mesh

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parmesh/parmesh/comm"
	"github.com/parmesh/parmesh/partition"
	"github.com/parmesh/parmesh/simplex"
)

// roundRobin is a stand-in graph partitioner with a deterministic plan.
type roundRobin struct{}

func (roundRobin) Partition(r *comm.Rank, csr partition.CSR) ([]int32, error) {
	np := int32(r.Size())
	plan := make([]int32, csr.NumRows())
	base := int32(csr.Dist[r.ID()])
	for i := range plan {
		plan[i] = (base + int32(i)) % np
	}
	return plan, nil
}

func sortedKeysOf(elems []simplex.Simplex) []string {
	keys := make([]string, len(elems))
	for i, e := range elems {
		keys[i] = e.Key()
	}
	sort.Strings(keys)
	return keys
}

func TestHashRepartitionConservation(t *testing.T) {
	const np = 3
	all := TriangleStrip(12)
	want := sortedKeysOf(all)

	perRank := make([][]simplex.Simplex, np)
	err := comm.Run(np, func(r *comm.Rank) error {
		m := New(2, Deal(all, np, r.ID()), nil, nil, r)
		m.RepartitionByHash()
		perRank[r.ID()] = m.Elements()
		return nil
	})
	require.NoError(t, err)

	var got []string
	for _, elems := range perRank {
		got = append(got, sortedKeysOf(elems)...)
	}
	sort.Strings(got)
	// every input element lives on exactly one rank
	assert.Equal(t, want, got)
}

func TestHashRepartitionIdempotent(t *testing.T) {
	const np = 4
	all := UnitSquareTriangles(3)
	err := comm.Run(np, func(r *comm.Rank) error {
		m := New(2, Deal(all, np, r.ID()), nil, nil, r)
		m.RepartitionByHash()
		first := append([]simplex.Simplex(nil), m.Elements()...)
		m.RepartitionByHash()
		assert.Equal(t, first, m.Elements())
		return nil
	})
	require.NoError(t, err)
}

func TestRepartitionMovesElementData(t *testing.T) {
	const np = 3
	all := TriangleStrip(9)
	err := comm.Run(np, func(r *comm.Rank) error {
		local := Deal(all, np, r.ID())
		rows := make([]float64, len(local))
		for i, e := range local {
			rows[i] = float64(e[0] + e[1] + e[2])
		}
		m := New(2, local, nil, NewFloat64Data(1, rows), r)

		require.NoError(t, m.Repartition(roundRobin{}))

		// data rows follow their elements through the shuffle
		data := m.ElementData().(*Float64Data)
		require.Equal(t, m.NumElements(), data.Size())
		for i, e := range m.Elements() {
			assert.Equal(t, float64(e[0]+e[1]+e[2]), data.Row(i)[0])
		}
		return nil
	})
	require.NoError(t, err)
}

func TestRepartitionThenHashConservation(t *testing.T) {
	const np = 3
	all := UnitSquareTriangles(4)
	want := sortedKeysOf(all)

	perRank := make([][]simplex.Simplex, np)
	err := comm.Run(np, func(r *comm.Rank) error {
		m := New(2, Deal(all, np, r.ID()), nil, nil, r)
		require.NoError(t, m.Repartition(roundRobin{}))
		m.RepartitionByHash()
		perRank[r.ID()] = m.Elements()
		return nil
	})
	require.NoError(t, err)

	var got []string
	for _, elems := range perRank {
		got = append(got, sortedKeysOf(elems)...)
	}
	sort.Strings(got)
	assert.Equal(t, want, got)
}

func TestNewValidation(t *testing.T) {
	err := comm.Run(1, func(r *comm.Rank) error {
		assert.Panics(t, func() {
			New(2, []simplex.Simplex{simplex.New(0, 1)}, nil, nil, r)
		})
		assert.Panics(t, func() {
			New(2, TriangleStrip(2), nil, NewFloat64Data(1, []float64{1}), r)
		})
		assert.Panics(t, func() {
			m := New(2, TriangleStrip(2), nil, nil, r)
			m.apply([]int32{0}) // plan size mismatch
		})
		return nil
	})
	require.NoError(t, err)
}
