package comm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllgather(t *testing.T) {
	const np = 5
	err := Run(np, func(r *Rank) error {
		got := Allgather(r, 10*r.ID())
		want := make([]int, np)
		for p := range want {
			want[p] = 10 * p
		}
		assert.Equal(t, want, got)
		return nil
	})
	require.NoError(t, err)
}

func TestExScan(t *testing.T) {
	const np = 6
	err := Run(np, func(r *Rank) error {
		// rank p contributes p+1; exclusive sum below p is p(p+1)/2
		got := ExScan(r, uint64(r.ID()+1))
		assert.Equal(t, uint64(r.ID()*(r.ID()+1)/2), got)
		return nil
	})
	require.NoError(t, err)
}

func TestAllToAllV(t *testing.T) {
	const np = 4
	err := Run(np, func(r *Rank) error {
		// rank p sends p+1 items to every rank, tagged with (source, seq)
		counts := make([]int, np)
		send := make([]int, 0)
		for p := 0; p < np; p++ {
			counts[p] = r.ID() + 1
			for k := 0; k <= r.ID(); k++ {
				send = append(send, 100*r.ID()+k)
			}
		}
		x := NewAllToAllV(r, counts)
		assert.Equal(t, np*(r.ID()+1), x.SendTotal())
		assert.Equal(t, np*(np+1)/2, x.RecvTotal())

		got := Exchange(x, send)
		// arrival is source-rank-major with per-source order preserved
		want := make([]int, 0)
		for p := 0; p < np; p++ {
			lo, hi := x.RecvSpan(p)
			assert.Equal(t, p+1, hi-lo)
			for k := 0; k <= p; k++ {
				want = append(want, 100*p+k)
			}
		}
		assert.Equal(t, want, got)

		// the reversed pattern routes every item back to its sender
		x.Swap()
		back := Exchange(x, got)
		assert.Equal(t, send, back)
		return nil
	})
	require.NoError(t, err)
}

func TestScaledExchange(t *testing.T) {
	const np = 3
	err := Run(np, func(r *Rank) error {
		counts := make([]int, np)
		for p := range counts {
			counts[p] = 1
		}
		x := NewAllToAllV(r, counts)
		send := make([]float64, 2*np)
		for p := 0; p < np; p++ {
			send[2*p] = float64(r.ID())
			send[2*p+1] = float64(p)
		}
		got := Exchange(x.Scaled(2), send)
		require.Len(t, got, 2*np)
		for p := 0; p < np; p++ {
			assert.Equal(t, float64(p), got[2*p])
			assert.Equal(t, float64(r.ID()), got[2*p+1])
		}
		return nil
	})
	require.NoError(t, err)
}

func TestRunAbortsGroupOnError(t *testing.T) {
	const np = 3
	err := Run(np, func(r *Rank) error {
		if r.ID() == 1 {
			return fmt.Errorf("bad topology")
		}
		// these ranks would block forever without the group abort
		Allgather(r, r.ID())
		r.Barrier()
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rank 1: bad topology")
}

func TestSingleRankGroup(t *testing.T) {
	err := Run(1, func(r *Rank) error {
		x := NewAllToAllV(r, []int{3})
		got := Exchange(x, []string{"a", "b", "c"})
		assert.Equal(t, []string{"a", "b", "c"}, got)
		assert.Equal(t, uint64(0), ExScan(r, 7))
		return nil
	})
	require.NoError(t, err)
}
