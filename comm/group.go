/*
Package comm provides the fixed process group the mesh protocols run on:
ranks 0..P-1 cooperating through blocking collective message exchange.

Ranks are modeled as goroutines connected by a channel fabric, one buffered
channel per (source, destination) pair, so that every "process" owns its
values and all sharing happens by message copy. The collective surface
(variable-size all-to-all, allgather, prefix-sum scan) matches what an MPI
substrate would provide, and all of it is blocking: a rank that enters a
collective does not return until its portion of the exchange is complete.

There is no timeout or cancellation. A rank that detects a fatal input error
returns it from the Run body, which poisons the whole group: every rank still
blocked in a collective aborts, and Run reports the first error. A genuinely
mismatched collective (a protocol bug) deadlocks, as it would on MPI.
*/
package comm

import (
	"fmt"
	"sync"
)

// pairDepth bounds how many collectives a rank may run ahead of a peer
// before its sends block.
const pairDepth = 4

type group struct {
	np    int
	chans [][]chan any

	done chan struct{}
	once sync.Once
	err  error
}

// Rank is one member of the process group. All collective operations are
// methods on (or take) the calling rank.
type Rank struct {
	g  *group
	id int
}

func (r *Rank) ID() int   { return r.id }
func (r *Rank) Size() int { return r.g.np }

type abortSignal struct{}

// Run launches a process group of np ranks, each executing body in its own
// goroutine, and blocks until all ranks have returned. The first error
// returned by any rank aborts the whole group and becomes Run's result.
func Run(np int, body func(r *Rank) error) error {
	if np < 1 {
		panic(fmt.Errorf("comm: group size %d < 1", np))
	}
	g := &group{
		np:    np,
		chans: make([][]chan any, np),
		done:  make(chan struct{}),
	}
	for src := 0; src < np; src++ {
		g.chans[src] = make([]chan any, np)
		for dst := 0; dst < np; dst++ {
			g.chans[src][dst] = make(chan any, pairDepth)
		}
	}

	var wg sync.WaitGroup
	wg.Add(np)
	for id := 0; id < np; id++ {
		go func(id int) {
			defer wg.Done()
			completed := false
			defer func() {
				if rec := recover(); rec != nil {
					if _, aborted := rec.(abortSignal); aborted {
						return // group failure already recorded
					}
					g.fail(fmt.Errorf("rank %d: panic: %v", id, rec))
					panic(rec)
				}
				// covers runtime.Goexit out of the body, e.g. a failed
				// test assertion on one rank
				if !completed {
					g.fail(fmt.Errorf("rank %d exited mid-collective", id))
				}
			}()
			if err := body(&Rank{g: g, id: id}); err != nil {
				g.fail(fmt.Errorf("rank %d: %w", id, err))
			}
			completed = true
		}(id)
	}
	wg.Wait()
	return g.err
}

func (g *group) fail(err error) {
	g.once.Do(func() {
		g.err = err
		close(g.done)
	})
}

// send ships one payload to dst; blocks if dst is pairDepth collectives
// behind. Panics with abortSignal once the group has failed.
func (r *Rank) send(dst int, payload any) {
	select {
	case r.g.chans[r.id][dst] <- payload:
	case <-r.g.done:
		panic(abortSignal{})
	}
}

// recv takes the next payload sent by src to this rank.
func (r *Rank) recv(src int) any {
	select {
	case v := <-r.g.chans[src][r.id]:
		return v
	case <-r.g.done:
		panic(abortSignal{})
	}
}
