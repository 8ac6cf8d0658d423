package comm

import "fmt"

// AllToAllV is one variable-size all-to-all exchange pattern: every rank
// declares how many payload items it sends to every other rank; matching
// receive counts are derived collectively. The pattern is reusable for any
// number of payload exchanges (via Exchange) and reversible (via Swap), so a
// reply can be routed backward over the same pattern without a second count
// negotiation. Within one exchange the relative order of items bound for the
// same destination is preserved, and received items are laid out in source-
// rank-major order with spans queryable per rank.
type AllToAllV struct {
	r                        *Rank
	sendCounts, recvCounts   []int
	sendOffsets, recvOffsets []int // len np+1
}

// NewAllToAllV negotiates an exchange pattern from per-destination send
// counts. Collective: every rank must call it with its own counts.
func NewAllToAllV(r *Rank, sendCounts []int) *AllToAllV {
	np := r.Size()
	if len(sendCounts) != np {
		panic(fmt.Errorf("comm: %d send counts for group of %d", len(sendCounts), np))
	}
	all := Allgather(r, append([]int(nil), sendCounts...))
	recvCounts := make([]int, np)
	for p := 0; p < np; p++ {
		recvCounts[p] = all[p][r.ID()]
	}
	return newFromCounts(r, append([]int(nil), sendCounts...), recvCounts)
}

// NewAllToAllVFromCounts builds a pattern whose receive counts are already
// known on both sides, e.g. derived item-wise from a previous exchange. Not
// collective by itself.
func NewAllToAllVFromCounts(r *Rank, sendCounts, recvCounts []int) *AllToAllV {
	return newFromCounts(r, sendCounts, recvCounts)
}

func newFromCounts(r *Rank, sendCounts, recvCounts []int) *AllToAllV {
	x := &AllToAllV{r: r, sendCounts: sendCounts, recvCounts: recvCounts}
	x.sendOffsets = offsets(sendCounts)
	x.recvOffsets = offsets(recvCounts)
	return x
}

func offsets(counts []int) []int {
	off := make([]int, len(counts)+1)
	for p, c := range counts {
		off[p+1] = off[p] + c
	}
	return off
}

// Swap reverses the pattern: what was received is now sent and vice versa,
// so the same routing runs backward.
func (x *AllToAllV) Swap() {
	x.sendCounts, x.recvCounts = x.recvCounts, x.sendCounts
	x.sendOffsets, x.recvOffsets = x.recvOffsets, x.sendOffsets
}

// Scaled derives a pattern with every count multiplied by stride, for
// payloads of stride items per original item (e.g. flattened data rows).
func (x *AllToAllV) Scaled(stride int) *AllToAllV {
	sc := make([]int, len(x.sendCounts))
	rc := make([]int, len(x.recvCounts))
	for p := range sc {
		sc[p] = x.sendCounts[p] * stride
		rc[p] = x.recvCounts[p] * stride
	}
	return newFromCounts(x.r, sc, rc)
}

func (x *AllToAllV) Rank() *Rank    { return x.r }
func (x *AllToAllV) SendTotal() int { return x.sendOffsets[len(x.sendCounts)] }
func (x *AllToAllV) RecvTotal() int { return x.recvOffsets[len(x.recvCounts)] }

// SendSpan returns the half-open range of send-buffer indices bound for rank
// p; RecvSpan the range of receive-buffer indices that arrived from rank p.
func (x *AllToAllV) SendSpan(p int) (lo, hi int) { return x.sendOffsets[p], x.sendOffsets[p+1] }
func (x *AllToAllV) RecvSpan(p int) (lo, hi int) { return x.recvOffsets[p], x.recvOffsets[p+1] }

// Exchange performs one blocking payload exchange over the pattern: send
// must hold exactly SendTotal items grouped by destination rank in rank
// order; the result holds RecvTotal items grouped by source rank.
func Exchange[T any](x *AllToAllV, send []T) []T {
	np, me := x.r.Size(), x.r.ID()
	if len(send) != x.SendTotal() {
		panic(fmt.Errorf("comm: exchange payload %d items, pattern expects %d", len(send), x.SendTotal()))
	}
	out := make([]T, x.RecvTotal())
	for p := 0; p < np; p++ {
		lo, hi := x.SendSpan(p)
		if p == me {
			rlo, _ := x.RecvSpan(me)
			copy(out[rlo:], send[lo:hi])
			continue
		}
		if hi > lo {
			chunk := make([]T, hi-lo)
			copy(chunk, send[lo:hi])
			x.r.send(p, chunk)
		}
	}
	for p := 0; p < np; p++ {
		if p == me {
			continue
		}
		lo, hi := x.RecvSpan(p)
		if hi > lo {
			chunk := x.r.recv(p).([]T)
			if len(chunk) != hi-lo {
				panic(fmt.Errorf("comm: rank %d sent %d items, expected %d", p, len(chunk), hi-lo))
			}
			copy(out[lo:], chunk)
		}
	}
	return out
}
