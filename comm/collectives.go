package comm

// Allgather distributes one value from every rank to every rank. The result
// is indexed by source rank and identical on all ranks.
func Allgather[T any](r *Rank, v T) []T {
	np, me := r.Size(), r.ID()
	out := make([]T, np)
	out[me] = v
	for p := 0; p < np; p++ {
		if p != me {
			r.send(p, v)
		}
	}
	for p := 0; p < np; p++ {
		if p != me {
			out[p] = r.recv(p).(T)
		}
	}
	return out
}

// ExScan returns the exclusive prefix sum of v over ranks: the sum of the
// values contributed by all ranks below the caller, zero on rank 0.
func ExScan(r *Rank, v uint64) uint64 {
	vals := Allgather(r, v)
	var sum uint64
	for p := 0; p < r.ID(); p++ {
		sum += vals[p]
	}
	return sum
}

// Barrier blocks until every rank has entered it.
func (r *Rank) Barrier() {
	Allgather(r, struct{}{})
}
