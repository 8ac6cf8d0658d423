package simplex

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"sort"
)

/*
Simplex is a k-dimensional simplex stored as the canonical (ascending) tuple
of its k+1 global vertex IDs. Because the tuple is always sorted, structural
equality, hashing and ordering are independent of the vertex order the
simplex was constructed with.
*/
type Simplex []uint64

// New builds the canonical simplex over the given vertex IDs
func New(verts ...uint64) Simplex {
	s := make(Simplex, len(verts))
	copy(s, verts)
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	return s
}

func (s Simplex) Dim() int { return len(s) - 1 }

// Key packs the vertex tuple big-endian so that the lexicographic order of
// keys equals the structural total order of simplices. Keys are valid map
// keys and are what the distributed protocols bucket and deduplicate on.
func (s Simplex) Key() string {
	b := make([]byte, 8*len(s))
	for i, v := range s {
		binary.BigEndian.PutUint64(b[8*i:], v)
	}
	return string(b)
}

// FromKey recovers the simplex encoded by Key
func FromKey(key string) Simplex {
	if len(key)%8 != 0 {
		panic(fmt.Errorf("simplex: key length %d is not a multiple of 8", len(key)))
	}
	s := make(Simplex, len(key)/8)
	for i := range s {
		s[i] = binary.BigEndian.Uint64([]byte(key[8*i : 8*i+8]))
	}
	return s
}

// Hash is a deterministic structural hash (FNV-1a over the canonical tuple).
// Every rank computes the same hash for the same simplex, which is what lets
// ownership be decided without communication.
func (s Simplex) Hash() uint64 {
	h := fnv.New64a()
	var b [8]byte
	for _, v := range s {
		binary.BigEndian.PutUint64(b[:], v)
		h.Write(b[:])
	}
	return h.Sum64()
}

// Compare orders simplices lexicographically over the canonical tuple,
// shorter tuples first. Returns -1, 0 or +1.
func Compare(a, b Simplex) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

func (s Simplex) Equal(o Simplex) bool { return Compare(s, o) == 0 }

// Downward enumerates the dd-dimensional sub-simplices of s, i.e. all
// (dd+1)-subsets of the vertex tuple, in lexicographic order. For dd equal
// to s.Dim() the simplex itself is the single entry.
func (s Simplex) Downward(dd int) []Simplex {
	if dd < 0 || dd > s.Dim() {
		panic(fmt.Errorf("simplex: downward dimension %d out of range for dim %d", dd, s.Dim()))
	}
	k := dd + 1
	out := make([]Simplex, 0, binomial(len(s), k))
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		sub := make(Simplex, k)
		for i, j := range idx {
			sub[i] = s[j]
		}
		out = append(out, sub) // s is sorted, so sub is canonical
		i := k - 1
		for i >= 0 && idx[i] == len(s)-k+i {
			i--
		}
		if i < 0 {
			break
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
	return out
}

func binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	c := 1
	for i := 0; i < k; i++ {
		c = c * (n - i) / (i + 1)
	}
	return c
}
