package mesh

import (
	"fmt"
	"math"

	"github.com/parmesh/parmesh/comm"
)

// NoIndex is the reserved "no data" sentinel for cross-mesh lookups that
// miss: a row selected with NoIndex is shipped as a placeholder, not read
// from the container.
const NoIndex = ^uint64(0)

// MeshData is the capability contract for data attached to mesh entities:
// anything that knows its row count and can produce a redistributed copy of
// itself given a row selection and an exchange pattern. Vertex data, element
// data and boundary-mesh data all share it.
//
// Redistributed selects indices from the local rows (NoIndex selecting a
// placeholder), ships them over x, and returns a new container of the same
// kind aligned to the arrival order on the receiving side. len(indices) must
// equal x.SendTotal().
type MeshData interface {
	Size() int
	Redistributed(indices []uint64, x *comm.AllToAllV) (MeshData, error)
}

// Float64Data is the stock MeshData: a dense row-major block of float64 with
// a fixed number of values per row. Placeholder rows are NaN.
type Float64Data struct {
	stride int
	data   []float64
}

// NewFloat64Data wraps row-major data with stride values per row.
func NewFloat64Data(stride int, data []float64) *Float64Data {
	if stride < 1 || len(data)%stride != 0 {
		panic(fmt.Errorf("mesh: data length %d not a multiple of stride %d", len(data), stride))
	}
	return &Float64Data{stride: stride, data: data}
}

func (d *Float64Data) Size() int   { return len(d.data) / d.stride }
func (d *Float64Data) Stride() int { return d.stride }
func (d *Float64Data) Row(i int) []float64 {
	return d.data[i*d.stride : (i+1)*d.stride]
}

func (d *Float64Data) Redistributed(indices []uint64, x *comm.AllToAllV) (MeshData, error) {
	if len(indices) != x.SendTotal() {
		panic(fmt.Errorf("mesh: %d row indices for exchange of %d items", len(indices), x.SendTotal()))
	}
	send := make([]float64, 0, len(indices)*d.stride)
	for _, idx := range indices {
		if idx == NoIndex {
			for k := 0; k < d.stride; k++ {
				send = append(send, math.NaN())
			}
			continue
		}
		if idx >= uint64(d.Size()) {
			panic(fmt.Errorf("mesh: row index %d out of range, have %d rows", idx, d.Size()))
		}
		send = append(send, d.Row(int(idx))...)
	}
	out := comm.Exchange(x.Scaled(d.stride), send)
	return &Float64Data{stride: d.stride, data: out}, nil
}
