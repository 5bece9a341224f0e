package absa

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Batch is one padded, length-annotated group of examples.
// Labels are class indices and are only needed for training.
type Batch struct {
	Tokens  [][]int
	Aspects []int
	Lengths []int
	Labels  []int
}

// Size returns the number of examples.
func (b Batch) Size() int {
	return len(b.Tokens)
}

// Check verifies the batch geometry against the model dimensions.
// Token and aspect ids are not range checked.
func (b Batch) Check(batchSize, n int, needLabels bool) error {
	if len(b.Tokens) != batchSize {
		return errors.Errorf("batch has %d examples, model expects %d", len(b.Tokens), batchSize)
	}
	if len(b.Aspects) != batchSize {
		return errors.Errorf("batch has %d aspects, expected %d", len(b.Aspects), batchSize)
	}
	if len(b.Lengths) != batchSize {
		return errors.Errorf("batch has %d lengths, expected %d", len(b.Lengths), batchSize)
	}
	for i, row := range b.Tokens {
		if len(row) != n {
			return errors.Errorf("example %d has %d tokens, expected %d", i, len(row), n)
		}
		if b.Lengths[i] < 0 || b.Lengths[i] > n {
			return errors.Errorf("example %d has length %d outside [0, %d]", i, b.Lengths[i], n)
		}
	}
	if !needLabels {
		return nil
	}
	if len(b.Labels) != batchSize {
		return errors.Errorf("batch has %d labels, expected %d", len(b.Labels), batchSize)
	}
	for i, l := range b.Labels {
		if l < 0 || l >= NumClasses {
			return errors.Errorf("example %d has label %d outside [0, %d)", i, l, NumClasses)
		}
	}
	return nil
}

// DebugBatch returns the fixed four-example batch used to smoke test a
// freshly built model: N=3, vocabulary ids < 8, aspect ids < 6.
func DebugBatch() Batch {
	return Batch{
		Tokens: [][]int{
			{5, 6, 1},
			{7, 6, 0},
			{0, 7, 0},
			{1, 2, 3},
		},
		Aspects: []int{1, 4, 2, 5},
		Lengths: []int{3, 2, 2, 3},
		Labels:  []int{1, 0, 2, 1},
	}
}

// oneHot builds a (len(ids), width) selection matrix. An id outside
// [0, width) selects nothing and yields a zero row.
func oneHot(ids []int, width int) tensor.Tensor {
	data := make([]float32, len(ids)*width)
	for i, id := range ids {
		if id >= 0 && id < width {
			data[i*width+id] = 1
		}
	}
	return tensor.New(tensor.WithShape(len(ids), width), tensor.WithBacking(data))
}

// flatTokens lays the token matrix out batch-major: row b*N+t.
func flatTokens(tokens [][]int) []int {
	var res []int
	for _, row := range tokens {
		res = append(res, row...)
	}
	return res
}

// stepMasks returns keep and carry masks shaped (N, batch, width).
// keep[t][b] is all ones while t < lengths[b], carry is its complement.
func stepMasks(lengths []int, n, width int) (keep, carry tensor.Tensor) {
	batch := len(lengths)
	k := make([]float32, n*batch*width)
	c := make([]float32, n*batch*width)
	for t := 0; t < n; t++ {
		for b, l := range lengths {
			off := (t*batch + b) * width
			v := float32(0)
			if t < l {
				v = 1
			}
			for j := 0; j < width; j++ {
				k[off+j] = v
				c[off+j] = 1 - v
			}
		}
	}
	keep = tensor.New(tensor.WithShape(n, batch, width), tensor.WithBacking(k))
	carry = tensor.New(tensor.WithShape(n, batch, width), tensor.WithBacking(c))
	return keep, carry
}

// repeatRows builds the (batch*n, batch) matrix R with R[b*n+t, b] = 1,
// so R·X repeats each row of X n times.
func repeatRows(batch, n int) tensor.Tensor {
	data := make([]float32, batch*n*batch)
	for b := 0; b < batch; b++ {
		for t := 0; t < n; t++ {
			data[(b*n+t)*batch+b] = 1
		}
	}
	return tensor.New(tensor.WithShape(batch*n, batch), tensor.WithBacking(data))
}
