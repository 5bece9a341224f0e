package embeddings

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Encoder maps one vocabulary entry to a dense vector.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
}

// Table encodes every entry of vocab into one row of a (len(vocab), dim)
// table. Every row must have the width of the first one.
func Table(ctx context.Context, enc Encoder, vocab []string) (tensor.Tensor, error) {
	if len(vocab) == 0 {
		return nil, errors.New("empty vocabulary")
	}
	var data []float32
	dim := 0
	for i, w := range vocab {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := enc.Encode(ctx, w)
		if err != nil {
			return nil, errors.Wrapf(err, "entry %d", i)
		}
		if i == 0 {
			dim = len(vec)
			if dim == 0 {
				return nil, errors.Errorf("encoder returned an empty vector for '%s'", w)
			}
			data = make([]float32, 0, len(vocab)*dim)
		}
		if len(vec) != dim {
			return nil, errors.Errorf("entry %d ('%s') has width %d, expected %d", i, w, len(vec), dim)
		}
		data = append(data, vec...)
	}
	return tensor.New(tensor.WithShape(len(vocab), dim), tensor.WithBacking(data)), nil
}

// Placeholders returns n synthetic vocabulary entries: prefix0, prefix1, ...
func Placeholders(prefix string, n int) []string {
	res := make([]string, n)
	for i := range res {
		res[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return res
}
