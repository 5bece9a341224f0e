package absa

import (
	"math"
	"math/rand"

	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// initializer draws every parameter of one model from a single seeded
// source so that two models built from the same Config start identical.
type initializer struct {
	rng *rand.Rand
}

func newInitializer(seed int64) *initializer {
	return &initializer{rng: rand.New(rand.NewSource(seed))}
}

func (in *initializer) fill(s []int, draw func() float64) []float32 {
	out := make([]float32, tensor.Shape(s).TotalSize())
	for i := range out {
		out[i] = float32(draw())
	}
	return out
}

func (in *initializer) gaussian(mean, stdev float64) gorgonia.InitWFn {
	return func(dt tensor.Dtype, s ...int) interface{} {
		return in.fill(s, func() float64 { return in.rng.NormFloat64()*stdev + mean })
	}
}

func (in *initializer) uniform(low, high float64) gorgonia.InitWFn {
	return func(dt tensor.Dtype, s ...int) interface{} {
		return in.fill(s, func() float64 { return low + in.rng.Float64()*(high-low) })
	}
}

// glorotU is Xavier uniform with gain 1 over a 2-D shape.
func (in *initializer) glorotU() gorgonia.InitWFn {
	return func(dt tensor.Dtype, s ...int) interface{} {
		limit := math.Sqrt(6.0 / float64(s[0]+s[len(s)-1]))
		return in.fill(s, func() float64 { return -limit + in.rng.Float64()*2*limit })
	}
}

func constant(v float32) gorgonia.InitWFn {
	return func(dt tensor.Dtype, s ...int) interface{} {
		out := make([]float32, tensor.Shape(s).TotalSize())
		for i := range out {
			out[i] = v
		}
		return out
	}
}

// projectionStdev is the stdev of the attention, pooling and head projections.
var projectionStdev = 1.0 / math.Sqrt(600.0)

func (in *initializer) matrix(g *gorgonia.ExprGraph, name string, rows, cols int, fn gorgonia.InitWFn) *gorgonia.Node {
	return gorgonia.NewMatrix(g, tensor.Float32,
		gorgonia.WithShape(rows, cols),
		gorgonia.WithName(name),
		gorgonia.WithInit(fn))
}
