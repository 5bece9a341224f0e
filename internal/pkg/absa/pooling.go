package absa

import (
	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Pooling fuses the attention-weighted context with the final encoder state.
type Pooling struct {
	Graph *gorgonia.ExprGraph
	Wp    *gorgonia.Node // (d, d) applied to the pooled context
	Wx    *gorgonia.Node // (d, d) applied to the final hidden state
}

// NewPooling creates both projections from N(0, 1/sqrt(600)).
func NewPooling(g *gorgonia.ExprGraph, in *initializer, hidden int) *Pooling {
	return &Pooling{
		Graph: g,
		Wp:    in.matrix(g, "pool_Wp", hidden, hidden, in.gaussian(0, projectionStdev)),
		Wx:    in.matrix(g, "pool_Wx", hidden, hidden, in.gaussian(0, projectionStdev)),
	}
}

// Forward returns h* = tanh(r·Wp + hN·Wx) with r = Hᵀα, shaped (batch, d).
func (p *Pooling) Forward(H, alpha, hN *gorgonia.Node) (*gorgonia.Node, error) {
	b, d := H.Shape()[0], H.Shape()[2]

	ht, err := gorgonia.Transpose(H, 0, 2, 1) // (batch, d, N)
	if err != nil {
		return nil, err
	}
	r, err := gorgonia.BatchedMatMul(ht, alpha) // (batch, d, 1)
	if err != nil {
		return nil, errors.Wrap(err, "weighted sum")
	}
	r, err = gorgonia.Reshape(r, tensor.Shape{b, d})
	if err != nil {
		return nil, err
	}
	rp, err := gorgonia.Mul(r, p.Wp)
	if err != nil {
		return nil, err
	}
	hx, err := gorgonia.Mul(hN, p.Wx)
	if err != nil {
		return nil, err
	}
	sum, err := gorgonia.Add(rp, hx)
	if err != nil {
		return nil, err
	}
	return gorgonia.Tanh(sum)
}

// Learnables returns Wp and Wx.
func (p *Pooling) Learnables() gorgonia.Nodes {
	return gorgonia.Nodes{p.Wp, p.Wx}
}
