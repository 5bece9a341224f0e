package absa

import (
	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Attention scores every time step against the aspect and normalises the
// scores over the sequence.
type Attention struct {
	Graph *gorgonia.ExprGraph
	Wh    *gorgonia.Node // (d, d)
	Wv    *gorgonia.Node // (da, da)
	W     *gorgonia.Node // (d+da, 1)
}

// Attended holds the raw scores next to the distribution for inspection.
type Attended struct {
	Scores *gorgonia.Node // (batch, N)
	Alpha  *gorgonia.Node // (batch, N, 1)
}

// NewAttention creates the projections. Wh and Wv start from N(0, 1/sqrt(600)),
// the scoring vector from U(-0.003, 0.003).
func NewAttention(g *gorgonia.ExprGraph, in *initializer, hidden, aspectDim int) *Attention {
	return &Attention{
		Graph: g,
		Wh:    in.matrix(g, "attn_Wh", hidden, hidden, in.gaussian(0, projectionStdev)),
		Wv:    in.matrix(g, "attn_Wv", aspectDim, aspectDim, in.gaussian(0, projectionStdev)),
		W:     in.matrix(g, "attn_w", hidden+aspectDim, 1, in.uniform(-0.003, 0.003)),
	}
}

// Forward computes α = softmax_N(tanh([H·Wh ; tile(v·Wv)])·w).
// H is (batch, N, d), v is (batch, da), tiler repeats rows N times.
func (a *Attention) Forward(H, v, tiler *gorgonia.Node) (*Attended, error) {
	b, n := H.Shape()[0], H.Shape()[1]

	proj, err := a.project(H)
	if err != nil {
		return nil, errors.Wrap(err, "hidden projection")
	}
	av, err := gorgonia.Mul(v, a.Wv) // (batch, da)
	if err != nil {
		return nil, errors.Wrap(err, "aspect projection")
	}
	tiled, err := gorgonia.Mul(tiler, av) // (batch*N, da)
	if err != nil {
		return nil, errors.Wrap(err, "aspect tile")
	}
	joined, err := gorgonia.Concat(1, proj, tiled) // (batch*N, d+da)
	if err != nil {
		return nil, err
	}
	m, err := gorgonia.Tanh(joined)
	if err != nil {
		return nil, err
	}
	raw, err := gorgonia.Mul(m, a.W) // (batch*N, 1)
	if err != nil {
		return nil, errors.Wrap(err, "score")
	}
	scores, err := gorgonia.Reshape(raw, tensor.Shape{b, n})
	if err != nil {
		return nil, err
	}
	// Axis 1 is pinned: with N=1 gorgonia would pick axis 0 for a column.
	probs, err := gorgonia.SoftMax(scores, 1)
	if err != nil {
		return nil, err
	}
	alpha, err := gorgonia.Reshape(probs, tensor.Shape{b, n, 1})
	if err != nil {
		return nil, err
	}
	return &Attended{Scores: scores, Alpha: alpha}, nil
}

// project flattens H to (batch*N, d) and multiplies by Wh.
func (a *Attention) project(H *gorgonia.Node) (*gorgonia.Node, error) {
	b, s, e := H.Shape()[0], H.Shape()[1], H.Shape()[2]
	flat, err := gorgonia.Reshape(H, tensor.Shape{b * s, e})
	if err != nil {
		return nil, err
	}
	return gorgonia.Mul(flat, a.Wh)
}

// Learnables returns Wh, Wv and w.
func (a *Attention) Learnables() gorgonia.Nodes {
	return gorgonia.Nodes{a.Wh, a.Wv, a.W}
}
