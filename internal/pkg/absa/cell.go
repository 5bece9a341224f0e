package absa

import (
	"fmt"

	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
)

// Cell advances the recurrent state by one time step.
// c is the cell state; cells without one receive and return nil.
type Cell interface {
	Step(x, h, c *gorgonia.Node) (hNext, cNext *gorgonia.Node, err error)
	HasCellState() bool
	Learnables() gorgonia.Nodes
}

// gate holds the input, recurrent and bias weights of one gate.
type gate struct {
	W *gorgonia.Node // (in, d)
	U *gorgonia.Node // (d, d)
	B *gorgonia.Node // (1, d)
}

func newGate(g *gorgonia.ExprGraph, in *initializer, prefix, name string, inputDim, hidden int, bias float32) gate {
	return gate{
		W: in.matrix(g, fmt.Sprintf("%s_W%s", prefix, name), inputDim, hidden, in.glorotU()),
		U: in.matrix(g, fmt.Sprintf("%s_U%s", prefix, name), hidden, hidden, in.glorotU()),
		B: in.matrix(g, fmt.Sprintf("%s_b%s", prefix, name), 1, hidden, constant(bias)),
	}
}

// apply computes x·W + h·U + b.
func (gt gate) apply(x, h *gorgonia.Node) (*gorgonia.Node, error) {
	xw, err := gorgonia.Mul(x, gt.W)
	if err != nil {
		return nil, err
	}
	hu, err := gorgonia.Mul(h, gt.U)
	if err != nil {
		return nil, err
	}
	sum, err := gorgonia.Add(xw, hu)
	if err != nil {
		return nil, err
	}
	// Bias (1, d) over (batch, d).
	return gorgonia.BroadcastAdd(sum, gt.B, nil, []byte{0})
}

func (gt gate) nodes() gorgonia.Nodes {
	return gorgonia.Nodes{gt.W, gt.U, gt.B}
}

// LSTMCell is a basic LSTM cell without peepholes. A constant forget bias
// of 1 is added on top of the trainable, zero-initialised bias.
type LSTMCell struct {
	I, J, F, O gate

	forgetBias *gorgonia.Node
}

// NewLSTMCell creates the four gates for inputs of width inputDim.
func NewLSTMCell(g *gorgonia.ExprGraph, in *initializer, inputDim, hidden int) *LSTMCell {
	return &LSTMCell{
		I: newGate(g, in, "lstm", "i", inputDim, hidden, 0),
		J: newGate(g, in, "lstm", "j", inputDim, hidden, 0),
		F: newGate(g, in, "lstm", "f", inputDim, hidden, 0),
		O: newGate(g, in, "lstm", "o", inputDim, hidden, 0),

		forgetBias: gorgonia.NodeFromAny(g, float32(1), gorgonia.WithName("lstm_forget_bias")),
	}
}

// Step computes c' = c*σ(f+1) + σ(i)*tanh(j) and h' = tanh(c')*σ(o).
func (l *LSTMCell) Step(x, h, c *gorgonia.Node) (*gorgonia.Node, *gorgonia.Node, error) {
	pre := make([]*gorgonia.Node, 4)
	for k, gt := range []gate{l.I, l.J, l.F, l.O} {
		p, err := gt.apply(x, h)
		if err != nil {
			return nil, nil, errors.Wrap(err, "lstm gate")
		}
		pre[k] = p
	}
	i, err := gorgonia.Sigmoid(pre[0])
	if err != nil {
		return nil, nil, err
	}
	j, err := gorgonia.Tanh(pre[1])
	if err != nil {
		return nil, nil, err
	}
	shifted, err := gorgonia.Add(pre[2], l.forgetBias)
	if err != nil {
		return nil, nil, err
	}
	f, err := gorgonia.Sigmoid(shifted)
	if err != nil {
		return nil, nil, err
	}
	o, err := gorgonia.Sigmoid(pre[3])
	if err != nil {
		return nil, nil, err
	}

	kept, err := gorgonia.HadamardProd(c, f)
	if err != nil {
		return nil, nil, err
	}
	written, err := gorgonia.HadamardProd(i, j)
	if err != nil {
		return nil, nil, err
	}
	cNext, err := gorgonia.Add(kept, written)
	if err != nil {
		return nil, nil, err
	}
	act, err := gorgonia.Tanh(cNext)
	if err != nil {
		return nil, nil, err
	}
	hNext, err := gorgonia.HadamardProd(act, o)
	if err != nil {
		return nil, nil, err
	}
	return hNext, cNext, nil
}

// HasCellState is true for LSTM.
func (l *LSTMCell) HasCellState() bool { return true }

// Learnables returns the weights of all four gates.
func (l *LSTMCell) Learnables() gorgonia.Nodes {
	var res gorgonia.Nodes
	for _, gt := range []gate{l.I, l.J, l.F, l.O} {
		res = append(res, gt.nodes()...)
	}
	return res
}

// GRUCell is a gated recurrent unit with update gate Z, reset gate R and
// candidate N.
type GRUCell struct {
	Z, R, N gate
}

// NewGRUCell creates the three gates for inputs of width inputDim.
func NewGRUCell(g *gorgonia.ExprGraph, in *initializer, inputDim, hidden int) *GRUCell {
	return &GRUCell{
		Z: newGate(g, in, "gru", "z", inputDim, hidden, 1),
		R: newGate(g, in, "gru", "r", inputDim, hidden, 1),
		N: newGate(g, in, "gru", "n", inputDim, hidden, 0),
	}
}

// Step computes n = tanh(x·Wn + (r⊙h)·Un + bn) and h' = n + z⊙(h-n).
func (gr *GRUCell) Step(x, h, _ *gorgonia.Node) (*gorgonia.Node, *gorgonia.Node, error) {
	zPre, err := gr.Z.apply(x, h)
	if err != nil {
		return nil, nil, errors.Wrap(err, "gru update gate")
	}
	z, err := gorgonia.Sigmoid(zPre)
	if err != nil {
		return nil, nil, err
	}
	rPre, err := gr.R.apply(x, h)
	if err != nil {
		return nil, nil, errors.Wrap(err, "gru reset gate")
	}
	r, err := gorgonia.Sigmoid(rPre)
	if err != nil {
		return nil, nil, err
	}
	rh, err := gorgonia.HadamardProd(r, h)
	if err != nil {
		return nil, nil, err
	}
	nPre, err := gr.N.apply(x, rh)
	if err != nil {
		return nil, nil, errors.Wrap(err, "gru candidate")
	}
	n, err := gorgonia.Tanh(nPre)
	if err != nil {
		return nil, nil, err
	}
	diff, err := gorgonia.Sub(h, n)
	if err != nil {
		return nil, nil, err
	}
	zd, err := gorgonia.HadamardProd(z, diff)
	if err != nil {
		return nil, nil, err
	}
	hNext, err := gorgonia.Add(n, zd)
	if err != nil {
		return nil, nil, err
	}
	return hNext, nil, nil
}

// HasCellState is false for GRU.
func (gr *GRUCell) HasCellState() bool { return false }

// Learnables returns the weights of all three gates.
func (gr *GRUCell) Learnables() gorgonia.Nodes {
	var res gorgonia.Nodes
	for _, gt := range []gate{gr.Z, gr.R, gr.N} {
		res = append(res, gt.nodes()...)
	}
	return res
}

func newCell(g *gorgonia.ExprGraph, in *initializer, cfg Config, inputDim int) (Cell, error) {
	switch cfg.Cell {
	case LSTM:
		return NewLSTMCell(g, in, inputDim, cfg.HiddenSize), nil
	case GRU:
		return NewGRUCell(g, in, inputDim, cfg.HiddenSize), nil
	}
	return nil, errors.Errorf("unknown cell type %d", cfg.Cell)
}
