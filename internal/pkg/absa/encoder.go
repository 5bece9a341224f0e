package absa

import (
	"fmt"

	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Encoder unrolls one recurrent cell over the N steps of the sequence.
type Encoder struct {
	Graph  *gorgonia.ExprGraph
	Cell   Cell
	Hidden int
}

// Encoded is the output of the sequence encoding stage.
type Encoded struct {
	Outputs *gorgonia.Node // (batch, N, d), zero past each length
	H       *gorgonia.Node // final hidden state (batch, d)
	C       *gorgonia.Node // final cell state (batch, d), nil for GRU
}

// NewEncoder wraps cell.
func NewEncoder(g *gorgonia.ExprGraph, cell Cell, hidden int) *Encoder {
	return &Encoder{Graph: g, Cell: cell, Hidden: hidden}
}

// Forward runs the cell over seq (batch, N, F). keep and carry are
// (N, batch, d) masks: once t reaches an example's length the state is
// carried unchanged and the step output is zero.
func (e *Encoder) Forward(seq, keep, carry *gorgonia.Node) (*Encoded, error) {
	shp := seq.Shape()
	if len(shp) != 3 {
		return nil, errors.Errorf("encoder input must be 3-D, got %v", shp)
	}
	batch, n := shp[0], shp[1]
	if ks := keep.Shape(); !ks.Eq(tensor.Shape{n, batch, e.Hidden}) {
		return nil, errors.Errorf("mask shape %v does not match (%d, %d, %d)", ks, n, batch, e.Hidden)
	}

	h := e.zeros("h0", batch)
	var c *gorgonia.Node
	if e.Cell.HasCellState() {
		c = e.zeros("c0", batch)
	}

	steps, err := gorgonia.Transpose(seq, 1, 0, 2) // (N, batch, F)
	if err != nil {
		return nil, errors.Wrap(err, "time major")
	}
	outs := make([]*gorgonia.Node, n)
	for t := 0; t < n; t++ {
		x, err := gorgonia.Slice(steps, gorgonia.S(t)) // (batch, F)
		if err != nil {
			return nil, errors.Wrapf(err, "slice step %d", t)
		}
		hNew, cNew, err := e.Cell.Step(x, h, c)
		if err != nil {
			return nil, errors.Wrapf(err, "step %d", t)
		}
		k, err := gorgonia.Slice(keep, gorgonia.S(t))
		if err != nil {
			return nil, err
		}
		cr, err := gorgonia.Slice(carry, gorgonia.S(t))
		if err != nil {
			return nil, err
		}
		out, err := gorgonia.HadamardProd(hNew, k)
		if err != nil {
			return nil, err
		}
		if h, err = blend(out, h, cr); err != nil {
			return nil, err
		}
		if c != nil {
			cKept, err := gorgonia.HadamardProd(cNew, k)
			if err != nil {
				return nil, err
			}
			if c, err = blend(cKept, c, cr); err != nil {
				return nil, err
			}
		}
		if outs[t], err = gorgonia.Reshape(out, tensor.Shape{batch, 1, e.Hidden}); err != nil {
			return nil, err
		}
	}

	outputs := outs[0]
	if n > 1 {
		if outputs, err = gorgonia.Concat(1, outs...); err != nil {
			return nil, errors.Wrap(err, "stack outputs")
		}
	}
	return &Encoded{Outputs: outputs, H: h, C: c}, nil
}

// blend returns kept + carry⊙prev, where kept is already masked.
func blend(kept, prev, carry *gorgonia.Node) (*gorgonia.Node, error) {
	held, err := gorgonia.HadamardProd(prev, carry)
	if err != nil {
		return nil, err
	}
	return gorgonia.Add(kept, held)
}

func (e *Encoder) zeros(name string, batch int) *gorgonia.Node {
	t := tensor.New(tensor.WithShape(batch, e.Hidden), tensor.Of(tensor.Float32))
	return gorgonia.NodeFromAny(e.Graph, t, gorgonia.WithName(fmt.Sprintf("encoder_%s", name)))
}

// Learnables returns the cell weights.
func (e *Encoder) Learnables() gorgonia.Nodes {
	return e.Cell.Learnables()
}
