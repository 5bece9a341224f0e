package absa

import (
	"gorgonia.org/gorgonia"
)

// ClassificationHead represents the final prediction layer.
type ClassificationHead struct {
	Graph  *gorgonia.ExprGraph
	Linear *gorgonia.Node // Weights (d -> NumClasses)
	Bias   *gorgonia.Node // (1, NumClasses)
}

func NewClassificationHead(g *gorgonia.ExprGraph, in *initializer, inputDim, numClasses int) *ClassificationHead {
	return &ClassificationHead{
		Graph:  g,
		Linear: in.matrix(g, "head_Ws", inputDim, numClasses, in.gaussian(0, projectionStdev)),
		Bias:   in.matrix(g, "head_bs", 1, numClasses, constant(0)),
	}
}

// Forward maps the sentence representation (batch, d) to class
// probabilities (batch, NumClasses).
func (h *ClassificationHead) Forward(input *gorgonia.Node) (*gorgonia.Node, error) {
	logits, err := gorgonia.Mul(input, h.Linear)
	if err != nil {
		return nil, err
	}

	// Broadcast Add Bias
	// Bias (1, C). Logits (B, C).
	logits, err = gorgonia.BroadcastAdd(logits, h.Bias, nil, []byte{0})
	if err != nil {
		return nil, err
	}

	return gorgonia.SoftMax(logits, 1)
}

// Learnables returns the weight and the bias.
func (h *ClassificationHead) Learnables() gorgonia.Nodes {
	return gorgonia.Nodes{h.Linear, h.Bias}
}
