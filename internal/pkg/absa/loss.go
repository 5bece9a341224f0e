package absa

import (
	"gorgonia.org/gorgonia"
)

// crossEntropyFromProbs returns -mean_b(Σ_c y·log p) over probabilities that
// already went through softmax. No epsilon is added: a probability that
// underflows to zero yields an infinite loss.
func crossEntropyFromProbs(probs, yOneHot *gorgonia.Node) (*gorgonia.Node, error) {
	logP, err := gorgonia.Log(probs)
	if err != nil {
		return nil, err
	}
	mul, err := gorgonia.HadamardProd(yOneHot, logP)
	if err != nil {
		return nil, err
	}
	sum, err := gorgonia.Sum(mul, 1)
	if err != nil {
		return nil, err
	}
	mean, err := gorgonia.Mean(sum)
	if err != nil {
		return nil, err
	}
	return gorgonia.Neg(mean)
}

// l2Penalty returns lambda * Σ ‖p‖²/2 over params.
func l2Penalty(g *gorgonia.ExprGraph, params gorgonia.Nodes, lambda float64) (*gorgonia.Node, error) {
	var total *gorgonia.Node
	for _, p := range params {
		sq, err := gorgonia.Square(p)
		if err != nil {
			return nil, err
		}
		s, err := gorgonia.Sum(sq)
		if err != nil {
			return nil, err
		}
		if total == nil {
			total = s
			continue
		}
		if total, err = gorgonia.Add(total, s); err != nil {
			return nil, err
		}
	}
	scale := gorgonia.NodeFromAny(g, float32(lambda/2), gorgonia.WithName("l2_scale"))
	return gorgonia.HadamardProd(total, scale)
}

// objective is the training loss: cross entropy plus the L2 penalty on the
// trainable parameters.
func objective(g *gorgonia.ExprGraph, probs, targets *gorgonia.Node, learnables gorgonia.Nodes, lambda float64) (*gorgonia.Node, error) {
	ce, err := crossEntropyFromProbs(probs, targets)
	if err != nil {
		return nil, err
	}
	if lambda == 0 || len(learnables) == 0 {
		return ce, nil
	}
	reg, err := l2Penalty(g, learnables, lambda)
	if err != nil {
		return nil, err
	}
	return gorgonia.Add(ce, reg)
}
