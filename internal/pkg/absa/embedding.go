package absa

import (
	"math"

	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Embedding owns the word and aspect lookup tables.
// A lookup is a one-hot selection matrix times the table, which keeps the
// gather differentiable when the tables are trainable.
type Embedding struct {
	Graph  *gorgonia.ExprGraph
	Word   *gorgonia.Node // (V, dw)
	Aspect *gorgonia.Node // (A, da)

	Trainable bool
}

// NewEmbedding creates both tables with values in U(-sqrt3, sqrt3), which has unit variance.
func NewEmbedding(g *gorgonia.ExprGraph, cfg Config, in *initializer) *Embedding {
	sqrt3 := math.Sqrt(3.0)
	return &Embedding{
		Graph:     g,
		Word:      in.matrix(g, "word_embedding", cfg.VocabSize, cfg.EmbeddingSize, in.uniform(-sqrt3, sqrt3)),
		Aspect:    in.matrix(g, "aspect_embedding", cfg.AspectVocabSize, cfg.AspectEmbeddingSize, in.uniform(-sqrt3, sqrt3)),
		Trainable: cfg.TrainEmbeddings,
	}
}

// Forward looks up the words and the aspect of every example.
//
//	words:  (batch*N, V) one-hot, batch-major
//	aspect: (batch, A) one-hot
//	tiler:  (batch*N, batch) row repeater
//
// It returns the concatenated sequence (batch, N, dw+da) and the untiled
// aspect vector (batch, da).
func (e *Embedding) Forward(words, aspect, tiler *gorgonia.Node, batch, n int) (seq, v *gorgonia.Node, err error) {
	w, err := gorgonia.Mul(words, e.Word) // (batch*N, dw)
	if err != nil {
		return nil, nil, errors.Wrap(err, "word lookup")
	}
	v, err = gorgonia.Mul(aspect, e.Aspect) // (batch, da)
	if err != nil {
		return nil, nil, errors.Wrap(err, "aspect lookup")
	}
	tiled, err := gorgonia.Mul(tiler, v) // (batch*N, da)
	if err != nil {
		return nil, nil, errors.Wrap(err, "aspect tile")
	}
	joined, err := gorgonia.Concat(1, w, tiled)
	if err != nil {
		return nil, nil, errors.Wrap(err, "concat")
	}
	width := e.Word.Shape()[1] + e.Aspect.Shape()[1]
	seq, err = gorgonia.Reshape(joined, tensor.Shape{batch, n, width})
	if err != nil {
		return nil, nil, errors.Wrap(err, "reshape")
	}
	return seq, v, nil
}

// Load replaces the table values. Shapes must match the declared sizes.
func (e *Embedding) Load(word, aspect tensor.Tensor) error {
	if word != nil {
		if !word.Shape().Eq(e.Word.Shape()) {
			return errors.Errorf("word table shape %v, expected %v", word.Shape(), e.Word.Shape())
		}
		if err := gorgonia.Let(e.Word, word); err != nil {
			return errors.Wrap(err, "can't set word table")
		}
	}
	if aspect != nil {
		if !aspect.Shape().Eq(e.Aspect.Shape()) {
			return errors.Errorf("aspect table shape %v, expected %v", aspect.Shape(), e.Aspect.Shape())
		}
		if err := gorgonia.Let(e.Aspect, aspect); err != nil {
			return errors.Wrap(err, "can't set aspect table")
		}
	}
	return nil
}

// Learnables returns the tables when they are trainable.
func (e *Embedding) Learnables() gorgonia.Nodes {
	if !e.Trainable {
		return nil
	}
	return gorgonia.Nodes{e.Word, e.Aspect}
}

// Params returns both tables regardless of trainability.
func (e *Embedding) Params() gorgonia.Nodes {
	return gorgonia.Nodes{e.Word, e.Aspect}
}
