package absa

import (
	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Mode selects what New builds on top of the forward pass.
type Mode int

const (
	// Inference builds the forward pass only.
	Inference Mode = iota
	// Training adds dropout, targets, the loss and its gradients.
	Training
)

// Model is one static computation graph for a fixed batch geometry,
// composed of explicit stages that own their parameters.
type Model struct {
	Config Config
	Mode   Mode
	Graph  *gorgonia.ExprGraph

	Embedding *Embedding
	Encoder   *Encoder
	Attention *Attention
	Pooling   *Pooling
	Head      *ClassificationHead

	// inputs, set per batch
	words   *gorgonia.Node // (batch*N, V)
	aspects *gorgonia.Node // (batch, A)
	keep    *gorgonia.Node // (N, batch, d)
	carry   *gorgonia.Node // (N, batch, d)
	targets *gorgonia.Node // (batch, NumClasses), Training only

	// outputs
	Scores         *gorgonia.Node
	Alpha          *gorgonia.Node
	Representation *gorgonia.Node
	Probs          *gorgonia.Node
	Loss           *gorgonia.Node

	scoresVal, alphaVal, reprVal, probsVal, lossVal gorgonia.Value
}

// New validates cfg and builds the model graph.
func New(cfg Config, mode Mode) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	g := gorgonia.NewGraph()
	in := newInitializer(cfg.Seed)
	b, n, d := cfg.BatchSize, cfg.InputLength, cfg.HiddenSize

	m := &Model{Config: cfg, Mode: mode, Graph: g}
	m.Embedding = NewEmbedding(g, cfg, in)
	cell, err := newCell(g, in, cfg, cfg.EmbeddingSize+cfg.AspectEmbeddingSize)
	if err != nil {
		return nil, err
	}
	m.Encoder = NewEncoder(g, cell, d)
	m.Attention = NewAttention(g, in, d, cfg.AspectEmbeddingSize)
	m.Pooling = NewPooling(g, in, d)
	m.Head = NewClassificationHead(g, in, d, NumClasses)

	m.words = input(g, "words", b*n, cfg.VocabSize)
	m.aspects = input(g, "aspects", b, cfg.AspectVocabSize)
	m.keep = gorgonia.NewTensor(g, tensor.Float32, 3, gorgonia.WithShape(n, b, d),
		gorgonia.WithName("keep_mask"), gorgonia.WithInit(gorgonia.Zeroes()))
	m.carry = gorgonia.NewTensor(g, tensor.Float32, 3, gorgonia.WithShape(n, b, d),
		gorgonia.WithName("carry_mask"), gorgonia.WithInit(gorgonia.Zeroes()))
	tiler := gorgonia.NodeFromAny(g, repeatRows(b, n), gorgonia.WithName("tiler"))

	if err := m.forward(tiler); err != nil {
		return nil, err
	}
	gorgonia.Read(m.Scores, &m.scoresVal)
	gorgonia.Read(m.Alpha, &m.alphaVal)
	gorgonia.Read(m.Representation, &m.reprVal)
	gorgonia.Read(m.Probs, &m.probsVal)

	if mode != Training {
		return m, nil
	}
	m.targets = input(g, "targets", b, NumClasses)
	if m.Loss, err = objective(g, m.Probs, m.targets, m.Learnables(), cfg.L2Reg); err != nil {
		return nil, errors.Wrap(err, "loss")
	}
	gorgonia.Read(m.Loss, &m.lossVal)
	if _, err := gorgonia.Grad(m.Loss, m.Learnables()...); err != nil {
		return nil, errors.Wrap(err, "gradients")
	}
	return m, nil
}

func input(g *gorgonia.ExprGraph, name string, rows, cols int) *gorgonia.Node {
	return gorgonia.NewMatrix(g, tensor.Float32,
		gorgonia.WithShape(rows, cols),
		gorgonia.WithName(name),
		gorgonia.WithInit(gorgonia.Zeroes()))
}

func (m *Model) forward(tiler *gorgonia.Node) error {
	cfg := m.Config
	seq, v, err := m.Embedding.Forward(m.words, m.aspects, tiler, cfg.BatchSize, cfg.InputLength)
	if err != nil {
		return errors.Wrap(err, "embedding")
	}
	if m.Mode == Training && cfg.KeepProb < 1 {
		if seq, err = gorgonia.Dropout(seq, 1-cfg.KeepProb); err != nil {
			return errors.Wrap(err, "dropout")
		}
	}
	enc, err := m.Encoder.Forward(seq, m.keep, m.carry)
	if err != nil {
		return errors.Wrap(err, "encoder")
	}
	att, err := m.Attention.Forward(enc.Outputs, v, tiler)
	if err != nil {
		return errors.Wrap(err, "attention")
	}
	m.Scores, m.Alpha = att.Scores, att.Alpha
	if m.Representation, err = m.Pooling.Forward(enc.Outputs, att.Alpha, enc.H); err != nil {
		return errors.Wrap(err, "pooling")
	}
	if m.Probs, err = m.Head.Forward(m.Representation); err != nil {
		return errors.Wrap(err, "head")
	}
	return nil
}

// Learnables returns the parameters updated by the optimizer.
func (m *Model) Learnables() gorgonia.Nodes {
	var res gorgonia.Nodes
	res = append(res, m.Embedding.Learnables()...)
	res = append(res, m.Encoder.Learnables()...)
	res = append(res, m.Attention.Learnables()...)
	res = append(res, m.Pooling.Learnables()...)
	res = append(res, m.Head.Learnables()...)
	return res
}

// params returns every parameter, frozen tables included.
func (m *Model) params() gorgonia.Nodes {
	res := m.Embedding.Params()
	res = append(res, m.Encoder.Learnables()...)
	res = append(res, m.Attention.Learnables()...)
	res = append(res, m.Pooling.Learnables()...)
	res = append(res, m.Head.Learnables()...)
	return res
}

// LoadEmbeddings replaces the word and aspect tables. A nil table is kept.
func (m *Model) LoadEmbeddings(word, aspect tensor.Tensor) error {
	return m.Embedding.Load(word, aspect)
}

// feed binds one batch to the input nodes.
func (m *Model) feed(b Batch) error {
	cfg := m.Config
	training := m.Mode == Training
	if err := b.Check(cfg.BatchSize, cfg.InputLength, training); err != nil {
		return err
	}
	keep, carry := stepMasks(b.Lengths, cfg.InputLength, cfg.HiddenSize)
	lets := []struct {
		n *gorgonia.Node
		v tensor.Tensor
	}{
		{m.words, oneHot(flatTokens(b.Tokens), cfg.VocabSize)},
		{m.aspects, oneHot(b.Aspects, cfg.AspectVocabSize)},
		{m.keep, keep},
		{m.carry, carry},
	}
	if training {
		lets = append(lets, struct {
			n *gorgonia.Node
			v tensor.Tensor
		}{m.targets, oneHot(b.Labels, NumClasses)})
	}
	for _, l := range lets {
		if err := gorgonia.Let(l.n, l.v); err != nil {
			return errors.Wrapf(err, "can't bind %s", l.n.Name())
		}
	}
	return nil
}
