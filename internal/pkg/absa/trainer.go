package absa

import (
	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
)

// Trainer runs forward, backward and one Adam update per batch.
type Trainer struct {
	model      *Model
	learnables gorgonia.Nodes
	solver     gorgonia.Solver
	machine    gorgonia.VM
}

// NewTrainer compiles the training graph. Parameters and embeddings should
// be loaded before the trainer is created.
func NewTrainer(m *Model) (*Trainer, error) {
	if m.Mode != Training {
		return nil, errors.New("trainer needs a model built in Training mode")
	}
	learnables := m.Learnables()
	return &Trainer{
		model:      m,
		learnables: learnables,
		solver:     gorgonia.NewAdamSolver(gorgonia.WithLearnRate(m.Config.LearnRate)),
		machine:    gorgonia.NewTapeMachine(m.Graph, gorgonia.BindDualValues(learnables...)),
	}, nil
}

// Step trains on b and returns the loss computed before the update.
func (t *Trainer) Step(b Batch) (float32, error) {
	loss, err := t.run(b)
	if err != nil {
		return 0, err
	}
	defer t.machine.Reset()
	if err := t.solver.Step(gorgonia.NodesToValueGrads(t.learnables)); err != nil {
		return 0, errors.Wrap(err, "solver step")
	}
	return loss, nil
}

// Loss evaluates the loss on b without changing any parameter.
func (t *Trainer) Loss(b Batch) (float32, error) {
	loss, err := t.run(b)
	t.machine.Reset()
	return loss, err
}

func (t *Trainer) run(b Batch) (float32, error) {
	if err := t.model.feed(b); err != nil {
		return 0, err
	}
	if err := t.machine.RunAll(); err != nil {
		t.machine.Reset()
		return 0, errors.Wrap(err, "run")
	}
	return t.model.lossVal.Data().(float32), nil
}

// Close releases the machine.
func (t *Trainer) Close() error {
	return t.machine.Close()
}
