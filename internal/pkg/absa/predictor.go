package absa

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gorgonia.org/gorgonia"
)

// Prediction is the per-example output of one inference run.
type Prediction struct {
	Probabilities  [][]float32 // (batch, NumClasses)
	Classes        []int       // arg-max of Probabilities
	Attention      [][]float32 // (batch, N)
	Scores         [][]float32 // raw attention scores (batch, N)
	Representation [][]float32 // (batch, d)
}

// Predictor runs the forward pass of an Inference model.
type Predictor struct {
	model   *Model
	machine gorgonia.VM
}

// NewPredictor compiles the inference graph.
func NewPredictor(m *Model) (*Predictor, error) {
	if m.Mode != Inference {
		return nil, errors.New("predictor needs a model built in Inference mode")
	}
	return &Predictor{model: m, machine: gorgonia.NewTapeMachine(m.Graph)}, nil
}

// Predict classifies every example of b. Labels are ignored.
func (p *Predictor) Predict(b Batch) (*Prediction, error) {
	m := p.model
	if err := m.feed(b); err != nil {
		return nil, err
	}
	defer p.machine.Reset()
	if err := p.machine.RunAll(); err != nil {
		return nil, errors.Wrap(err, "run")
	}
	cfg := m.Config
	res := &Prediction{
		Probabilities:  rows(m.probsVal, NumClasses),
		Attention:      rows(m.alphaVal, cfg.InputLength),
		Scores:         rows(m.scoresVal, cfg.InputLength),
		Representation: rows(m.reprVal, cfg.HiddenSize),
	}
	res.Classes = make([]int, len(res.Probabilities))
	for i, pr := range res.Probabilities {
		res.Classes[i] = argMax(pr)
	}
	return res, nil
}

// Close releases the machine.
func (p *Predictor) Close() error {
	return p.machine.Close()
}

// rows copies a row-major value into a fresh [][]float32 of the given width.
func rows(v gorgonia.Value, width int) [][]float32 {
	data := v.Data().([]float32)
	res := make([][]float32, len(data)/width)
	for i := range res {
		res[i] = make([]float32, width)
		copy(res[i], data[i*width:(i+1)*width])
	}
	return res
}

// argMax returns the index of the largest value, the lowest index on ties.
func argMax(v []float32) int {
	return floats.MaxIdx(toF64(v))
}

func toF64(v []float32) []float64 {
	res := make([]float64, len(v))
	for i, x := range v {
		res[i] = float64(x)
	}
	return res
}

// Accuracy is the share of classes equal to labels.
func Accuracy(classes, labels []int) float64 {
	if len(labels) == 0 {
		return 0
	}
	correct := 0
	for i, l := range labels {
		if i < len(classes) && classes[i] == l {
			correct++
		}
	}
	return float64(correct) / float64(len(labels))
}
