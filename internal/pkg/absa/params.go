package absa

import (
	"sort"

	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Params maps parameter node names to their values.
// Graphs are static, so trained weights move between models as Params.
type Params map[string]tensor.Tensor

// Names returns the parameter names in sorted order.
func (p Params) Names() []string {
	res := make([]string, 0, len(p))
	for k := range p {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}

// Params clones the current value of every parameter.
func (m *Model) Params() Params {
	res := Params{}
	for _, n := range m.params() {
		val := n.Value()
		if val == nil {
			continue
		}
		res[n.Name()] = val.(tensor.Tensor).Clone().(tensor.Tensor)
	}
	return res
}

// SetParams copies the values in p into the matching parameters.
// Names missing from p are left unchanged; a shape mismatch is an error.
func (m *Model) SetParams(p Params) error {
	for _, n := range m.params() {
		val, ok := p[n.Name()]
		if !ok {
			continue
		}
		if !val.Shape().Eq(n.Shape()) {
			return errors.Errorf("param %s has shape %v, expected %v", n.Name(), val.Shape(), n.Shape())
		}
		if err := gorgonia.Let(n, val.Clone().(tensor.Tensor)); err != nil {
			return errors.Wrapf(err, "can't set %s", n.Name())
		}
	}
	return nil
}
