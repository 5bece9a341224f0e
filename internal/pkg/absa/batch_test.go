package absa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	b := DebugBatch()
	assert.Nil(t, b.Check(4, 3, true))
	assert.Equal(t, 4, b.Size())
}

func TestCheck_Fails(t *testing.T) {
	b := DebugBatch()
	assert.NotNil(t, b.Check(5, 3, false))
	assert.NotNil(t, b.Check(4, 4, false))

	b = DebugBatch()
	b.Lengths[2] = 4
	assert.NotNil(t, b.Check(4, 3, false))

	b = DebugBatch()
	b.Aspects = b.Aspects[:3]
	assert.NotNil(t, b.Check(4, 3, false))

	b = DebugBatch()
	b.Labels = nil
	assert.Nil(t, b.Check(4, 3, false))
	assert.NotNil(t, b.Check(4, 3, true))

	b = DebugBatch()
	b.Labels[0] = NumClasses
	assert.NotNil(t, b.Check(4, 3, true))
}

func TestCheck_IgnoresIDRange(t *testing.T) {
	b := DebugBatch()
	b.Tokens[0][0] = 1000
	b.Aspects[1] = -3
	assert.Nil(t, b.Check(4, 3, false))
}

func TestOneHot(t *testing.T) {
	oh := oneHot([]int{2, 0, 9}, 3)
	assert.Equal(t, []int{3, 3}, []int(oh.Shape()))
	assert.Equal(t, []float32{0, 0, 1, 1, 0, 0, 0, 0, 0}, oh.Data().([]float32))
}

func TestFlatTokens(t *testing.T) {
	assert.Equal(t, []int{5, 6, 1, 7, 6, 0, 0, 7, 0, 1, 2, 3}, flatTokens(DebugBatch().Tokens))
}

func TestStepMasks(t *testing.T) {
	keep, carry := stepMasks([]int{2, 0}, 3, 2)
	assert.Equal(t, []int{3, 2, 2}, []int(keep.Shape()))
	assert.Equal(t, []float32{
		1, 1, 0, 0, // t=0
		1, 1, 0, 0, // t=1
		0, 0, 0, 0, // t=2
	}, keep.Data().([]float32))
	assert.Equal(t, []float32{
		0, 0, 1, 1,
		0, 0, 1, 1,
		1, 1, 1, 1,
	}, carry.Data().([]float32))
}

func TestRepeatRows(t *testing.T) {
	r := repeatRows(2, 3)
	assert.Equal(t, []int{6, 2}, []int(r.Shape()))
	assert.Equal(t, []float32{
		1, 0,
		1, 0,
		1, 0,
		0, 1,
		0, 1,
		0, 1,
	}, r.Data().([]float32))
}

func TestAccuracy(t *testing.T) {
	assert.InDelta(t, 0.5, Accuracy([]int{0, 1, 2, 2}, []int{0, 1, 1, 0}), 1e-9)
	assert.InDelta(t, 0.0, Accuracy(nil, nil), 1e-9)
	assert.InDelta(t, 0.5, Accuracy([]int{1}, []int{1, 2}), 1e-9)
}

func TestArgMax(t *testing.T) {
	assert.Equal(t, 1, argMax([]float32{0.2, 0.5, 0.3}))
	assert.Equal(t, 0, argMax([]float32{0.4, 0.4, 0.2}))
}
