package trainer

import (
	"context"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atae/internal/pkg/absa"
	"atae/internal/pkg/cmdapp"
	"atae/internal/pkg/embeddings"
	"atae/internal/pkg/metrics"
)

func testParams(t *testing.T) *Params {
	t.Helper()
	p, err := readParams(viper.New())
	require.Nil(t, err)
	p.Epochs = 5
	p.Batches = 2
	p.Model.HiddenSize = 6
	p.Model.InputLength = 4
	p.Model.BatchSize = 4
	return p
}

func finite(v float32) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}

func TestReadParams_Defaults(t *testing.T) {
	p, err := readParams(viper.New())
	require.Nil(t, err)
	assert.Equal(t, absa.LSTM, p.Model.Cell)
	assert.Equal(t, ProviderRandom, p.Provider)
	assert.InDelta(t, 0.001, p.Model.L2Reg, 1e-9)
	assert.InDelta(t, 0.01, p.Model.LearnRate, 1e-9)
	assert.Nil(t, p.Model.Validate())
}

func TestReadParams(t *testing.T) {
	c := viper.New()
	c.Set("model.cell", "gru")
	c.Set("model.hiddenSize", 9)
	c.Set("train.epochs", 3)
	c.Set("embeddings.provider", "hash")
	c.Set("embeddings.words", []string{"a", "b"})
	p, err := readParams(c)
	require.Nil(t, err)
	assert.Equal(t, absa.GRU, p.Model.Cell)
	assert.Equal(t, 9, p.Model.HiddenSize)
	assert.Equal(t, 3, p.Epochs)
	assert.Equal(t, ProviderHash, p.Provider)
	assert.Equal(t, []string{"a", "b"}, p.Words)
}

func TestReadParams_Fails(t *testing.T) {
	c := viper.New()
	c.Set("model.cell", "rnn")
	_, err := readParams(c)
	assert.NotNil(t, err)

	c = viper.New()
	c.Set("embeddings.provider", "file")
	_, err = readParams(c)
	assert.NotNil(t, err)

	c = viper.New()
	c.Set("train.batches", 0)
	_, err = readParams(c)
	assert.NotNil(t, err)
}

func TestApplyDebug(t *testing.T) {
	p := testParams(t)
	p.Model.Debug = true
	p.Model.VocabSize = 3
	applyDebug(p)
	assert.Equal(t, 4, p.Model.BatchSize)
	assert.Equal(t, 3, p.Model.InputLength)
	assert.Equal(t, 8, p.Model.VocabSize)
	assert.Equal(t, 8, p.Model.AspectVocabSize)
	assert.Equal(t, 1, p.Batches)
}

func TestSyntheticBatches(t *testing.T) {
	cfg := testParams(t).Model
	bs := syntheticBatches(cfg, 3, 7)
	require.Len(t, bs, 3)
	for _, b := range bs {
		assert.Nil(t, b.Check(cfg.BatchSize, cfg.InputLength, true))
		for i := range b.Tokens {
			assert.Equal(t, (b.Aspects[i]+b.Tokens[i][0])%absa.NumClasses, b.Labels[i])
			assert.True(t, b.Lengths[i] >= 1)
		}
	}
	assert.Equal(t, bs, syntheticBatches(cfg, 3, 7))
}

func TestRun_Debug(t *testing.T) {
	for _, cell := range []absa.CellType{absa.LSTM, absa.GRU} {
		t.Run(cell.String(), func(t *testing.T) {
			p := testParams(t)
			p.Model.Cell = cell
			p.Model.Debug = true
			p.Epochs = 10
			m, err := metrics.NewTraining(prometheus.NewRegistry())
			require.Nil(t, err)

			res, err := Run(context.Background(), p, m)
			require.Nil(t, err)
			assert.True(t, finite(res.FirstLoss))
			assert.True(t, finite(res.LastLoss))
			assert.True(t, res.Accuracy >= 0 && res.Accuracy <= 1)
			require.Len(t, res.Predictions, 1)
			assert.Len(t, res.Predictions[0].Probabilities, 4)
			assert.InDelta(t, 10, testutil.ToFloat64(m.Steps), 1e-9)
			assert.NotEmpty(t, res.Params)
		})
	}
}

func TestRun_Synthetic(t *testing.T) {
	p := testParams(t)
	res, err := Run(context.Background(), p, nil)
	require.Nil(t, err)
	assert.Len(t, res.Predictions, 2)
	assert.True(t, finite(res.LastLoss))
}

func TestRun_HashEmbeddings(t *testing.T) {
	p := testParams(t)
	p.Provider = ProviderHash
	p.Words = []string{"the", "battery", "lasts", "long", "screen", "is", "dim"}
	res, err := Run(context.Background(), p, nil)
	require.Nil(t, err)
	assert.Equal(t, 7, p.Model.VocabSize)
	assert.Equal(t, p.Model.EmbeddingSize, res.Params["word_embedding"].Shape()[1])
	assert.Equal(t, 7, res.Params["word_embedding"].Shape()[0])
}

type fixedEncoder struct{ dim int }

func (f fixedEncoder) Encode(_ context.Context, text string) ([]float32, error) {
	return make([]float32, f.dim), nil
}

func TestRun_PretrainedWidth(t *testing.T) {
	p := testParams(t)
	p.Provider = ProviderCybertron
	calls := 0
	ef := func(p *Params, dim int) (embeddings.Encoder, error) {
		calls++
		return fixedEncoder{dim: 10}, nil
	}
	res, err := runWith(context.Background(), p, nil, ef)
	require.Nil(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 10, p.Model.EmbeddingSize)
	assert.Equal(t, 10, p.Model.AspectEmbeddingSize)
	assert.Equal(t, []int{p.Model.VocabSize, 10}, []int(res.Params["word_embedding"].Shape()))
}

func TestRun_WarnsOnEncoderWidth(t *testing.T) {
	hook := logtest.NewLocal(cmdapp.Log)
	defer hook.Reset()
	p := testParams(t)
	p.Provider = ProviderCybertron
	p.Epochs = 1
	ef := func(p *Params, dim int) (embeddings.Encoder, error) {
		return fixedEncoder{dim: p.Model.EmbeddingSize}, nil
	}
	_, err := runWith(context.Background(), p, nil, ef)
	require.Nil(t, err)

	var warned []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = append(warned, e.Message)
		}
	}
	require.Len(t, warned, 1)
	assert.Contains(t, warned[0], "model.aspectEmbeddingSize")
}

func TestNewEncoder(t *testing.T) {
	p := testParams(t)
	p.Provider = ProviderHash
	enc, err := newEncoder(p, 5)
	require.Nil(t, err)
	v, err := enc.Encode(context.Background(), "screen")
	require.Nil(t, err)
	assert.Len(t, v, 5)

	p.Provider = ProviderRandom
	_, err = newEncoder(p, 5)
	assert.NotNil(t, err)
	p.Provider = "file"
	_, err = newEncoder(p, 5)
	assert.NotNil(t, err)
}

func TestRun_FailsOnEncoder(t *testing.T) {
	p := testParams(t)
	p.Provider = ProviderHash
	ef := func(p *Params, dim int) (embeddings.Encoder, error) {
		return nil, errors.New("olia")
	}
	_, err := runWith(context.Background(), p, nil, ef)
	assert.NotNil(t, err)
}

func TestRun_Canceled(t *testing.T) {
	p := testParams(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, p, nil)
	assert.NotNil(t, err)
}

func TestClassName(t *testing.T) {
	assert.Equal(t, "negative", className(0))
	assert.Equal(t, "positive", className(2))
	assert.Equal(t, "?", className(3))
}
