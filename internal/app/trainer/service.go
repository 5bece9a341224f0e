package trainer

import (
	"context"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"atae/internal/pkg/absa"
	"atae/internal/pkg/cmdapp"
	"atae/internal/pkg/embeddings"
	"atae/internal/pkg/metrics"
)

// Result summarizes a training run
type Result struct {
	FirstLoss float32
	LastLoss  float32
	Accuracy  float64
	Params    absa.Params
	// Predictions for every training batch, in order
	Predictions []*absa.Prediction
}

type encoderFactory func(p *Params, dim int) (embeddings.Encoder, error)

func newEncoder(p *Params, dim int) (embeddings.Encoder, error) {
	switch p.Provider {
	case ProviderHash:
		return embeddings.NewHashEncoder(dim), nil
	case ProviderCybertron:
		return embeddings.NewCybertronEncoder(p.ModelsDir, p.ModelName)
	}
	return nil, errors.Errorf("no encoder for provider '%s'", p.Provider)
}

// Run trains a model on the configured batches and evaluates it on the same batches
func Run(ctx context.Context, p *Params, m *metrics.Training) (*Result, error) {
	return runWith(ctx, p, m, newEncoder)
}

func runWith(ctx context.Context, p *Params, m *metrics.Training, ef encoderFactory) (*Result, error) {
	applyDebug(p)
	if p.Model.Bidirectional {
		cmdapp.Log.Warn("Bidirectional encoder is not implemented, using a single direction")
	}
	word, aspect, err := loadTables(ctx, p, ef)
	if err != nil {
		return nil, errors.Wrap(err, "can't load embeddings")
	}
	batches := []absa.Batch{absa.DebugBatch()}
	if !p.Model.Debug {
		batches = syntheticBatches(p.Model, p.Batches, p.Model.Seed)
	}
	cmdapp.Log.Infof("Model: cell=%s d=%d V=%d A=%d dw=%d da=%d N=%d batch=%d, %d batches",
		p.Model.Cell, p.Model.HiddenSize, p.Model.VocabSize, p.Model.AspectVocabSize,
		p.Model.EmbeddingSize, p.Model.AspectEmbeddingSize, p.Model.InputLength, p.Model.BatchSize, len(batches))

	model, err := absa.New(p.Model, absa.Training)
	if err != nil {
		return nil, errors.Wrap(err, "can't build training model")
	}
	if err := model.LoadEmbeddings(word, aspect); err != nil {
		return nil, err
	}
	tr, err := absa.NewTrainer(model)
	if err != nil {
		return nil, err
	}
	defer tr.Close()

	res := &Result{}
	if res.FirstLoss, err = meanLoss(tr, batches); err != nil {
		return nil, err
	}
	cmdapp.Log.Infof("Initial loss: %f", res.FirstLoss)
	for e := 0; e < p.Epochs; e++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sum := float32(0)
		for i, b := range batches {
			loss, err := tr.Step(b)
			if err != nil {
				return nil, errors.Wrapf(err, "epoch %d batch %d", e, i)
			}
			cmdapp.Log.Debugf("Epoch %d batch %d: loss %f", e, i, loss)
			if m != nil {
				m.Observe(loss)
			}
			sum += loss
		}
		if p.LogEvery > 0 && e%p.LogEvery == 0 {
			cmdapp.Log.Infof("Epoch %d: loss %f", e, sum/float32(len(batches)))
		}
	}
	if res.LastLoss, err = meanLoss(tr, batches); err != nil {
		return nil, err
	}
	cmdapp.Log.Infof("Final loss: %f", res.LastLoss)
	res.Params = model.Params()

	res.Predictions, res.Accuracy, err = evaluate(p.Model, res.Params, batches)
	if err != nil {
		return nil, err
	}
	cmdapp.Log.Infof("Accuracy: %.3f", res.Accuracy)
	return res, nil
}

func meanLoss(tr *absa.Trainer, batches []absa.Batch) (float32, error) {
	sum := float32(0)
	for i, b := range batches {
		l, err := tr.Loss(b)
		if err != nil {
			return 0, errors.Wrapf(err, "loss of batch %d", i)
		}
		sum += l
	}
	return sum / float32(len(batches)), nil
}

// evaluate copies params into an inference graph and predicts every batch
func evaluate(cfg absa.Config, params absa.Params, batches []absa.Batch) ([]*absa.Prediction, float64, error) {
	model, err := absa.New(cfg, absa.Inference)
	if err != nil {
		return nil, 0, errors.Wrap(err, "can't build inference model")
	}
	if err := model.SetParams(params); err != nil {
		return nil, 0, err
	}
	pr, err := absa.NewPredictor(model)
	if err != nil {
		return nil, 0, err
	}
	defer pr.Close()

	var res []*absa.Prediction
	var classes, labels []int
	for i, b := range batches {
		out, err := pr.Predict(b)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "predict batch %d", i)
		}
		res = append(res, out)
		classes = append(classes, out.Classes...)
		labels = append(labels, b.Labels...)
	}
	return res, absa.Accuracy(classes, labels), nil
}

// loadTables builds the embedding tables from the configured provider and
// adjusts the model sizes to them. Nil tables keep the random initialization.
func loadTables(ctx context.Context, p *Params, ef encoderFactory) (tensor.Tensor, tensor.Tensor, error) {
	if p.Provider == ProviderRandom || p.Provider == "" {
		return nil, nil, nil
	}
	words := p.Words
	if len(words) == 0 {
		words = embeddings.Placeholders("word_", p.Model.VocabSize)
	}
	aspects := p.Aspects
	if len(aspects) == 0 {
		aspects = embeddings.Placeholders("aspect_", p.Model.AspectVocabSize)
	}
	wordEnc, err := ef(p, p.Model.EmbeddingSize)
	if err != nil {
		return nil, nil, err
	}
	word, err := embeddings.Table(ctx, wordEnc, words)
	if err != nil {
		return nil, nil, errors.Wrap(err, "word table")
	}
	// a pretrained encoder has one width for both tables, load it once
	aspectEnc := wordEnc
	if p.Provider != ProviderCybertron {
		if aspectEnc, err = ef(p, p.Model.AspectEmbeddingSize); err != nil {
			return nil, nil, err
		}
	}
	aspect, err := embeddings.Table(ctx, aspectEnc, aspects)
	if err != nil {
		return nil, nil, errors.Wrap(err, "aspect table")
	}
	warnResized("model.embeddingSize", p.Model.EmbeddingSize, word.Shape()[1])
	warnResized("model.aspectEmbeddingSize", p.Model.AspectEmbeddingSize, aspect.Shape()[1])
	p.Model.VocabSize, p.Model.EmbeddingSize = word.Shape()[0], word.Shape()[1]
	p.Model.AspectVocabSize, p.Model.AspectEmbeddingSize = aspect.Shape()[0], aspect.Shape()[1]
	cmdapp.Log.Infof("Loaded embeddings: words %v, aspects %v", word.Shape(), aspect.Shape())
	return word, aspect, nil
}

func warnResized(key string, configured, actual int) {
	if configured != actual {
		cmdapp.Log.Warnf("%s=%d overridden by the encoder width %d", key, configured, actual)
	}
}
