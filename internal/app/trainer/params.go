package trainer

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"atae/internal/pkg/absa"
)

// Embedding table providers
const (
	ProviderRandom    = "random"
	ProviderHash      = "hash"
	ProviderCybertron = "cybertron"
)

// Params keeps everything a training run needs
type Params struct {
	Model absa.Config

	Epochs   int
	Batches  int
	LogEvery int

	Provider  string
	ModelName string
	ModelsDir string
	Words     []string
	Aspects   []string
}

func initDefaults(c *viper.Viper) {
	d := absa.DefaultConfig()
	c.SetDefault("model.cell", d.Cell.String())
	c.SetDefault("model.hiddenSize", 16)
	c.SetDefault("model.vocabSize", 32)
	c.SetDefault("model.aspectVocabSize", 8)
	c.SetDefault("model.embeddingSize", 12)
	c.SetDefault("model.aspectEmbeddingSize", 6)
	c.SetDefault("model.inputLength", 6)
	c.SetDefault("model.batchSize", 8)
	c.SetDefault("model.l2Reg", d.L2Reg)
	c.SetDefault("model.learnRate", d.LearnRate)
	c.SetDefault("model.keepProb", d.KeepProb)
	c.SetDefault("model.seed", d.Seed)
	c.SetDefault("train.epochs", 50)
	c.SetDefault("train.batches", 4)
	c.SetDefault("train.logEvery", 10)
	c.SetDefault("embeddings.provider", ProviderRandom)
}

// readParams maps the viper config to Params
func readParams(c *viper.Viper) (*Params, error) {
	initDefaults(c)
	cell, err := absa.ParseCell(c.GetString("model.cell"))
	if err != nil {
		return nil, err
	}
	res := &Params{
		Model: absa.Config{
			Cell:                cell,
			HiddenSize:          c.GetInt("model.hiddenSize"),
			VocabSize:           c.GetInt("model.vocabSize"),
			AspectVocabSize:     c.GetInt("model.aspectVocabSize"),
			EmbeddingSize:       c.GetInt("model.embeddingSize"),
			AspectEmbeddingSize: c.GetInt("model.aspectEmbeddingSize"),
			InputLength:         c.GetInt("model.inputLength"),
			BatchSize:           c.GetInt("model.batchSize"),
			Bidirectional:       c.GetBool("model.bidirectional"),
			Attention:           c.GetBool("model.attention"),
			Debug:               c.GetBool("model.debug"),
			L2Reg:               c.GetFloat64("model.l2Reg"),
			LearnRate:           c.GetFloat64("model.learnRate"),
			KeepProb:            c.GetFloat64("model.keepProb"),
			TrainEmbeddings:     c.GetBool("model.trainEmbeddings"),
			Seed:                c.GetInt64("model.seed"),
		},
		Epochs:    c.GetInt("train.epochs"),
		Batches:   c.GetInt("train.batches"),
		LogEvery:  c.GetInt("train.logEvery"),
		Provider:  c.GetString("embeddings.provider"),
		ModelName: c.GetString("embeddings.model"),
		ModelsDir: c.GetString("embeddings.modelsDir"),
		Words:     c.GetStringSlice("embeddings.words"),
		Aspects:   c.GetStringSlice("embeddings.aspects"),
	}
	if res.Epochs < 0 || res.Batches <= 0 {
		return nil, errors.Errorf("wrong train params: epochs %d, batches %d", res.Epochs, res.Batches)
	}
	switch res.Provider {
	case ProviderRandom, ProviderHash, ProviderCybertron:
	default:
		return nil, errors.Errorf("unknown embeddings provider '%s'", res.Provider)
	}
	return res, nil
}

// applyDebug fixes the geometry to the debug batch
func applyDebug(p *Params) {
	if !p.Model.Debug {
		return
	}
	b := absa.DebugBatch()
	p.Model.BatchSize = b.Size()
	p.Model.InputLength = len(b.Tokens[0])
	p.Model.VocabSize = maxInt(p.Model.VocabSize, 8)
	p.Model.AspectVocabSize = maxInt(p.Model.AspectVocabSize, 6)
	p.Batches = 1
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
