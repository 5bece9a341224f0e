package absa

import (
	"strings"

	"github.com/pkg/errors"
)

// NumClasses is the size of the sentiment label set: negative, neutral, positive.
const NumClasses = 3

// CellType selects the recurrent cell of the encoder.
type CellType int

const (
	// LSTM is the basic long short-term memory cell.
	LSTM CellType = iota
	// GRU is the gated recurrent unit.
	GRU
)

func (c CellType) String() string {
	switch c {
	case LSTM:
		return "lstm"
	case GRU:
		return "gru"
	}
	return "unknown"
}

// ParseCell maps a config value to a CellType.
func ParseCell(s string) (CellType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lstm":
		return LSTM, nil
	case "gru":
		return GRU, nil
	}
	return LSTM, errors.Errorf("unknown cell type '%s'", s)
}

// Config holds the model dimensions and training hyperparameters.
// It is a plain value: nothing is allocated until New is called.
type Config struct {
	Cell                CellType
	HiddenSize          int // d
	VocabSize           int
	AspectVocabSize     int
	EmbeddingSize       int // dw
	AspectEmbeddingSize int // da
	InputLength         int // N
	BatchSize           int

	// Bidirectional is accepted but builds the same single-direction encoder.
	Bidirectional bool
	// Attention is an unused toggle: attention is always part of the model.
	Attention bool
	// Debug asks the caller to feed the fixed debug batch.
	Debug bool

	L2Reg           float64
	LearnRate       float64
	KeepProb        float64
	TrainEmbeddings bool
	Seed            int64
}

// DefaultConfig returns the default hyperparameters with the
// dimensions left for the caller to fill.
func DefaultConfig() Config {
	return Config{
		Cell:      LSTM,
		L2Reg:     0.001,
		LearnRate: 0.01,
		KeepProb:  1.0,
		Seed:      1,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	dims := []struct {
		name string
		v    int
	}{
		{"hiddenSize", c.HiddenSize},
		{"vocabSize", c.VocabSize},
		{"aspectVocabSize", c.AspectVocabSize},
		{"embeddingSize", c.EmbeddingSize},
		{"aspectEmbeddingSize", c.AspectEmbeddingSize},
		{"inputLength", c.InputLength},
		{"batchSize", c.BatchSize},
	}
	for _, d := range dims {
		if d.v <= 0 {
			return errors.Errorf("%s must be > 0, got %d", d.name, d.v)
		}
	}
	if c.Cell != LSTM && c.Cell != GRU {
		return errors.Errorf("unknown cell type %d", c.Cell)
	}
	if c.KeepProb <= 0 || c.KeepProb > 1 {
		return errors.Errorf("keepProb must be in (0, 1], got %v", c.KeepProb)
	}
	if c.L2Reg < 0 {
		return errors.Errorf("l2Reg must be >= 0, got %v", c.L2Reg)
	}
	if c.LearnRate <= 0 {
		return errors.Errorf("learnRate must be > 0, got %v", c.LearnRate)
	}
	return nil
}
