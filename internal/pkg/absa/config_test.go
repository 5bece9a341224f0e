package absa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testConfig(cell CellType) Config {
	cfg := DefaultConfig()
	cfg.Cell = cell
	cfg.HiddenSize = 5
	cfg.VocabSize = 8
	cfg.AspectVocabSize = 6
	cfg.EmbeddingSize = 4
	cfg.AspectEmbeddingSize = 3
	cfg.InputLength = 3
	cfg.BatchSize = 4
	return cfg
}

func TestValidate(t *testing.T) {
	assert.Nil(t, testConfig(LSTM).Validate())
	assert.Nil(t, testConfig(GRU).Validate())
}

func TestValidate_Fails(t *testing.T) {
	for name, change := range map[string]func(*Config){
		"hidden":    func(c *Config) { c.HiddenSize = 0 },
		"vocab":     func(c *Config) { c.VocabSize = -1 },
		"aspects":   func(c *Config) { c.AspectVocabSize = 0 },
		"emb":       func(c *Config) { c.EmbeddingSize = 0 },
		"aspectEmb": func(c *Config) { c.AspectEmbeddingSize = 0 },
		"length":    func(c *Config) { c.InputLength = 0 },
		"batch":     func(c *Config) { c.BatchSize = 0 },
		"cell":      func(c *Config) { c.Cell = CellType(7) },
		"keepProb":  func(c *Config) { c.KeepProb = 0 },
		"keepProb1": func(c *Config) { c.KeepProb = 1.5 },
		"l2":        func(c *Config) { c.L2Reg = -0.1 },
		"lr":        func(c *Config) { c.LearnRate = 0 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(LSTM)
			change(&cfg)
			assert.NotNil(t, cfg.Validate())
		})
	}
}

func TestParseCell(t *testing.T) {
	c, err := ParseCell("GRU")
	assert.Nil(t, err)
	assert.Equal(t, GRU, c)
	c, err = ParseCell(" lstm ")
	assert.Nil(t, err)
	assert.Equal(t, LSTM, c)
	c, err = ParseCell("")
	assert.Nil(t, err)
	assert.Equal(t, LSTM, c)
	_, err = ParseCell("rnn")
	assert.NotNil(t, err)
}

func TestCellString(t *testing.T) {
	assert.Equal(t, "lstm", LSTM.String())
	assert.Equal(t, "gru", GRU.String())
	assert.Equal(t, "unknown", CellType(5).String())
}
