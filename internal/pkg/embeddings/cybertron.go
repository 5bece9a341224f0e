package embeddings

import (
	"context"

	"github.com/nlpodyssey/cybertron/pkg/tasks"
	"github.com/nlpodyssey/cybertron/pkg/tasks/textencoding"
	"github.com/pkg/errors"
)

// DefaultModel is a small sentence-transformers model.
const DefaultModel = "sentence-transformers/all-MiniLM-L6-v2"

// defaultPooling lets the model apply its own pooling strategy.
const defaultPooling = 0

// CybertronEncoder wraps a cybertron text encoding model.
// Each vocabulary entry is encoded as a whole and pooled to one vector.
type CybertronEncoder struct {
	Interface textencoding.Interface
}

// NewCybertronEncoder loads (downloading on first use) modelName into modelsDir.
func NewCybertronEncoder(modelsDir, modelName string) (*CybertronEncoder, error) {
	if modelName == "" {
		modelName = DefaultModel
	}
	if modelsDir == "" {
		modelsDir = "./models"
	}
	m, err := tasks.Load[textencoding.Interface](&tasks.Config{
		ModelsDir: modelsDir,
		ModelName: modelName,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "can't load model %s", modelName)
	}
	return &CybertronEncoder{Interface: m}, nil
}

// Encode returns the pooled embedding of text.
func (m *CybertronEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	result, err := m.Interface.Encode(ctx, text, defaultPooling)
	if err != nil {
		return nil, errors.Wrapf(err, "can't encode '%s'", text)
	}
	data := result.Vector.Data().F64()
	res := make([]float32, len(data))
	for i, v := range data {
		res[i] = float32(v)
	}
	return res, nil
}
