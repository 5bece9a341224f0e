package embeddings

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"math/rand"
)

// HashEncoder produces a deterministic pseudo-random vector per text.
// The same text always maps to the same vector, values are in [-1, 1).
type HashEncoder struct {
	Dim int
}

// NewHashEncoder returns an encoder of vectors of width dim.
func NewHashEncoder(dim int) *HashEncoder {
	return &HashEncoder{Dim: dim}
}

// Encode seeds a generator with the md5 of text and draws Dim values.
func (m *HashEncoder) Encode(_ context.Context, text string) ([]float32, error) {
	hash := md5.Sum([]byte(text))
	seed := int64(binary.BigEndian.Uint64(hash[:8]))
	r := rand.New(rand.NewSource(seed))

	res := make([]float32, m.Dim)
	for d := range res {
		res[d] = r.Float32()*2 - 1
	}
	return res, nil
}
