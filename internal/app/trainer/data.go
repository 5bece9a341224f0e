package trainer

import (
	"math/rand"

	"atae/internal/pkg/absa"
)

// syntheticBatches draws count batches whose label is a function of the
// aspect and the first token, so a working model can fit them.
func syntheticBatches(cfg absa.Config, count int, seed int64) []absa.Batch {
	r := rand.New(rand.NewSource(seed))
	res := make([]absa.Batch, count)
	for i := range res {
		b := absa.Batch{}
		for e := 0; e < cfg.BatchSize; e++ {
			l := 1 + r.Intn(cfg.InputLength)
			row := make([]int, cfg.InputLength)
			for t := 0; t < l; t++ {
				row[t] = r.Intn(cfg.VocabSize)
			}
			aspect := r.Intn(cfg.AspectVocabSize)
			b.Tokens = append(b.Tokens, row)
			b.Aspects = append(b.Aspects, aspect)
			b.Lengths = append(b.Lengths, l)
			b.Labels = append(b.Labels, (aspect+row[0])%absa.NumClasses)
		}
		res[i] = b
	}
	return res
}
