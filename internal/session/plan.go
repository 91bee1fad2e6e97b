package session

import (
	"math/rand/v2"

	"github.com/banshee-data/steering.lab/internal/config"
	"github.com/banshee-data/steering.lab/internal/trial"
)

// crossFactors returns every valid combination of the configured factor
// levels. Combinations whose object is wider than the target cannot be
// laid out and are dropped.
func crossFactors(cfg *config.ExperimentConfig) (combos []trial.Factors, dropped int) {
	for _, st := range cfg.GetStraightness() {
		for _, obj := range cfg.GetObjectWidthsMm() {
			for _, tgt := range cfg.GetTargetWidthsMm() {
				for _, dist := range cfg.GetDistancesMm() {
					f := trial.Factors{
						ObjectWidthMm: obj,
						TargetWidthMm: tgt,
						Straightness:  st,
						DistanceMm:    dist,
					}
					if f.Validate() != nil {
						dropped++
						continue
					}
					combos = append(combos, f)
				}
			}
		}
	}
	return combos, dropped
}

// buildBlocks repeats combos reps times per block and shuffles each block
// independently.
func buildBlocks(combos []trial.Factors, blocks, reps int, rng *rand.Rand) [][]trial.Factors {
	out := make([][]trial.Factors, blocks)
	for b := range out {
		block := make([]trial.Factors, 0, len(combos)*reps)
		for r := 0; r < reps; r++ {
			block = append(block, combos...)
		}
		out[b] = shuffled(block, rng)
	}
	return out
}

// shuffled returns items reordered by a random permutation of their
// indices.
func shuffled[T any](items []T, rng *rand.Rand) []T {
	out := make([]T, len(items))
	for i, j := range rng.Perm(len(items)) {
		out[i] = items[j]
	}
	return out
}
