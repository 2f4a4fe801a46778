package bank

import (
	"math/rand/v2"
	"slices"
)

// Shuffle permutes items in place with Fisher–Yates. A nil rng uses the
// global generator.
func Shuffle[T any](items []T, rng *rand.Rand) {
	for i := len(items) - 1; i > 0; i-- {
		var j int
		if rng != nil {
			j = rng.IntN(i + 1)
		} else {
			j = rand.IntN(i + 1)
		}
		items[i], items[j] = items[j], items[i]
	}
}

// Pick returns min(n, len(questions)) questions drawn without replacement.
// The input slice is not modified.
func Pick(questions []Question, n int, rng *rand.Rand) []Question {
	out := slices.Clone(questions)
	Shuffle(out, rng)
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
