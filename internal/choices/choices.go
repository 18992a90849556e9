// Package choices builds multiple-choice option sets. Every set contains the
// correct answer exactly once with no duplicate entries.
package choices

import (
	"math/rand"
	"time"
)

// DefaultCount is the standard number of options per question
const DefaultCount = 4

// Build returns a shuffled option set of up to count entries: the correct
// answer plus count-1 unique distractors drawn from pool. If the pool cannot
// supply enough unique distractors the result is shorter than count, but the
// correct answer is always present exactly once.
func Build(correct string, pool []string, count int) []string {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	return build(rnd, correct, pool, count)
}

func build(rnd *rand.Rand, correct string, pool []string, count int) []string {
	// Deduplicate the pool and drop empties and the correct answer itself
	seen := make(map[string]bool, len(pool))
	uniq := make([]string, 0, len(pool))
	for _, v := range pool {
		if v == "" || v == correct || seen[v] {
			continue
		}
		seen[v] = true
		uniq = append(uniq, v)
	}

	rnd.Shuffle(len(uniq), func(i, j int) {
		uniq[i], uniq[j] = uniq[j], uniq[i]
	})

	need := count - 1
	if need < 0 {
		need = 0
	}
	if need > len(uniq) {
		need = len(uniq)
	}

	options := make([]string, 0, need+1)
	options = append(options, correct)
	options = append(options, uniq[:need]...)
	if len(options) > count && count > 0 {
		options = options[:count]
	}

	// Final shuffle so the correct answer is not positionally biased
	rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	return options
}

// Valid reports whether options is a well-formed set for the given answer:
// the answer occurs exactly once and no entry is duplicated
func Valid(options []string, answer string) bool {
	if len(options) == 0 {
		return false
	}
	seen := make(map[string]bool, len(options))
	answerCount := 0
	for _, o := range options {
		if seen[o] {
			return false
		}
		seen[o] = true
		if o == answer {
			answerCount++
		}
	}
	return answerCount == 1
}

// Ensure validates options and rebuilds the set from the pool when it is
// malformed, so a broken set never reaches the presentation layer
func Ensure(options []string, answer string, pool []string, count int) []string {
	if Valid(options, answer) {
		return options
	}
	return Build(answer, pool, count)
}
