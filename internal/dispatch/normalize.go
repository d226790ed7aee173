package dispatch

import (
	"cmp"
	"slices"
	"strings"
)

var DefaultWakeWords = []string{"hey windows", "hey, windows"}

// genericWake is stripped when no configured wake word matched.
const genericWake = "hey "

type normalizer struct {
	wakeWords []string
}

func newNormalizer(words []string) normalizer {
	ws := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			ws = append(ws, w)
		}
	}

	// Longest first so "hey windows" is tried before "hey".
	slices.SortStableFunc(ws, func(a, b string) int { return cmp.Compare(len(b), len(a)) })

	return normalizer{wakeWords: ws}
}

// normalize lowercases text and strips a leading wake word. woke reports
// whether one of the configured wake words was present.
func (n normalizer) normalize(text string) (out string, woke bool) {
	s := strings.ToLower(strings.TrimSpace(text))

	for _, w := range n.wakeWords {
		if strings.HasPrefix(s, w) {
			return strings.TrimSpace(s[len(w):]), true
		}
	}

	if strings.HasPrefix(s, genericWake) {
		return strings.TrimSpace(s[len(genericWake):]), false
	}

	return s, false
}
