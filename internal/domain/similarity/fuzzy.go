package similarity

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Blend weights for the deterministic score: edit-distance ratio vs. word
// overlap.
const (
	ratioWeight   = 0.6
	overlapWeight = 0.4
)

// Fuzzy is the deterministic Comparer. It blends a normalized levenshtein
// ratio with a word-overlap ratio and never returns an error.
type Fuzzy struct{}

// NewFuzzy returns the deterministic comparer.
func NewFuzzy() *Fuzzy {
	return &Fuzzy{}
}

// Compare implements Comparer.
func (f *Fuzzy) Compare(_ context.Context, descA, descB, codeA, codeB string) (Result, error) {
	if codeA != "" && codeB != "" && codeA == codeB {
		return Result{Score: 1.0, Reason: "material code match"}, nil
	}

	a := normalize(descA)
	b := normalize(descB)
	if a == "" || b == "" {
		return Result{Score: 0, Reason: "empty description"}, nil
	}

	score := ratioWeight*editRatio(a, b) + overlapWeight*wordOverlap(a, b)
	return Result{
		Score:  score,
		Reason: fmt.Sprintf("fuzzy match %.0f%%", score*100),
	}, nil
}

// normalize lowercases and collapses everything that is not a letter or
// digit into single spaces, so punctuation and spacing differences do not
// count against the match.
func normalize(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
		} else if !lastSpace {
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// editRatio converts the levenshtein distance into a [0,1] similarity.
func editRatio(a, b string) float64 {
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// wordOverlap is the share of words the longer description has in common
// with the shorter one.
func wordOverlap(a, b string) float64 {
	wordsA := strings.Fields(a)
	wordsB := strings.Fields(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	set := make(map[string]bool, len(wordsA))
	for _, w := range wordsA {
		set[w] = true
	}

	shared := 0
	seen := make(map[string]bool, len(wordsB))
	for _, w := range wordsB {
		if set[w] && !seen[w] {
			shared++
			seen[w] = true
		}
	}

	denom := len(wordsA)
	if len(wordsB) > denom {
		denom = len(wordsB)
	}
	return float64(shared) / float64(denom)
}
