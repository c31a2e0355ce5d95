// Package similarity compares product descriptions between an invoice line
// and a purchase order line.
//
// Two implementations exist: a deterministic fuzzy comparer and an
// OpenAI-backed semantic comparer that recognizes synonyms (trade name vs.
// generic name). The semantic comparer always degrades to the deterministic
// one on error so scoring never blocks on an external service.
package similarity

import "context"

// Result is a normalized comparison outcome.
type Result struct {
	// Score is in [0, 1]; 1 means the descriptions refer to the same item.
	Score float64
	// Reason explains how the score was produced, for diagnostics.
	Reason string
}

// Comparer judges whether two product descriptions denote the same item.
// codeA/codeB are the optional product/material codes from each side; an
// exact code match short-circuits to score 1.0 in every implementation.
type Comparer interface {
	Compare(ctx context.Context, descA, descB, codeA, codeB string) (Result, error)
}
