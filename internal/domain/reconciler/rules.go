package reconciler

// Rules holds every business threshold the engine applies. It is built
// once (defaults plus config overrides) and injected at construction;
// nothing in this package mutates it afterwards.
type Rules struct {
	// MinScore is the minimum total score (0-100) a candidate needs.
	MinScore float64
	// AmbiguityDelta is the exclusive window below which the top two
	// candidates are indistinguishable and require human arbitration.
	AmbiguityDelta float64
	// PriceTolerance is the maximum relative unit-price difference.
	PriceTolerance float64
	// AmountOverTolerance is the relative excess of the invoice amount
	// over the PO amount still credited (rounding/tax slack).
	AmountOverTolerance float64
	// AmountOverCredit is the share of the amount weight granted when the
	// excess is within AmountOverTolerance.
	AmountOverCredit float64
	// QuantityWeight, AmountWeight and DescriptionWeight sum to 1.
	QuantityWeight    float64
	AmountWeight      float64
	DescriptionWeight float64
	// RejectedScore is the sentinel assigned to disqualified pairs.
	RejectedScore float64
}

// DefaultRules returns the production thresholds.
func DefaultRules() Rules {
	return Rules{
		MinScore:            70,
		AmbiguityDelta:      5,
		PriceTolerance:      0.02,
		AmountOverTolerance: 0.15,
		AmountOverCredit:    0.70,
		QuantityWeight:      0.30,
		AmountWeight:        0.40,
		DescriptionWeight:   0.30,
		RejectedScore:       10,
	}
}
