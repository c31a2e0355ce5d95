package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceLineAmount_PrefersSubtotal(t *testing.T) {
	line := InvoiceLine{
		Quantity:  decimal.NewFromInt(5),
		UnitPrice: decimal.NewFromInt(100),
		Subtotal:  decimal.NewFromInt(495),
	}
	assert.True(t, line.Amount().Equal(decimal.NewFromInt(495)))
}

func TestInvoiceLineAmount_FallsBackToUnitTimesQuantity(t *testing.T) {
	line := InvoiceLine{
		Quantity:  decimal.NewFromInt(5),
		UnitPrice: decimal.NewFromInt(100),
	}
	assert.True(t, line.Amount().Equal(decimal.NewFromInt(500)))
}

func TestOpenLines_ExcludesFinallyInvoiced(t *testing.T) {
	po := PurchaseOrder{Lines: []POLine{
		{ItemID: "10"},
		{ItemID: "20", IsFinallyInvoiced: true},
		{ItemID: "30"},
	}}

	open := po.OpenLines()

	require.Len(t, open, 2)
	assert.Equal(t, "10", open[0].ItemID)
	assert.Equal(t, "30", open[1].ItemID)
}

func TestScoreBreakdownIsPartial(t *testing.T) {
	assert.True(t, ScoreBreakdown{QuantityState: QuantityPartial}.IsPartial())
	assert.True(t, ScoreBreakdown{AmountState: AmountPartial}.IsPartial())
	assert.False(t, ScoreBreakdown{QuantityState: QuantityFull, AmountState: AmountFull}.IsPartial())
}

func TestResultConstructorsAreExclusive(t *testing.T) {
	sel := Selected(Candidate{PurchaseOrderID: "4500000001"})
	assert.Equal(t, OutcomeSelected, sel.Outcome)
	assert.NotNil(t, sel.Selected)
	assert.Empty(t, sel.TopCandidates)
	assert.Empty(t, sel.Reason)

	amb := Ambiguous([]Candidate{{}, {}})
	assert.Equal(t, OutcomeAmbiguous, amb.Outcome)
	assert.Nil(t, amb.Selected)
	assert.Len(t, amb.TopCandidates, 2)

	nm := NoMatch("nothing fits")
	assert.Equal(t, OutcomeNoMatch, nm.Outcome)
	assert.Nil(t, nm.Selected)
	assert.Equal(t, "nothing fits", nm.Reason)
}

func TestWithReference(t *testing.T) {
	sel := Selected(Candidate{PurchaseOrderID: "4500000001"})

	withRef := sel.WithReference(ReferenceDocument{DocumentID: "5000000101", FiscalYear: "2024"})

	require.NotNil(t, withRef.Reference)
	assert.Equal(t, "5000000101", withRef.Reference.DocumentID)
	assert.Nil(t, sel.Reference)
}
