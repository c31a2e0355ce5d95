package reconciler

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/invopost/reconciler/internal/domain/model"
)

func TestScorePair_PriceGateRejects(t *testing.T) {
	engine := newTestEngine()
	line := invLine("Reactivo quimico X", 5, 150)
	po := poLine("10", "Reactivo quimico X", 10, 100)

	b := engine.scorePair(context.Background(), line, po)

	assert.False(t, b.PriceGatePassed)
	assert.InDelta(t, 0.5, b.PriceDiff, 0.001)
	assert.Equal(t, engine.rules.RejectedScore, b.Total)
	assert.Zero(t, b.QuantityScore)
	assert.Zero(t, b.DescriptionScore)
}

func TestScorePair_PriceWithinTolerancePasses(t *testing.T) {
	engine := newTestEngine()
	line := model.InvoiceLine{
		Description: "Reactivo quimico X",
		Quantity:    decimal.NewFromInt(10),
		UnitPrice:   decimal.NewFromInt(101),
	}
	po := poLine("10", "Reactivo quimico X", 10, 100)

	b := engine.scorePair(context.Background(), line, po)

	assert.True(t, b.PriceGatePassed)
	assert.InDelta(t, 0.01, b.PriceDiff, 0.0001)
}

func TestScorePair_NonPositiveOrderPriceRejects(t *testing.T) {
	engine := newTestEngine()
	line := invLine("Reactivo quimico X", 5, 100)
	po := poLine("10", "Reactivo quimico X", 10, 0)

	b := engine.scorePair(context.Background(), line, po)

	assert.False(t, b.PriceGatePassed)
	assert.Equal(t, engine.rules.RejectedScore, b.Total)
}

func TestScorePair_QuantityExcessRejects(t *testing.T) {
	engine := newTestEngine()
	line := invLine("Reactivo quimico X", 20, 100)
	po := poLine("10", "Reactivo quimico X", 10, 100)

	b := engine.scorePair(context.Background(), line, po)

	assert.True(t, b.PriceGatePassed)
	assert.Equal(t, model.QuantityExcess, b.QuantityState)
	assert.Equal(t, engine.rules.RejectedScore, b.Total)
}

func TestScorePair_FullMatchScoresHundred(t *testing.T) {
	engine := newTestEngine()
	line := invLine("Reactivo quimico X", 10, 100)
	po := poLine("10", "Reactivo quimico X", 10, 100)

	b := engine.scorePair(context.Background(), line, po)

	assert.Equal(t, model.QuantityFull, b.QuantityState)
	assert.Equal(t, model.AmountFull, b.AmountState)
	assert.InDelta(t, 100, b.Total, 0.01)
	assert.False(t, b.IsPartial())
}

func TestScorePair_PartialQuantityScalesProportionally(t *testing.T) {
	engine := newTestEngine()
	line := invLine("Reactivo quimico X", 5, 100)
	po := poLine("10", "Reactivo quimico X", 10, 100)

	b := engine.scorePair(context.Background(), line, po)

	assert.Equal(t, model.QuantityPartial, b.QuantityState)
	assert.InDelta(t, 15, b.QuantityScore, 0.01)
	assert.Equal(t, model.AmountPartial, b.AmountState)
	assert.InDelta(t, 40, b.AmountScore, 0.01)
	assert.InDelta(t, 85, b.Total, 0.01)
	assert.True(t, b.IsPartial())
}

func TestScorePair_AmountOverageWithinToleranceGetsPartialCredit(t *testing.T) {
	engine := newTestEngine()
	line := model.InvoiceLine{
		Description: "Reactivo quimico X",
		Quantity:    decimal.NewFromInt(10),
		UnitPrice:   decimal.NewFromInt(101),
		Subtotal:    decimal.NewFromInt(1010),
	}
	po := poLine("10", "Reactivo quimico X", 10, 100)

	b := engine.scorePair(context.Background(), line, po)

	assert.Equal(t, model.AmountOverTolerated, b.AmountState)
	assert.InDelta(t, 28, b.AmountScore, 0.01)
	assert.InDelta(t, 88, b.Total, 0.01)
}

func TestScorePair_AmountOverageBeyondToleranceScoresZero(t *testing.T) {
	engine := newTestEngine()
	line := model.InvoiceLine{
		Description: "Reactivo quimico X",
		Quantity:    decimal.NewFromInt(10),
		UnitPrice:   decimal.NewFromInt(100),
		Subtotal:    decimal.NewFromInt(1200),
	}
	po := poLine("10", "Reactivo quimico X", 10, 100)

	b := engine.scorePair(context.Background(), line, po)

	assert.Equal(t, model.AmountExcess, b.AmountState)
	assert.Zero(t, b.AmountScore)
	assert.InDelta(t, 60, b.Total, 0.01)
}

func TestScorePair_DissimilarDescriptionLowersScore(t *testing.T) {
	engine := newTestEngine()
	same := engine.scorePair(context.Background(),
		invLine("Reactivo quimico X", 10, 100),
		poLine("10", "Reactivo quimico X", 10, 100))
	different := engine.scorePair(context.Background(),
		invLine("Guantes de nitrilo", 10, 100),
		poLine("10", "Reactivo quimico X", 10, 100))

	assert.Greater(t, same.DescriptionScore, different.DescriptionScore)
	assert.Greater(t, same.Total, different.Total)
}
