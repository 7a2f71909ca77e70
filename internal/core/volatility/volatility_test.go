package volatility_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ajitpratap0/arbcore/internal/core/volatility"
)

func TestConstantPriceHistoryHasZeroVolatility(t *testing.T) {
	tr := volatility.New(20)
	var score decimal.Decimal
	for i := 0; i < 10; i++ {
		score = tr.Observe(decimal.NewFromInt(100))
	}
	assert.True(t, score.IsZero())
}

func TestModeSwitchScenarioScoreAboveExplosiveThreshold(t *testing.T) {
	// Scenario 6: [100.0, 100.1, 99.5, 101.5, 97.0] should cross the
	// Explosive threshold of vol > 8.
	tr := volatility.New(20)
	prices := []float64{100.0, 100.1, 99.5, 101.5, 97.0}
	var score decimal.Decimal
	for _, p := range prices {
		score = tr.Observe(decimal.NewFromFloat(p))
	}
	assert.True(t, score.GreaterThan(decimal.NewFromInt(8)), "expected volatility score above 8, got %s", score)
}

func TestBufferBounded(t *testing.T) {
	tr := volatility.New(3)
	for i := 0; i < 10; i++ {
		tr.Observe(decimal.NewFromInt(int64(100 + i)))
	}
	// No direct accessor for length; verify indirectly the score still
	// computes without panicking and stays finite/non-negative.
	score := tr.Score()
	assert.True(t, score.GreaterThanOrEqual(decimal.Zero))
}
