package tax

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFlatRateEngine(t *testing.T) {
	t.Run("accepts a fractional rate", func(t *testing.T) {
		engine, err := NewFlatRateEngine("US-CA", decimal.NewFromFloat(0.0725))
		require.NoError(t, err)
		assert.NotNil(t, engine)
	})

	t.Run("defaults the jurisdiction", func(t *testing.T) {
		engine, err := NewFlatRateEngine("", decimal.NewFromFloat(0.08))
		require.NoError(t, err)

		quote, err := engine.Quote(context.Background(), uuid.New(), decimal.NewFromInt(100), "USD")
		require.NoError(t, err)
		require.Len(t, quote.Lines, 1)
		assert.Equal(t, "DEFAULT", quote.Lines[0].Jurisdiction)
	})

	t.Run("rejects a negative rate", func(t *testing.T) {
		_, err := NewFlatRateEngine("US-CA", decimal.NewFromFloat(-0.01))
		assert.Error(t, err)
	})

	t.Run("rejects a rate of one or more", func(t *testing.T) {
		_, err := NewFlatRateEngine("US-CA", decimal.NewFromInt(1))
		assert.Error(t, err)
	})
}

func TestFlatRateEngine_Quote(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("computes tax rounded to cents", func(t *testing.T) {
		engine, err := NewFlatRateEngine("US-CA", decimal.NewFromFloat(0.0725))
		require.NoError(t, err)

		quote, err := engine.Quote(ctx, tenantID, decimal.NewFromFloat(99.99), "USD")
		require.NoError(t, err)

		// 99.99 * 0.0725 = 7.249275, rounds to 7.25
		assert.True(t, quote.Total.Equal(decimal.NewFromFloat(7.25)), "got %s", quote.Total)
		require.Len(t, quote.Lines, 1)
		assert.True(t, quote.Lines[0].Amount.Equal(quote.Total))
		assert.True(t, quote.Lines[0].Rate.Equal(decimal.NewFromFloat(0.0725)))
	})

	t.Run("zero rate yields an empty quote", func(t *testing.T) {
		engine, err := NewFlatRateEngine("US-OR", decimal.Zero)
		require.NoError(t, err)

		quote, err := engine.Quote(ctx, tenantID, decimal.NewFromInt(500), "USD")
		require.NoError(t, err)
		assert.True(t, quote.Total.IsZero())
		assert.Empty(t, quote.Lines)
	})

	t.Run("zero net yields an empty quote", func(t *testing.T) {
		engine, err := NewFlatRateEngine("US-CA", decimal.NewFromFloat(0.08))
		require.NoError(t, err)

		quote, err := engine.Quote(ctx, tenantID, decimal.Zero, "USD")
		require.NoError(t, err)
		assert.True(t, quote.Total.IsZero())
		assert.Empty(t, quote.Lines)
	})

	t.Run("rejects a negative net amount", func(t *testing.T) {
		engine, err := NewFlatRateEngine("US-CA", decimal.NewFromFloat(0.08))
		require.NoError(t, err)

		_, err = engine.Quote(ctx, tenantID, decimal.NewFromInt(-10), "USD")
		assert.Error(t, err)
	})
}
