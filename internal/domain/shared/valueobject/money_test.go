package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usd(s string) Money {
	m, err := NewMoney(decimal.RequireFromString(s), USD)
	if err != nil {
		panic(err)
	}
	return m
}

func TestNewMoney(t *testing.T) {
	m, err := NewMoney(decimal.NewFromInt(100), EUR)
	require.NoError(t, err)
	assert.True(t, m.Amount().Equal(decimal.NewFromInt(100)))
	assert.Equal(t, EUR, m.Currency())

	_, err = NewMoney(decimal.NewFromInt(100), "")
	assert.Error(t, err)
}

func TestMoney_Predicates(t *testing.T) {
	assert.True(t, Zero(USD).IsZero())
	assert.True(t, usd("0.01").IsPositive())
	assert.True(t, usd("-1").IsNegative())
	assert.False(t, usd("-1").IsPositive())
}

func TestMoney_Arithmetic(t *testing.T) {
	sum, err := usd("60.00").Add(usd("40.00"))
	require.NoError(t, err)
	assert.True(t, sum.Equals(usd("100.00")))

	diff, err := usd("100.00").Subtract(usd("25.50"))
	require.NoError(t, err)
	assert.True(t, diff.Equals(usd("74.50")))
}

func TestMoney_Comparisons(t *testing.T) {
	less, err := usd("10").LessThan(usd("20"))
	require.NoError(t, err)
	assert.True(t, less)

	greater, err := usd("30").GreaterThan(usd("20"))
	require.NoError(t, err)
	assert.True(t, greater)

	assert.True(t, usd("10").Equals(usd("10.00")))
	gbp, err := NewMoney(decimal.NewFromInt(10), GBP)
	require.NoError(t, err)
	assert.False(t, usd("10").Equals(gbp))
}

func TestMoney_CurrencyMismatch(t *testing.T) {
	eur, err := NewMoney(decimal.NewFromInt(10), EUR)
	require.NoError(t, err)

	_, err = usd("10").Add(eur)
	assert.Error(t, err)
	_, err = usd("10").Subtract(eur)
	assert.Error(t, err)
	_, err = usd("10").LessThan(eur)
	assert.Error(t, err)
	_, err = usd("10").GreaterThan(eur)
	assert.Error(t, err)
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "12.50 USD", usd("12.5").String())
}
