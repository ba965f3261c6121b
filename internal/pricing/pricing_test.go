package pricing

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unitPrice string

func (u unitPrice) UnitPrice() decimal.Decimal {
	return decimal.RequireFromString(string(u))
}

func TestComputeTotal(t *testing.T) {
	total, err := ComputeTotal(unitPrice("103.00"), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(20600), total.Cents())
	assert.Equal(t, "206.00", total.String())

	total, err = ComputeTotal(unitPrice("99.99"), 3)
	require.NoError(t, err)
	assert.Equal(t, "299.97", total.String())
}

func TestComputeTotalRejectsBadInput(t *testing.T) {
	_, err := ComputeTotal(unitPrice("10"), 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = ComputeTotal(unitPrice("0"), 1)
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestMarginPercent(t *testing.T) {
	cases := []struct {
		marketplace, resale, want string
	}{
		{"100.00", "103.00", "3"},
		{"329", "339", "3.04"},
		{"109.99", "113", "2.74"},
		{"149.99", "155", "3.34"},
		{"50", "50", "0"},
	}
	for _, tc := range cases {
		got := MarginPercent(decimal.RequireFromString(tc.marketplace), decimal.RequireFromString(tc.resale))
		assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "%s -> %s: got %s", tc.marketplace, tc.resale, got)
	}

	assert.True(t, MarginPercent(decimal.Zero, decimal.NewFromInt(5)).IsZero())
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Total Money `json:"total"`
	}{Total: 20600})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total": 206.00}`, string(b))

	var m Money
	require.NoError(t, json.Unmarshal([]byte(`"12.34"`), &m))
	assert.Equal(t, Money(1234), m)
	require.NoError(t, json.Unmarshal([]byte(`7.5`), &m))
	assert.Equal(t, Money(750), m)
}
