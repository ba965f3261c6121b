// internal/pricing/pricing.go
package pricing

import (
	"errors"
	"strconv"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrInvalidPrice    = errors.New("unit price must be positive")
)

var hundred = decimal.NewFromInt(100)

// Money is an amount in minor currency units (cents).
type Money int64

// Item is anything with a unit sale price.
type Item interface {
	UnitPrice() decimal.Decimal
}

func FromDecimal(d decimal.Decimal) Money {
	return Money(d.Mul(hundred).Round(0).IntPart())
}

func (m Money) Cents() int64 {
	return int64(m)
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// String renders the amount with exactly two decimals, e.g. "206.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON writes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	*m = FromDecimal(d)
	return nil
}

// ComputeTotal returns unit price x quantity. It is the only place a charge
// amount is derived; callers freeze the result on the order.
func ComputeTotal(item Item, quantity int) (Money, error) {
	if quantity < 1 {
		return 0, ErrInvalidQuantity
	}
	unit := item.UnitPrice()
	if !unit.IsPositive() {
		return 0, ErrInvalidPrice
	}
	return FromDecimal(unit) * Money(quantity), nil
}

// MarginPercent is (resale - marketplace) / marketplace x 100, rounded to 2 decimals.
func MarginPercent(marketplace, resale decimal.Decimal) decimal.Decimal {
	if !marketplace.IsPositive() {
		return decimal.Zero
	}
	return resale.Sub(marketplace).Div(marketplace).Mul(hundred).Round(2)
}
