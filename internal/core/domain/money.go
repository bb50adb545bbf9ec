package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// moneyScale is the number of fractional digits every stored or compared
// amount is normalized to.
const moneyScale = 2

// Money is a fixed-precision monetary amount. All values are normalized to
// two fractional digits using round-half-up, so 100.004 and 100.00 compare
// equal after construction.
type Money struct {
	d decimal.Decimal
}

// NewMoney normalizes d to the money scale.
func NewMoney(d decimal.Decimal) Money {
	return Money{d: d.Round(moneyScale)}
}

// MoneyFromString parses a decimal string such as "100.00".
func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse money %q: %w", s, err)
	}
	return NewMoney(d), nil
}

// MustMoney parses a decimal string and panics on failure. Test helper.
func MustMoney(s string) Money {
	m, err := MoneyFromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

// ZeroMoney returns the normalized zero amount.
func ZeroMoney() Money {
	return Money{d: decimal.Zero.Round(moneyScale)}
}

// MinUnit returns the smallest positive amount the ledger accepts (0.01).
func MinUnit() Money {
	return Money{d: decimal.New(1, -moneyScale)}
}

// Add returns m + other, normalized.
func (m Money) Add(other Money) Money {
	return NewMoney(m.d.Add(other.d))
}

// Sub returns m - other, normalized.
func (m Money) Sub(other Money) Money {
	return NewMoney(m.d.Sub(other.d))
}

// Cmp returns -1, 0 or 1 comparing m with other.
func (m Money) Cmp(other Money) int {
	return m.d.Cmp(other.d)
}

// LessThan reports whether m < other.
func (m Money) LessThan(other Money) bool {
	return m.d.LessThan(other.d)
}

// IsNegative reports whether m < 0.
func (m Money) IsNegative() bool {
	return m.d.IsNegative()
}

// Equal reports whether m and other represent the same amount.
func (m Money) Equal(other Money) bool {
	return m.d.Equal(other.d)
}

// String renders the amount with exactly two fractional digits.
func (m Money) String() string {
	return m.d.StringFixed(moneyScale)
}

// Decimal exposes the underlying decimal value.
func (m Money) Decimal() decimal.Decimal {
	return m.d
}

// MarshalJSON encodes the amount as a decimal string ("70.00").
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either a decimal string or a bare JSON number.
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Fall back to a bare number.
		var d decimal.Decimal
		if err := json.Unmarshal(data, &d); err != nil {
			return fmt.Errorf("unmarshal money: %w", err)
		}
		*m = NewMoney(d)
		return nil
	}
	parsed, err := MoneyFromString(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Scan implements sql.Scanner so pgx can read NUMERIC columns directly.
func (m *Money) Scan(value any) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("scan money: %w", err)
	}
	*m = NewMoney(d)
	return nil
}

// Value implements driver.Valuer for NUMERIC parameters.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}
