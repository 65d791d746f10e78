package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Price is a storefront price as sent by the browser. The product page posts
// prices as strings ("5.00") but older carts carry numbers; empty, null and
// unparseable values decode as an absent price instead of failing the cart.
type Price struct {
	Amount decimal.Decimal
	Valid  bool
}

// amountPattern admits plain decimals only. Exponent notation is refused:
// "1e50000000" would expand to fifty million digits when formatted.
var amountPattern = regexp.MustCompile(`^[+-]?(\d{1,12}(\.\d{0,8})?|\.\d{1,8})$`)

var ErrInvalidAmount = errors.New("amount must be a plain decimal with at most 12 integer and 8 fractional digits")

// ParseAmount parses a money amount after trimming surrounding whitespace.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if !amountPattern.MatchString(s) {
		return decimal.Zero, ErrInvalidAmount
	}
	return decimal.NewFromString(s)
}

// NewPrice parses s, returning an absent Price when s is not an amount.
func NewPrice(s string) Price {
	d, err := ParseAmount(s)
	if err != nil {
		return Price{}
	}
	return Price{Amount: d, Valid: true}
}

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = Price{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = NewPrice(s)
		return nil
	}
	if data[0] == 't' || data[0] == 'f' {
		*p = Price{}
		return nil
	}
	*p = NewPrice(string(data))
	return nil
}

func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.Amount.StringFixed(2))
}

// IsZero reports whether the price is absent or equal to zero.
func (p Price) IsZero() bool {
	return !p.Valid || p.Amount.IsZero()
}

// Fixed renders the price with two decimals, "0.00" when absent.
func (p Price) Fixed() string {
	if !p.Valid {
		return decimal.Zero.StringFixed(2)
	}
	return p.Amount.StringFixed(2)
}

// OrZero returns the amount, zero when absent.
func (p Price) OrZero() decimal.Decimal {
	if !p.Valid {
		return decimal.Zero
	}
	return p.Amount
}
