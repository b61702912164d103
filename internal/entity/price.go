package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// CurrencySign is appended by Price.Display.
const CurrencySign = "₽"

// Price is a decimal amount. Display strings are produced at render time and
// never stored.
type Price struct {
	decimal.Decimal
}

// NewPrice wraps d.
func NewPrice(d decimal.Decimal) Price {
	return Price{Decimal: d}
}

// PriceFromInt returns a whole-unit price.
func PriceFromInt(v int64) Price {
	return Price{Decimal: decimal.NewFromInt(v)}
}

// ParsePrice accepts a number or a legacy display string such as "1 500 ₽"
// or "250,50 руб." and returns the decimal amount.
func ParsePrice(v any) (Price, error) {
	switch p := v.(type) {
	case Price:
		return p, nil
	case float64:
		return Price{Decimal: decimal.NewFromFloat(p)}, nil
	case int:
		return Price{Decimal: decimal.NewFromInt(int64(p))}, nil
	case int64:
		return Price{Decimal: decimal.NewFromInt(p)}, nil
	case json.Number:
		d, err := decimal.NewFromString(p.String())
		if err != nil {
			return Price{}, fmt.Errorf("invalid price %q: %w", p.String(), err)
		}
		return Price{Decimal: d}, nil
	case string:
		return parsePriceString(p)
	default:
		return Price{}, fmt.Errorf("unsupported price type %T", v)
	}
}

// currencyMarks may trail a display price. Longer marks come first.
var currencyMarks = []string{"руб.", "руб", "rub.", "rub", "р.", "р", CurrencySign}

// parsePriceString reads a plain decimal (exponents included) first and
// falls back to the display form: digits grouped by spaces, a comma or dot
// as the decimal separator and an optional currency mark at the end.
func parsePriceString(s string) (Price, error) {
	if d, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
		return Price{Decimal: d}, nil
	}

	amount := strings.TrimSpace(s)
	for _, mark := range currencyMarks {
		if n := len(amount) - len(mark); n >= 0 && strings.EqualFold(amount[n:], mark) {
			amount = strings.TrimSpace(amount[:n])
			break
		}
	}

	var b strings.Builder
	for i, r := range amount {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == ',':
			b.WriteRune('.')
		case unicode.IsSpace(r):
		case r == '-' && i == 0:
			b.WriteRune(r)
		default:
			return Price{}, fmt.Errorf("invalid price %q: unexpected %q", s, r)
		}
	}
	cleaned := strings.TrimRight(b.String(), ".")
	if cleaned == "" || cleaned == "-" {
		return Price{}, fmt.Errorf("no amount in price %q", s)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Price{}, fmt.Errorf("invalid price %q: %w", s, err)
	}
	return Price{Decimal: d}, nil
}

// Display renders the amount for a storefront, e.g. "1 500 ₽" or "99.50 ₽".
func (p Price) Display() string {
	neg := p.IsNegative()
	abs := p.Abs()

	intPart := abs.Truncate(0)
	frac := ""
	if !abs.Equal(intPart) {
		fixed := abs.StringFixed(2)
		frac = fixed[strings.IndexByte(fixed, '.'):]
	}

	digits := intPart.String()
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	b.WriteString(frac)
	b.WriteString(" ")
	b.WriteString(CurrencySign)
	return b.String()
}

// MarshalJSON writes the amount as a bare JSON number.
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.Decimal.String()), nil
}

// UnmarshalJSON accepts a JSON number or a display string.
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := parsePriceString(s)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	}
	return p.Decimal.UnmarshalJSON(data)
}
