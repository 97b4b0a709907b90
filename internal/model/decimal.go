package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimal is an exact decimal number that remembers how it was printed.
// Comparison uses the parsed value; String always returns the printed text,
// so "16.50" stays "16.50" and "1,50,000" keeps its grouping.
type Decimal struct {
	raw   string
	value decimal.Decimal
}

// ParseDecimal parses a printed number. Digit-group commas are accepted.
func ParseDecimal(s string) (Decimal, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Decimal{}, fmt.Errorf("parse decimal: empty input")
	}

	value, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return Decimal{}, fmt.Errorf("parse decimal %q: %w", raw, err)
	}

	return Decimal{raw: raw, value: value}, nil
}

// MustDecimal is ParseDecimal for literals known to be valid. It panics otherwise.
func MustDecimal(s string) Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DecimalPtr returns a pointer to a parsed literal.
func DecimalPtr(s string) *Decimal {
	d := MustDecimal(s)
	return &d
}

// String returns the number exactly as printed
func (d Decimal) String() string {
	return d.raw
}

// Valid reports whether the decimal holds a parsed value
func (d Decimal) Valid() bool {
	return d.raw != ""
}

// Cmp compares numerically: -1 if d < o, 0 if equal, +1 if d > o
func (d Decimal) Cmp(o Decimal) int {
	return d.value.Cmp(o.value)
}

// MarshalJSON encodes the printed form as a JSON string so no precision is lost
func (d Decimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.raw)
}

// UnmarshalJSON accepts either a JSON string or a bare JSON number
func (d *Decimal) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		s = string(data)
	}

	parsed, err := ParseDecimal(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
