package calc

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

const (
	// Precision is the number of significant decimal digits kept by every
	// arithmetic result.
	Precision = 16
	// Width is the widest formatted value, in characters.
	Width = 17
)

var decimalContext = newContext(Precision)

func newContext(precision uint32) *apd.Context {
	c := apd.BaseContext.WithPrecision(precision)
	c.Rounding = apd.RoundHalfEven
	return c
}

// ParseDecimal parses a plain decimal literal, rounding it to Precision digits.
func ParseDecimal(s string) (*apd.Decimal, error) {
	d, _, err := decimalContext.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Format renders d in at most Width characters. It drops trailing zeros and
// then gives up significant digits, first in fixed-point and then in exponent
// notation, until the text fits.
func Format(d *apd.Decimal) string {
	return FormatWidth(d, Width)
}

// FormatWidth is Format with an explicit width. When even one significant
// digit in exponent notation is too wide, that form is returned anyway.
// Infinities and NaN use general notation at 10 significant digits.
func FormatWidth(d *apd.Decimal, width int) string {
	if d == nil {
		return ""
	}
	if d.Form != apd.Finite {
		f, err := d.Float64()
		if err != nil {
			return d.String()
		}
		return fmt.Sprintf("%.10g", f)
	}

	var r apd.Decimal
	r.Reduce(d)
	if r.IsZero() {
		return "0"
	}
	s := r.Text('f')
	if len(s) <= width {
		return s
	}

	for _, form := range []byte{'f', 'e'} {
		for p := uint32(Precision); p > 0; p-- {
			var t apd.Decimal
			if _, err := newContext(p).Round(&t, &r); err != nil {
				break
			}
			t.Reduce(&t)
			if s = t.Text(form); len(s) <= width {
				return s
			}
		}
	}
	return s
}
