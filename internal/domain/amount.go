package domain

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// numericPrefix matches the leading number of a free-text amount, the same
// way a float parser reads "12.50kg" as 12.50.
var numericPrefix = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// MaxExponent bounds scientific notation. Amounts written with a larger
// exponent read as zero; "1e400000000" would otherwise expand to hundreds of
// millions of digits every time a total is formatted.
const MaxExponent = 64

// ParseAmount reads a quantity or price typed by the user. Text without a
// numeric prefix ("", "-", ".", "abc") is zero, never an error: the form must
// accept intermediate values while the user is still typing.
func ParseAmount(text string) decimal.Decimal {
	m := numericPrefix.FindString(strings.TrimSpace(text))
	if m == "" {
		return decimal.Zero
	}

	mantissa, exponent := m, ""
	if i := strings.IndexAny(m, "eE"); i >= 0 {
		mantissa, exponent = m[:i], m[i:]
		e, err := strconv.Atoi(exponent[1:])
		if err != nil || e > MaxExponent || e < -MaxExponent {
			return decimal.Zero
		}
	}
	mantissa = strings.TrimSuffix(strings.TrimPrefix(mantissa, "+"), ".")
	if strings.HasPrefix(mantissa, "-.") {
		mantissa = "-0" + mantissa[1:]
	} else if strings.HasPrefix(mantissa, ".") {
		mantissa = "0" + mantissa
	}

	d, err := decimal.NewFromString(mantissa + exponent)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatAmount renders an amount with exactly two decimal places.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// ComputeLineTotal is the derivation behind every line total.
func ComputeLineTotal(quantity, unitPrice string) decimal.Decimal {
	return ParseAmount(quantity).Mul(ParseAmount(unitPrice))
}
