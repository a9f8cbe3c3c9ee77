// Package currency formats monetary totals as dollar strings and parses them back.
//
// Format and Parse are inverses for every value Format produces, so totals
// emitted by the aggregators can be sorted numerically by the price comparator.
package currency

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Symbol is the prefix of every formatted amount.
const Symbol = "$"

// Format renders d as "$<integer>.<2 digits>", rounding half away from zero.
//
// Examples:
//
//	Format(decimal.RequireFromString("120.2"))  -> "$120.20"
//	Format(decimal.RequireFromString("0.005"))  -> "$0.01"
//	Format(decimal.RequireFromString("-5"))     -> "$-5.00"
func Format(d decimal.Decimal) string {
	return Symbol + d.StringFixed(2)
}

// FormatFloat formats a float amount. Non-finite values format as "$0.00".
func FormatFloat(f float64) string {
	return Format(FromFloat(f))
}

// FromFloat converts f to a decimal using its shortest representation.
// NaN and infinities convert to zero.
func FromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// Parse reads a currency string such as " $1,234.56 " into a float.
//
// Surrounding whitespace is trimmed, one leading "$" is removed and every ","
// is dropped. The longest numeric prefix of the remainder is used, so "12abc"
// parses as 12. Anything without a numeric prefix, or that overflows, is 0.
func Parse(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, Symbol)
	s = strings.ReplaceAll(s, ",", "")

	f, ok := parseFloatPrefix(s)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ParseValue converts a sortable price value to a float.
//
// Numbers are used as-is when finite, strings go through Parse and every
// other value (including nil) is 0.
func ParseValue(v any) float64 {
	switch val := v.(type) {
	case nil:
		return 0
	case string:
		return Parse(val)
	case float64:
		return finiteOrZero(val)
	case float32:
		return finiteOrZero(float64(val))
	case int:
		return float64(val)
	case int8:
		return float64(val)
	case int16:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case uint:
		return float64(val)
	case uint8:
		return float64(val)
	case uint16:
		return float64(val)
	case uint32:
		return float64(val)
	case uint64:
		return float64(val)
	case decimal.Decimal:
		return finiteOrZero(val.InexactFloat64())
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0
		}
		return finiteOrZero(f)
	case interface{ Float64() float64 }:
		return finiteOrZero(val.Float64())
	default:
		return 0
	}
}

func finiteOrZero(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// parseFloatPrefix scans the longest decimal literal at the start of s after
// leading whitespace: [sign] (Infinity | digits [. digits] | . digits) [exponent].
func parseFloatPrefix(s string) (float64, bool) {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		if s[0] == '-' {
			return math.Inf(-1), true
		}
		return math.Inf(1), true
	}

	intDigits := countDigits(s[i:])
	i += intDigits
	fracDigits := 0
	if i < len(s) && s[i] == '.' {
		fracDigits = countDigits(s[i+1:])
		if intDigits > 0 || fracDigits > 0 {
			i += 1 + fracDigits
		}
	}
	if intDigits == 0 && fracDigits == 0 {
		return 0, false
	}

	// Exponent only counts when at least one digit follows it.
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if n := countDigits(s[j:]); n > 0 {
			i = j + n
		}
	}

	f, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		// Out of range literals still carry a signed infinity.
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f, true
		}
		return 0, false
	}
	return f, true
}

func countDigits(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}
