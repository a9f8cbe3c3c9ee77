package core

import (
	"cmp"
	"slices"

	"rewards/internal/currency"
)

// PriceSortComparator returns a - b after reading both as prices.
//
// Numbers are used directly when finite. Strings may carry surrounding
// whitespace, a leading "$" and thousands separators (" $1,234.56 ").
// Everything else, nil included, reads as 0.
func PriceSortComparator(a, b any) float64 {
	return currency.ParseValue(a) - currency.ParseValue(b)
}

// ComparePrices is PriceSortComparator reduced to -1, 0 or +1 for use with
// slices.SortFunc.
func ComparePrices(a, b any) int {
	return cmp.Compare(currency.ParseValue(a), currency.ParseValue(b))
}

// SortPrices sorts values in ascending price order. Equal prices keep their
// relative order.
func SortPrices(values []any) {
	slices.SortStableFunc(values, ComparePrices)
}
