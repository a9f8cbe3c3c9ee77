package core

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// TotalsSortKey orders customer totals.
type TotalsSortKey string

const (
	SortTotalsNone   TotalsSortKey = ""
	SortTotalsName   TotalsSortKey = "name"
	SortTotalsPoints TotalsSortKey = "points"
	SortTotalsAmount TotalsSortKey = "amount"
)

// ParseTotalsSortKey validates a sort key from user input.
func ParseTotalsSortKey(s string) (TotalsSortKey, error) {
	switch k := TotalsSortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortTotalsNone, SortTotalsName, SortTotalsPoints, SortTotalsAmount:
		return k, nil
	default:
		return SortTotalsNone, fmt.Errorf("unknown totals sort key %q", s)
	}
}

// SortTotals returns a sorted copy of totals. Names sort ascending ignoring
// case; points and amounts sort descending. Ties keep their input order.
func SortTotals(totals []CustomerTotal, key TotalsSortKey) []CustomerTotal {
	sorted := slices.Clone(totals)
	switch key {
	case SortTotalsName:
		slices.SortStableFunc(sorted, func(a, b CustomerTotal) int {
			return cmp.Compare(strings.ToLower(a.CustomerName), strings.ToLower(b.CustomerName))
		})
	case SortTotalsPoints:
		slices.SortStableFunc(sorted, func(a, b CustomerTotal) int {
			return cmp.Compare(b.RewardPoints, a.RewardPoints)
		})
	case SortTotalsAmount:
		slices.SortStableFunc(sorted, func(a, b CustomerTotal) int {
			return ComparePrices(b.AmountSpent, a.AmountSpent)
		})
	}
	return sorted
}
