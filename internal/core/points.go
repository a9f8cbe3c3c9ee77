package core

import "math"

// Reward tiers in whole dollars.
const (
	lowerTierDollars = 50
	upperTierDollars = 100
	upperTierRate    = 2
)

// maxRewardableDollars caps the floored amount so the point total always fits in an int64.
const maxRewardableDollars = 1 << 53

// CalculateRewardPoints converts a purchase amount into reward points.
//
// Cents are dropped before the rule is applied. Every whole dollar between
// $51 and $100 earns 1 point and every whole dollar above $100 earns 2
// points. Non-finite and non-positive amounts earn nothing.
//
//	CalculateRewardPoints(45.8)  -> 0
//	CalculateRewardPoints(51)    -> 1
//	CalculateRewardPoints(100.9) -> 50
//	CalculateRewardPoints(120.7) -> 90
func CalculateRewardPoints(amount float64) int64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0
	}
	dollars := int64(min(math.Floor(amount), maxRewardableDollars))

	upper := max(dollars-upperTierDollars, 0) * upperTierRate
	lower := max(min(dollars, upperTierDollars)-lowerTierDollars, 0)
	return upper + lower
}
