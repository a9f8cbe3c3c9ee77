package core

import (
	"github.com/shopspring/decimal"

	"rewards/internal/currency"
)

type totalAccumulator struct {
	customerID   string
	customerName string
	amountSpent  decimal.Decimal
	rewardPoints int64
}

// BuildTotalRewards sums points and spend per customer ID across all
// transactions.
//
// Grouping is strictly by customer ID: transactions without one share the
// empty-string group even when they carry a customer name. Only finite,
// positive amounts count toward points and spend. Customers appear in the
// order they are first seen.
func BuildTotalRewards(txs []Transaction) []CustomerTotal {
	customers := newOrderedMap[string, *totalAccumulator]()

	for _, tx := range txs {
		amount := tx.Amount.Positive()

		c := customers.getOrInsert(tx.CustomerID, func() *totalAccumulator {
			return &totalAccumulator{
				customerID:   tx.CustomerID,
				customerName: tx.CustomerName,
				amountSpent:  decimal.Zero,
			}
		})
		c.rewardPoints += CalculateRewardPoints(amount)
		c.amountSpent = c.amountSpent.Add(currency.FromFloat(amount))
	}

	out := make([]CustomerTotal, 0, customers.len())
	for _, c := range customers.all() {
		out = append(out, CustomerTotal{
			CustomerID:   c.customerID,
			CustomerName: c.customerName,
			AmountSpent:  currency.Format(c.amountSpent),
			RewardPoints: c.rewardPoints,
		})
	}
	return out
}

// BuildTotalRewards is BuildTotalRewards; totals do not depend on the calendar.
func (e *Engine) BuildTotalRewards(txs []Transaction) []CustomerTotal {
	return BuildTotalRewards(txs)
}
