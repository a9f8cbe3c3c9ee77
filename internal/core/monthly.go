package core

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"rewards/internal/currency"
)

type monthAccumulator struct {
	key          MonthKey
	rewardPoints int64
	amountSpent  decimal.Decimal
	transactions []Transaction
}

type customerAccumulator struct {
	customerID string
	name       string
	months     *orderedMap[int, *monthAccumulator]
}

// ResolveCustomerKey picks the monthly grouping key for tx: the customer ID,
// then the customer name, then UnknownCustomerKey.
//
// BuildTotalRewards does not use this; it groups strictly by customer ID.
func ResolveCustomerKey(tx Transaction) string {
	switch {
	case tx.CustomerID != "":
		return tx.CustomerID
	case tx.CustomerName != "":
		return tx.CustomerName
	default:
		return UnknownCustomerKey
	}
}

// AggregateMonthlyRewards groups transactions per customer and calendar month
// on the local calendar. A month's spend may be negative, e.g. "$-5.00".
// See Engine.AggregateMonthlyRewards.
func AggregateMonthlyRewards(txs []Transaction) []CustomerMonthlyAggregate {
	return defaultEngine.AggregateMonthlyRewards(txs)
}

// AggregateMonthlyRewards groups transactions per customer and calendar month.
//
// Customers appear in the order they are first seen. Each customer's months
// are sorted by ascending sort key and keep their transactions in input order.
// Amounts that are not finite count as zero for both points and spend;
// negative amounts earn no points but are still added to the month's spend,
// so AmountSpent can be negative and renders as "$-5.00".
func (e *Engine) AggregateMonthlyRewards(txs []Transaction) []CustomerMonthlyAggregate {
	customers := newOrderedMap[string, *customerAccumulator]()

	for _, tx := range txs {
		key := e.MonthKey(tx.Date)
		amount := tx.Amount.OrZero()

		c := customers.getOrInsert(ResolveCustomerKey(tx), func() *customerAccumulator {
			return &customerAccumulator{
				customerID: tx.CustomerID,
				name:       tx.CustomerName,
				months:     newOrderedMap[int, *monthAccumulator](),
			}
		})
		m := c.months.getOrInsert(key.SortKey, func() *monthAccumulator {
			return &monthAccumulator{key: key, amountSpent: decimal.Zero}
		})

		m.transactions = append(m.transactions, tx)
		m.rewardPoints += CalculateRewardPoints(amount)
		m.amountSpent = m.amountSpent.Add(currency.FromFloat(amount))
	}

	out := make([]CustomerMonthlyAggregate, 0, customers.len())
	for _, c := range customers.all() {
		months := slices.Clone(c.months.all())
		slices.SortStableFunc(months, func(a, b *monthAccumulator) int {
			return cmp.Compare(a.key.SortKey, b.key.SortKey)
		})

		monthly := make([]MonthBucket, 0, len(months))
		for _, m := range months {
			monthly = append(monthly, MonthBucket{
				MonthKey:     m.key,
				RewardPoints: m.rewardPoints,
				AmountSpent:  currency.Format(m.amountSpent),
				Transactions: m.transactions,
			})
		}
		out = append(out, CustomerMonthlyAggregate{
			CustomerID: c.customerID,
			Name:       c.name,
			Monthly:    monthly,
		})
	}
	return out
}
