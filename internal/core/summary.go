package core

// Summary bundles every view computed from one transaction list.
type Summary struct {
	Monthly      []CustomerMonthlyAggregate `json:"monthly"`
	Totals       []CustomerTotal            `json:"totals"`
	Transactions []TransactionRow           `json:"transactions"`
	Stats        InputStats                 `json:"stats"`
}

// Summarize filters txs to r and builds every view from the result.
func (e *Engine) Summarize(txs []Transaction, r DateRange) (Summary, error) {
	if err := r.Validate(); err != nil {
		return Summary{}, err
	}
	selected := e.FilterTransactions(txs, r)
	return Summary{
		Monthly:      e.AggregateMonthlyRewards(selected),
		Totals:       e.BuildTotalRewards(selected),
		Transactions: e.BuildTransactionRows(selected),
		Stats:        e.Inspect(selected),
	}, nil
}
