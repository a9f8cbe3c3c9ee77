package core

// InputStats describes data quality problems in a transaction list. None of
// them stop aggregation; they are reported so callers can surface them.
type InputStats struct {
	Transactions       int `json:"transactions"`
	InvalidAmounts     int `json:"invalidAmounts"`
	NonPositiveAmounts int `json:"nonPositiveAmounts"`
	InvalidDates       int `json:"invalidDates"`
	MissingCustomerIDs int `json:"missingCustomerIds"`
	UnknownCustomers   int `json:"unknownCustomers"`
}

// Inspect counts records that will degrade during aggregation.
func (e *Engine) Inspect(txs []Transaction) InputStats {
	stats := InputStats{Transactions: len(txs)}
	loc := e.Location()
	for _, tx := range txs {
		switch {
		case !tx.Amount.Valid():
			stats.InvalidAmounts++
		case tx.Amount <= 0:
			stats.NonPositiveAmounts++
		}
		if _, ok := tx.Date.Resolve(loc); !ok {
			stats.InvalidDates++
		}
		if tx.CustomerID == "" {
			stats.MissingCustomerIDs++
			if tx.CustomerName == "" {
				stats.UnknownCustomers++
			}
		}
	}
	return stats
}
