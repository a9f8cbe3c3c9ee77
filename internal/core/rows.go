package core

import (
	"slices"

	"rewards/internal/currency"
)

// PurchaseDateLayout formats TransactionRow.PurchaseDate.
const PurchaseDateLayout = "2006-01-02"

// TransactionRow is a display-ready view of a single transaction.
type TransactionRow struct {
	TransactionID string `json:"transactionId"`
	CustomerName  string `json:"customerName"`
	PurchaseDate  string `json:"purchaseDate"`
	Product       string `json:"product"`
	Price         string `json:"price"`
	RewardPoints  int64  `json:"rewardPoints"`
}

// BuildTransactionRows returns one row per transaction in input order.
// Unreadable dates leave PurchaseDate empty and non-finite amounts price at $0.00.
func (e *Engine) BuildTransactionRows(txs []Transaction) []TransactionRow {
	rows := make([]TransactionRow, 0, len(txs))
	for _, tx := range txs {
		var purchased string
		if t, ok := tx.Date.Resolve(e.Location()); ok {
			purchased = t.Format(PurchaseDateLayout)
		}
		rows = append(rows, TransactionRow{
			TransactionID: tx.TransactionID,
			CustomerName:  tx.CustomerName,
			PurchaseDate:  purchased,
			Product:       tx.Product,
			Price:         currency.FormatFloat(tx.Amount.OrZero()),
			RewardPoints:  CalculateRewardPoints(tx.Amount.OrZero()),
		})
	}
	return rows
}

// SortRowsByPrice returns a copy of rows ordered by price.
func SortRowsByPrice(rows []TransactionRow, descending bool) []TransactionRow {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b TransactionRow) int {
		if descending {
			return ComparePrices(b.Price, a.Price)
		}
		return ComparePrices(a.Price, b.Price)
	})
	return sorted
}
