package core

import (
	"encoding/json"
	"testing"
	"time"
)

// sampleJSON mirrors the transactions file served to the dashboard.
const sampleJSON = `[
  {"transactionId":"T1","customerId":"C1","customerName":"Mark","date":"2023-12-15","product":"Laptop","amount":120.2},
  {"transactionId":"T2","customerId":"C1","customerName":"Mark","date":"2024-01-10","product":"Mouse","amount":75.5},
  {"transactionId":"T3","customerId":"C1","customerName":"Mark","date":"2024-02-05","product":"Monitor","amount":200},
  {"transactionId":"T4","customerId":"C2","customerName":"Lisa","date":"2023-12-20","product":"Notebook","amount":45.8},
  {"transactionId":"T5","customerId":"C2","customerName":"Lisa","date":"2024-01-14","product":"Keyboard","amount":110.4},
  {"transactionId":"T6","customerId":"C2","customerName":"Lisa","date":"2024-02-01","product":"Desk Lamp","amount":90}
]`

func sampleTransactions(t *testing.T) []Transaction {
	t.Helper()
	var txs []Transaction
	if err := json.Unmarshal([]byte(sampleJSON), &txs); err != nil {
		t.Fatalf("decode sample: %v", err)
	}
	return txs
}

func utcEngine() *Engine {
	return NewEngine(time.UTC)
}

func tx(customerID, name, date string, amount float64) Transaction {
	return Transaction{
		CustomerID:   customerID,
		CustomerName: name,
		Date:         DateFromString(date),
		Amount:       Amount(amount),
	}
}
