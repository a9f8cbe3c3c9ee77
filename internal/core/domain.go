package core

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// UnknownCustomerKey groups monthly transactions carrying neither a customer
// ID nor a customer name.
const UnknownCustomerKey = "__unknown__"

type (
	// Amount is a transaction amount as received. Values that cannot be read
	// as a number are kept as NaN; every consumer treats them as zero.
	Amount float64

	// Transaction is one purchase record. Only Date and Amount carry meaning
	// for the reward rules; the other fields are optional.
	Transaction struct {
		TransactionID string `json:"transactionId,omitempty"`
		CustomerID    string `json:"customerId,omitempty"`
		CustomerName  string `json:"customerName,omitempty"`
		Date          Date   `json:"date"`
		Product       string `json:"product,omitempty"`
		Amount        Amount `json:"amount"`
	}

	// MonthBucket collects one customer's transactions for a calendar month.
	MonthBucket struct {
		MonthKey
		RewardPoints int64         `json:"rewardPoints"`
		AmountSpent  string        `json:"amountSpent"`
		Transactions []Transaction `json:"transactions"`
	}

	// CustomerMonthlyAggregate lists a customer's months in chronological order.
	CustomerMonthlyAggregate struct {
		CustomerID string        `json:"customerId"`
		Name       string        `json:"name"`
		Monthly    []MonthBucket `json:"monthly"`
	}

	// CustomerTotal is a customer's all-time spend and reward points.
	CustomerTotal struct {
		CustomerID   string `json:"customerId"`
		CustomerName string `json:"customerName"`
		AmountSpent  string `json:"amountSpent"`
		RewardPoints int64  `json:"rewardPoints"`
	}
)

// InvalidAmount is the value stored for amounts that are not numbers.
func InvalidAmount() Amount {
	return Amount(math.NaN())
}

// ParseAmount reads a numeric string the way a loose JSON producer would
// write it: surrounding whitespace is ignored and an empty string is zero.
// Anything else that is not a complete number is invalid.
func ParseAmount(s string) Amount {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return InvalidAmount()
	}
	return Amount(f)
}

// Float64 returns the raw value, NaN included.
func (a Amount) Float64() float64 {
	return float64(a)
}

// Valid reports whether the amount is a finite number.
func (a Amount) Valid() bool {
	f := float64(a)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// OrZero returns the amount, or 0 when it is not finite.
func (a Amount) OrZero() float64 {
	if !a.Valid() {
		return 0
	}
	return float64(a)
}

// Positive returns the amount when it is finite and greater than zero, else 0.
func (a Amount) Positive() float64 {
	if !a.Valid() || a <= 0 {
		return 0
	}
	return float64(a)
}

// UnmarshalJSON accepts numbers and numeric strings. Other values decode to
// an invalid amount without failing the surrounding document.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*a = InvalidAmount()
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*a = InvalidAmount()
			return nil
		}
		*a = ParseAmount(s)
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		*a = InvalidAmount()
		return nil
	}
	*a = Amount(f)
	return nil
}

// MarshalJSON writes non-finite amounts as null.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid() {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, float64(a), 'f', -1, 64), nil
}
