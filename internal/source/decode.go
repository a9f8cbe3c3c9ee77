package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"rewards/internal/core"
)

// ErrMalformedDocument is returned when the payload is not a JSON array of
// objects. Bad field values inside an object never fail decoding.
var ErrMalformedDocument = errors.New("malformed transactions document")

// identifier accepts strings and numbers so documents that key customers by
// numeric IDs decode the same as string-keyed ones.
type identifier string

func (id *identifier) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*id = ""
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			*id = identifier(s)
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if f, err := strconv.ParseFloat(string(b), 64); err == nil {
			*id = identifier(strconv.FormatFloat(f, 'f', -1, 64))
		}
	}
	return nil
}

type wireTransaction struct {
	TransactionID identifier  `json:"transactionId"`
	CustomerID    identifier  `json:"customerId"`
	CustomerName  identifier  `json:"customerName"`
	Date          core.Date   `json:"date"`
	Product       identifier  `json:"product"`
	Amount        core.Amount `json:"amount"`
}

func (w wireTransaction) transaction() core.Transaction {
	return core.Transaction{
		TransactionID: string(w.TransactionID),
		CustomerID:    string(w.CustomerID),
		CustomerName:  string(w.CustomerName),
		Date:          w.Date,
		Product:       string(w.Product),
		Amount:        w.Amount,
	}
}

// Decode reads a JSON array of transactions. A missing "amount" decodes as
// an invalid amount, matching an explicit null.
func Decode(r io.Reader) ([]core.Transaction, error) {
	dec := json.NewDecoder(r)
	var raw []json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}

	txs := make([]core.Transaction, 0, len(raw))
	for i, msg := range raw {
		msg = bytes.TrimSpace(msg)
		if len(msg) == 0 || msg[0] != '{' {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrMalformedDocument, i)
		}
		w := wireTransaction{Amount: core.InvalidAmount()}
		if err := json.Unmarshal(msg, &w); err != nil {
			return nil, fmt.Errorf("%w: element %d: %w", ErrMalformedDocument, i, err)
		}
		txs = append(txs, w.transaction())
	}
	return txs, nil
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(b []byte) ([]core.Transaction, error) {
	return Decode(bytes.NewReader(b))
}
