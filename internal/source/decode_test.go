package source

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rewards/internal/core"
)

func TestDecode(t *testing.T) {
	doc := `[
		{"transactionId": "T1", "customerId": "C1", "customerName": "Mark", "date": "2024-01-15", "product": "Shoes", "amount": 120.2},
		{"transactionId": 2, "customerId": 101, "date": 1706745600000, "amount": "75.5"},
		{"customerName": "Lisa", "date": null, "amount": null},
		{"customerName": "Ann", "date": "2024-03-01"},
		{"customerId": true, "amount": "abc", "date": {"y": 2024}}
	]`

	txs, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, txs, 5)

	assert.Equal(t, "T1", txs[0].TransactionID)
	assert.Equal(t, "C1", txs[0].CustomerID)
	assert.Equal(t, "Shoes", txs[0].Product)
	assert.Equal(t, 120.2, txs[0].Amount.Float64())

	assert.Equal(t, "2", txs[1].TransactionID)
	assert.Equal(t, "101", txs[1].CustomerID)
	assert.Equal(t, 75.5, txs[1].Amount.Float64())
	assert.False(t, txs[1].Date.IsZero())

	assert.True(t, txs[2].Date.IsZero())
	assert.False(t, txs[2].Amount.Valid())

	assert.False(t, txs[3].Amount.Valid(), "missing amount should be invalid")

	assert.Empty(t, txs[4].CustomerID)
	assert.False(t, txs[4].Amount.Valid())
	assert.True(t, txs[4].Date.IsZero())
}

func TestDecodeNumericCustomerGroupsWithString(t *testing.T) {
	txs, err := DecodeBytes([]byte(`[{"customerId": 7, "amount": 60, "date": "2024-01-01"}, {"customerId": "7", "amount": 60, "date": "2024-01-02"}]`))
	require.NoError(t, err)

	totals := core.BuildTotalRewards(txs)
	require.Len(t, totals, 1)
	assert.Equal(t, int64(20), totals[0].RewardPoints)
}

func TestDecodeMalformed(t *testing.T) {
	for _, doc := range []string{``, `{}`, `[1, 2]`, `["x"]`, `[{"amount": 1}`, `"[]"`} {
		_, err := DecodeBytes([]byte(doc))
		require.Error(t, err, doc)
		assert.True(t, errors.Is(err, ErrMalformedDocument), doc)
	}
}

func TestDecodeEmptyArray(t *testing.T) {
	txs, err := DecodeBytes([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.NotNil(t, txs)
}
