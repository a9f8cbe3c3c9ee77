package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateRange(t *testing.T) {
	r, err := ParseDateRange("2024-01-01", "2024-01-31", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01..2024-01-31", r.Key())

	r, err = ParseDateRange("", "", time.UTC)
	require.NoError(t, err)
	assert.True(t, r.IsZero())
	assert.Equal(t, "*..*", r.Key())

	_, err = ParseDateRange("2024-02-01", "2024-01-01", time.UTC)
	assert.True(t, errors.Is(err, ErrInvalidDateRange))

	_, err = ParseDateRange("01/02/2024", "", time.UTC)
	assert.True(t, errors.Is(err, ErrInvalidDateBound))
}

func TestFilterTransactions(t *testing.T) {
	e := utcEngine()
	txs := []Transaction{
		tx("C1", "Mark", "2023-12-31T23:59:59Z", 10),
		tx("C1", "Mark", "2024-01-01", 20),
		tx("C1", "Mark", "2024-01-31T23:30:00Z", 30),
		tx("C1", "Mark", "2024-02-01", 40),
		tx("C1", "Mark", "bad", 50),
	}

	r, err := ParseDateRange("2024-01-01", "2024-01-31", time.UTC)
	require.NoError(t, err)
	got := e.FilterTransactions(txs, r)
	require.Len(t, got, 2)
	assert.Equal(t, Amount(20), got[0].Amount)
	assert.Equal(t, Amount(30), got[1].Amount)

	openEnd, err := ParseDateRange("2024-01-31", "", time.UTC)
	require.NoError(t, err)
	assert.Len(t, e.FilterTransactions(txs, openEnd), 2)

	all := e.FilterTransactions(txs, DateRange{})
	assert.Len(t, all, len(txs))
	all[0].Amount = 0
	assert.Equal(t, Amount(10), txs[0].Amount, "unfiltered result is a copy")
}
