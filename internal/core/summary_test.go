package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	e := utcEngine()
	txs := sampleTransactions(t)

	all, err := e.Summarize(txs, DateRange{})
	require.NoError(t, err)
	assert.Len(t, all.Monthly, 2)
	assert.Len(t, all.Totals, 2)
	assert.Len(t, all.Transactions, 6)
	assert.Equal(t, 6, all.Stats.Transactions)

	jan, err := ParseDateRange("2024-01-01", "2024-01-31", time.UTC)
	require.NoError(t, err)
	s, err := e.Summarize(txs, jan)
	require.NoError(t, err)
	require.Len(t, s.Totals, 2)
	assert.Equal(t, int64(25), s.Totals[0].RewardPoints)
	assert.Equal(t, int64(70), s.Totals[1].RewardPoints)

	_, err = e.Summarize(txs, DateRange{Start: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})
	assert.True(t, errors.Is(err, ErrInvalidDateRange))
}

func TestInspect(t *testing.T) {
	txs := []Transaction{
		tx("C1", "Mark", "2024-01-01", 10),
		tx("", "Lisa", "bad", -1),
		{Amount: InvalidAmount()},
	}
	stats := utcEngine().Inspect(txs)
	assert.Equal(t, InputStats{
		Transactions:       3,
		InvalidAmounts:     1,
		NonPositiveAmounts: 1,
		InvalidDates:       2,
		MissingCustomerIDs: 2,
		UnknownCustomers:   1,
	}, stats)
}
