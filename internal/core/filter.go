package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateBoundLayout is the accepted format for date range bounds.
const DateBoundLayout = "2006-01-02"

var (
	ErrInvalidDateRange = errors.New("start date must be before or equal to end date")
	ErrInvalidDateBound = errors.New("invalid date bound")
)

// DateRange selects transactions by calendar day. Zero bounds are open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange reads YYYY-MM-DD bounds on the calendar of loc.
// Empty strings leave the bound open.
func ParseDateRange(start, end string, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.Local
	}
	var r DateRange
	var err error
	if r.Start, err = parseBound("start", start, loc); err != nil {
		return DateRange{}, err
	}
	if r.End, err = parseBound("end", end, loc); err != nil {
		return DateRange{}, err
	}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

func parseBound(name, s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(DateBoundLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q must be YYYY-MM-DD", ErrInvalidDateBound, name, s)
	}
	return t, nil
}

// IsZero reports whether both bounds are open.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Validate rejects a start bound later than the end bound.
func (r DateRange) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && r.Start.After(r.End) {
		return ErrInvalidDateRange
	}
	return nil
}

// Key identifies the range for caching and logging.
func (r DateRange) Key() string {
	format := func(t time.Time) string {
		if t.IsZero() {
			return "*"
		}
		return t.Format(DateBoundLayout)
	}
	return format(r.Start) + ".." + format(r.End)
}

// FilterTransactions keeps transactions dated within r, both bound days
// included. With either bound set, transactions with unreadable dates are
// dropped. The input slice is not modified.
func (e *Engine) FilterTransactions(txs []Transaction, r DateRange) []Transaction {
	out := make([]Transaction, 0, len(txs))
	if r.IsZero() {
		return append(out, txs...)
	}

	loc := e.Location()
	var from, until time.Time
	if !r.Start.IsZero() {
		from = startOfDay(r.Start.In(loc))
	}
	if !r.End.IsZero() {
		until = startOfDay(r.End.In(loc)).AddDate(0, 0, 1)
	}

	for _, tx := range txs {
		t, ok := tx.Date.Resolve(loc)
		if !ok {
			continue
		}
		if !from.IsZero() && t.Before(from) {
			continue
		}
		if !until.IsZero() && !t.Before(until) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
