package core

import (
	"math"
	"time"
)

// InvalidMonth names the bucket for transactions whose date cannot be read.
const InvalidMonth = "Invalid Date"

// InvalidSortKey orders the unreadable-date bucket after every real month.
const InvalidSortKey = math.MaxInt32

// MonthKey identifies a calendar month and orders months chronologically.
type MonthKey struct {
	Month   string `json:"month"`
	Year    int    `json:"year"`
	SortKey int    `json:"sortKey"`
}

// Valid reports whether the key came from a readable date.
func (k MonthKey) Valid() bool {
	return k.SortKey != InvalidSortKey
}

func invalidMonthKey() MonthKey {
	return MonthKey{Month: InvalidMonth, Year: 0, SortKey: InvalidSortKey}
}

// Engine runs the reward rules against the calendar of a single location.
// The zero value uses time.Local. An Engine holds no state between calls and
// is safe for concurrent use.
type Engine struct {
	loc *time.Location
}

// NewEngine returns an Engine reading dates in loc. A nil loc means time.Local.
func NewEngine(loc *time.Location) *Engine {
	return &Engine{loc: loc}
}

var defaultEngine = &Engine{}

// Location returns the location used to resolve dates.
func (e *Engine) Location() *time.Location {
	if e == nil || e.loc == nil {
		return time.Local
	}
	return e.loc
}

// MonthKey returns the month name, year and sort key for d.
// The sort key is year*100 + zero-based month index, so February 2024 is 202401.
// Unreadable dates map to the InvalidMonth bucket.
func (e *Engine) MonthKey(d Date) MonthKey {
	t, ok := d.Resolve(e.Location())
	if !ok {
		return invalidMonthKey()
	}
	return MonthKey{
		Month:   t.Month().String(),
		Year:    t.Year(),
		SortKey: t.Year()*100 + int(t.Month()) - 1,
	}
}

// GetMonthYearKey resolves d on the local calendar.
func GetMonthYearKey(d Date) MonthKey {
	return defaultEngine.MonthKey(d)
}
