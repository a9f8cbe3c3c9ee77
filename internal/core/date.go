package core

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

type dateKind uint8

const (
	dateNone dateKind = iota
	dateText
	dateMillis
	dateTime
)

// maxEpochMillis bounds timestamps to +/-100,000,000 days around the epoch.
const maxEpochMillis = 8.64e15

// Date is a transaction date kept in the form it was received: a string,
// a millisecond Unix timestamp or a time.Time. It is resolved to a calendar
// date against a location only when needed.
type Date struct {
	kind   dateKind
	text   string
	millis float64
	t      time.Time
}

// Layouts carrying their own offset. The resolved instant is converted to
// the requested location.
var zonedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04Z07:00",
	time.RFC1123Z,
	time.RFC1123,
	"Mon Jan 2 2006 15:04:05 GMT-0700",
}

// Layouts without an offset are read on the calendar of the requested location.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-01",
	"2006/01/02",
	"2006/1/2",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"2006",
}

// DateFromString wraps a textual date.
func DateFromString(s string) Date {
	return Date{kind: dateText, text: s}
}

// DateFromMillis wraps a Unix timestamp in milliseconds.
func DateFromMillis(ms float64) Date {
	return Date{kind: dateMillis, millis: ms}
}

// DateFromTime wraps an already resolved instant.
func DateFromTime(t time.Time) Date {
	return Date{kind: dateTime, t: t}
}

// NewDate wraps a string, timestamp, time.Time or Date. Unsupported values
// produce an empty Date, which never resolves.
func NewDate(v any) Date {
	switch val := v.(type) {
	case Date:
		return val
	case string:
		return DateFromString(val)
	case time.Time:
		return DateFromTime(val)
	case *time.Time:
		if val == nil {
			return Date{}
		}
		return DateFromTime(*val)
	case float64:
		return DateFromMillis(val)
	case int:
		return DateFromMillis(float64(val))
	case int64:
		return DateFromMillis(float64(val))
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return Date{}
		}
		return DateFromMillis(f)
	default:
		return Date{}
	}
}

// IsZero reports whether no date value was provided.
func (d Date) IsZero() bool {
	return d.kind == dateNone
}

// Resolve returns the date as an instant in loc. The second result is false
// when the value cannot be read as a date.
func (d Date) Resolve(loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	switch d.kind {
	case dateTime:
		if d.t.IsZero() {
			return time.Time{}, false
		}
		return d.t.In(loc), true
	case dateMillis:
		if math.IsNaN(d.millis) || math.Abs(d.millis) > maxEpochMillis {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(d.millis)).In(loc), true
	case dateText:
		return parseDateText(d.text, loc)
	default:
		return time.Time{}, false
	}
}

// String returns the date as received.
func (d Date) String() string {
	switch d.kind {
	case dateText:
		return d.text
	case dateMillis:
		return strconv.FormatFloat(d.millis, 'f', -1, 64)
	case dateTime:
		return d.t.Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// UnmarshalJSON accepts strings and numeric timestamps. Other JSON values
// decode to an empty Date.
func (d *Date) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*d = Date{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			*d = DateFromString(s)
		}
		return nil
	}
	if f, err := strconv.ParseFloat(string(b), 64); err == nil {
		*d = DateFromMillis(f)
	}
	return nil
}

// MarshalJSON writes the date back in its received form.
func (d Date) MarshalJSON() ([]byte, error) {
	switch d.kind {
	case dateText:
		return json.Marshal(d.text)
	case dateMillis:
		if math.IsInf(d.millis, 0) || math.IsNaN(d.millis) {
			return []byte("null"), nil
		}
		return strconv.AppendFloat(nil, d.millis, 'f', -1, 64), nil
	case dateTime:
		return json.Marshal(d.t.Format(time.RFC3339Nano))
	default:
		return []byte("null"), nil
	}
}

func parseDateText(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(loc), true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
