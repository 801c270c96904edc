package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date is a calendar date with no time component.
// The zero value is an invalid date; it is what unparseable input decodes to.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate returns the date y-m-d without normalizing it. Use Valid to check it.
func NewDate(y int, m time.Month, d int) Date {
	return Date{Year: y, Month: m, Day: d}
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate accepts "YYYY-MM-DD" with an optional "T..." suffix. Month and day
// may be unpadded. ok is false when the input is not a real calendar date.
func ParseDate(s string) (Date, bool) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[:i]
	}
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return Date{}, false
	}
	var n [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, false
		}
		n[i] = v
	}
	d := Date{Year: n[0], Month: time.Month(n[1]), Day: n[2]}
	if !d.Valid() {
		return Date{}, false
	}
	return d, true
}

// Valid reports whether d names an existing calendar day.
func (d Date) Valid() bool {
	if d.Year < 1 || d.Year > 9999 || d.Month < time.January || d.Month > time.December || d.Day < 1 {
		return false
	}
	return d.Day <= daysIn(d.Year, d.Month)
}

func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Key is year*10000 + month*100 + day. It orders dates numerically.
func (d Date) Key() int {
	return d.Year*10000 + int(d.Month)*100 + d.Day
}

// SameMonth reports whether d and o fall in the same (year, month).
func (d Date) SameMonth(o Date) bool {
	return d.Year == o.Year && d.Month == o.Month
}

func (d Date) After(o Date) bool  { return d.Key() > o.Key() }
func (d Date) Before(o Date) bool { return d.Key() < o.Key() }

// String renders YYYY-MM-DD, or "" for an invalid date.
func (d Date) String() string {
	if !d.Valid() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText never fails: malformed input yields the zero Date.
func (d *Date) UnmarshalText(b []byte) error {
	*d, _ = ParseDate(string(b))
	return nil
}

func (d Date) MarshalBinary() ([]byte, error)  { return d.MarshalText() }
func (d *Date) UnmarshalBinary(b []byte) error { return d.UnmarshalText(b) }

func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON is lenient: null, numbers and garbage strings all decode to
// the zero Date instead of failing the surrounding document.
func (d *Date) UnmarshalJSON(b []byte) error {
	*d = Date{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '"' {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	*d, _ = ParseDate(s)
	return nil
}
