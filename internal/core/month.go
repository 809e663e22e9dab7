package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// MonthKey identifies a calendar month, rendered as YYYY-MM.
type MonthKey struct {
	Year  int
	Month time.Month
}

func NewMonthKey(year int, month time.Month) MonthKey {
	return MonthKey{Year: year, Month: month}
}

// ParseMonthKey parses a YYYY-MM string.
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return MonthKey{}, fmt.Errorf("%w: %q", ErrInvalidMonthKey, s)
	}
	return MonthKey{Year: t.Year(), Month: t.Month()}, nil
}

func (m MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Start is the first day of the month.
func (m MonthKey) Start() Date {
	return NewDate(m.Year, m.Month, 1)
}

// End is the last calendar day of the month: the first day of the next month
// minus one day.
func (m MonthKey) End() Date {
	return Date{Time: m.Start().AddDate(0, 1, -1)}
}

// Range covers every day of the month, bounds included.
func (m MonthKey) Range() DateRange {
	return DateRange{From: m.Start(), To: m.End()}
}

// Before reports whether m is an earlier month than o.
func (m MonthKey) Before(o MonthKey) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

func (m MonthKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *MonthKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrInvalidMonthKey
	}
	parsed, err := ParseMonthKey(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
