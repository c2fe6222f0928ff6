// Package billmonth defines the calendar-month key used by prepaid accounts,
// payments and monthly summaries.
package billmonth

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidMonth = errors.New("invalid_month")

// Month identifies a calendar month in UTC. The canonical wire and storage
// form is "YYYY-MM".
type Month struct {
	Year  int
	Month time.Month
}

func Parse(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// Of returns the month containing t, evaluated in UTC.
func Of(t time.Time) Month {
	u := t.UTC()
	return Month{Year: u.Year(), Month: u.Month()}
}

func (m Month) IsZero() bool { return m.Year == 0 }

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Label renders the month for humans, e.g. "Aug 2026".
func (m Month) Label() string {
	return fmt.Sprintf("%s %d", m.Month.String()[:3], m.Year)
}

func (m Month) Next() Month {
	if m.Month == time.December {
		return Month{Year: m.Year + 1, Month: time.January}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

// Bounds returns the half-open UTC interval [start, end) covering the month.
func (m Month) Bounds() (time.Time, time.Time) {
	start := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func (m Month) Contains(t time.Time) bool {
	start, end := m.Bounds()
	u := t.UTC()
	return !u.Before(start) && u.Before(end)
}

// Value implements driver.Valuer so the month persists as its canonical text.
func (m Month) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan implements sql.Scanner.
func (m *Month) Scan(value any) error {
	switch v := value.(type) {
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	case []byte:
		return m.Scan(string(v))
	default:
		return fmt.Errorf("%w: unsupported scan type %T", ErrInvalidMonth, value)
	}
}
