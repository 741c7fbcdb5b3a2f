package core

import (
	"fmt"
	"strings"
	"time"
)

// Period is a reporting calendar month.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"` // 1-12
}

// PeriodOf returns the calendar month containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// ParsePeriod parses "YYYY-MM".
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q: want YYYY-MM", s)
	}
	return PeriodOf(t), nil
}

// String formats the period as YYYY-MM, the prefix shared by all dates in it.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Label is the display form, e.g. "2025年 03月".
func (p Period) Label() string {
	return fmt.Sprintf("%d年 %02d月", p.Year, p.Month)
}

// Contains reports whether d falls within the period.
func (p Period) Contains(d Date) bool {
	return strings.HasPrefix(d.String(), p.String())
}

// Next steps one month forward.
func (p Period) Next() Period { return p.add(1) }

// Prev steps one month back.
func (p Period) Prev() Period { return p.add(-1) }

func (p Period) add(delta int) Period {
	t := time.Date(p.Year, time.Month(p.Month)+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	return PeriodOf(t)
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("invalid month: %d", p.Month)
	}
	if p.Year < 1 || p.Year > 9999 {
		return fmt.Errorf("invalid year: %d", p.Year)
	}
	return nil
}
