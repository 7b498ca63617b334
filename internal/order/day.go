package order

import (
	"fmt"
	"strconv"
	"time"
)

const dayKeyLayout = "2006-01-02"

// Day is the half-open window [Start, End) between two local midnights.
// Key is the index value stored on every order created inside the window.
type Day struct {
	Start time.Time
	End   time.Time
	Key   string
}

// DayOf returns the day window containing t in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Day{
		Start: start,
		End:   start.AddDate(0, 0, 1),
		Key:   start.Format(dayKeyLayout),
	}
}

// Contains reports whether t falls inside the window.
func (d Day) Contains(t time.Time) bool {
	return !t.Before(d.Start) && t.Before(d.End)
}

// FormatNumber renders n zero-padded to at least three digits.
func FormatNumber(n int) string {
	return fmt.Sprintf("%03d", n)
}

// ParseNumber reads an order number back as an integer.
func ParseNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("numéro de commande invalide %q", s)
	}
	return n, nil
}

// NextNumber returns the number following the day's current maximum (0 when the day is empty).
func NextNumber(max int) string {
	return FormatNumber(max + 1)
}
