package domain

import (
	"fmt"
	"strings"
	"time"
)

// MonthIndex is a linear month scale: year*12 + (month-1).
// Bulletin months, cutoff dates and priority dates all live on it.
type MonthIndex int

// MonthOf returns the month index containing t.
func MonthOf(t time.Time) MonthIndex {
	return MonthIndex(t.Year()*12 + int(t.Month()) - 1)
}

// MonthAt builds an index from a calendar year and month.
func MonthAt(year int, month time.Month) MonthIndex {
	return MonthIndex(year*12 + int(month) - 1)
}

func (m MonthIndex) Year() int         { return int(m) / 12 }
func (m MonthIndex) Month() time.Month { return time.Month(int(m)%12 + 1) }

// Time returns the first day of the month in UTC.
func (m MonthIndex) Time() time.Time {
	return time.Date(m.Year(), m.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// String renders the bulletin form, e.g. "Jan 2013".
func (m MonthIndex) String() string {
	return m.Time().Format("Jan 2006")
}

// MonthsBetween returns the fractional number of months from a to b.
func MonthsBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours() / 24 / daysPerMonth
}

const daysPerMonth = 365.25 / 12

// Cutoff is a visa-bulletin cell: either Current or a cutoff month.
// The zero value is Current.
type Cutoff struct {
	month  MonthIndex
	hasCut bool
}

// CurrentCutoff returns the "C" sentinel.
func CurrentCutoff() Cutoff { return Cutoff{} }

// CutoffAt returns a cutoff at the given month.
func CutoffAt(m MonthIndex) Cutoff { return Cutoff{month: m, hasCut: true} }

func (c Cutoff) IsCurrent() bool { return !c.hasCut }

// Month returns the cutoff month; ok is false when the cell is Current.
func (c Cutoff) Month() (MonthIndex, bool) { return c.month, c.hasCut }

// Reached reports whether a priority date in month pd is eligible under c.
// A priority date earlier than the listed cutoff is eligible.
func (c Cutoff) Reached(pd MonthIndex) bool {
	if c.IsCurrent() {
		return true
	}
	return pd < c.month
}

func (c Cutoff) String() string {
	if c.IsCurrent() {
		return "Current"
	}
	return c.month.String()
}

var monthLayouts = []string{"Jan 2006", "January 2006", "Jan2006", "2006-01", "01/2006", "Jan-06", "02Jan06"}

// ParseCutoff parses a bulletin cell: "current"/"C" (any case) or a month.
func ParseCutoff(s string) (Cutoff, error) {
	v := strings.TrimSpace(s)
	switch strings.ToLower(v) {
	case "current", "c":
		return CurrentCutoff(), nil
	case "":
		return Cutoff{}, fmt.Errorf("empty cutoff")
	}
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, titleMonth(v)); err == nil {
			return CutoffAt(MonthOf(t)), nil
		}
	}
	return Cutoff{}, fmt.Errorf("unrecognized cutoff %q", s)
}

// titleMonth normalizes "JAN 2013" / "jan 2013" to "Jan 2013" for time.Parse.
func titleMonth(s string) string {
	if len(s) < 3 {
		return s
	}
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return s
	}
	word := strings.ToLower(fields[0])
	return strings.ToUpper(word[:1]) + word[1:] + " " + fields[1]
}

func normalizeKey(s string) string {
	r := strings.NewReplacer("-", "", "_", "", " ", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(s)))
}
