package domain

import (
	"strings"
	"time"
)

type dateState uint8

const (
	dateUnset dateState = iota
	dateInvalid
	dateValid
)

// OptionalDate holds a user-entered date: Unset, Invalid(raw) or Valid(date).
// Consumers only read a date through Get, so an unparseable entry behaves as
// absent without a nil check at each call site.
type OptionalDate struct {
	state dateState
	raw   string
	t     time.Time
}

// DateLayouts are the accepted user date formats, tried in order.
var DateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01",
	"Jan 2006",
	"January 2006",
}

// ParseOptionalDate classifies raw user input. Blank input is Unset.
func ParseOptionalDate(raw string) OptionalDate {
	v := strings.TrimSpace(raw)
	if v == "" {
		return OptionalDate{}
	}
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return OptionalDate{state: dateValid, raw: v, t: t.UTC()}
		}
	}
	return OptionalDate{state: dateInvalid, raw: v}
}

// DateOf wraps an already-parsed date.
func DateOf(t time.Time) OptionalDate {
	return OptionalDate{state: dateValid, raw: t.Format("2006-01-02"), t: t.UTC()}
}

func (d OptionalDate) IsSet() bool     { return d.state != dateUnset }
func (d OptionalDate) IsValid() bool   { return d.state == dateValid }
func (d OptionalDate) IsInvalid() bool { return d.state == dateInvalid }

// Raw returns the text as entered ("" when unset).
func (d OptionalDate) Raw() string { return d.raw }

// Get returns the date when valid.
func (d OptionalDate) Get() (time.Time, bool) {
	if d.state != dateValid {
		return time.Time{}, false
	}
	return d.t, true
}

// Month returns the month index of a valid date.
func (d OptionalDate) Month() (MonthIndex, bool) {
	t, ok := d.Get()
	if !ok {
		return 0, false
	}
	return MonthOf(t), true
}

func (d OptionalDate) String() string {
	switch d.state {
	case dateValid:
		return d.t.Format("2006-01-02")
	case dateInvalid:
		return d.raw + " (unreadable)"
	}
	return ""
}
