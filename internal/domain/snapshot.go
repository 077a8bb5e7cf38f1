package domain

import "time"

// FormKey names a form or agency stage in the processing-time table.
type FormKey string

const (
	FormPWD       FormKey = "PWD"
	FormPERM      FormKey = "PERM"
	FormPERMAudit FormKey = "PERM-audit"
	FormI140      FormKey = "I-140"
	FormI485      FormKey = "I-485"
	FormI765      FormKey = "I-765"
	FormI130      FormKey = "I-130"
	FormI129      FormKey = "I-129"
)

// FormKeys lists every form the snapshot is guaranteed to carry.
var FormKeys = []FormKey{FormPWD, FormPERM, FormPERMAudit, FormI140, FormI485, FormI765, FormI130, FormI129}

// FormTiming is a processing-time range for one form.
type FormTiming struct {
	MinMonths   float64
	MaxMonths   float64
	PremiumDays *int
}

// ProcessingTimes is keyed by form. A normalized snapshot holds every FormKey.
type ProcessingTimes map[FormKey]FormTiming

// PriorityDateTable holds one bulletin chart.
type PriorityDateTable map[Category]map[Chargeability]Cutoff

// Lookup returns the cell for (category, chargeability). Categories without
// a chart are reported Current.
func (t PriorityDateTable) Lookup(cat Category, ch Chargeability) Cutoff {
	row, ok := t[cat]
	if !ok {
		return CurrentCutoff()
	}
	c, ok := row[ch]
	if !ok {
		return CurrentCutoff()
	}
	return c
}

// Snapshot is the canonical agency data for one computation cycle.
type Snapshot struct {
	Processing      ProcessingTimes
	FinalAction     PriorityDateTable
	DatesForFiling  PriorityDateTable
	AsOf            time.Time
	FetchedAt       time.Time
	UsingDefaults   bool
	Stale           bool
	DefaultedFields []string
}

// BulletinSample is one historical visa-bulletin observation.
type BulletinSample struct {
	Bulletin MonthIndex
	Cutoff   Cutoff
}

// SeriesKey identifies one historical series.
type SeriesKey struct {
	Category      Category
	Chargeability Chargeability
}

// BulletinHistory maps each (category, chargeability) to its ordered samples.
type BulletinHistory map[SeriesKey][]BulletinSample
