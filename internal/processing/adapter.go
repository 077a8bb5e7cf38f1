// Package processing normalizes raw live agency data into a canonical
// snapshot. Every field the raw data lacks is backed by a catalog default.
package processing

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/alexanderramin/greenpath/internal/catalog"
	"github.com/alexanderramin/greenpath/internal/domain"
)

// RawTiming is one form entry as served by the live data endpoint.
type RawTiming struct {
	MinMonths   *float64 `json:"minMonths"`
	MaxMonths   *float64 `json:"maxMonths"`
	PremiumDays *int     `json:"premiumDays,omitempty"`
}

// RawTable is a bulletin chart as served: {eb2: {india: "Jan 2013", ...}}.
type RawTable map[string]map[string]string

// RawSnapshot is the wire shape of the live data endpoint.
type RawSnapshot struct {
	ProcessingTimes  map[string]RawTiming `json:"processingTimes"`
	FinalActionDates RawTable             `json:"finalActionDates"`
	DatesForFiling   RawTable             `json:"datesForFiling"`
	AsOf             string               `json:"asOf"`
}

// Defaults backs every field the raw snapshot may omit.
type Defaults struct {
	Processing     domain.ProcessingTimes
	FinalAction    domain.PriorityDateTable
	DatesForFiling domain.PriorityDateTable
	AsOf           time.Time
}

// DefaultsFrom extracts the documented static defaults from a catalog.
func DefaultsFrom(c *catalog.Catalog) Defaults {
	snap := c.DefaultSnapshot(time.Time{})
	return Defaults{
		Processing:     snap.Processing,
		FinalAction:    snap.FinalAction,
		DatesForFiling: snap.DatesForFiling,
		AsOf:           snap.AsOf,
	}
}

var charted = []domain.Category{domain.CategoryEB1, domain.CategoryEB2, domain.CategoryEB3}

var asOfLayouts = []string{time.RFC3339, "2006-01-02", "2006-01", "Jan 2006", "January 2006"}

// Normalize maps raw into a complete snapshot. It performs no I/O and never
// leaves a form or chart cell absent. FetchedAt is left for the caller.
func Normalize(raw *RawSnapshot, d Defaults) domain.Snapshot {
	if raw == nil {
		return domain.Snapshot{
			Processing:      cloneTimes(d.Processing),
			FinalAction:     cloneTable(d.FinalAction),
			DatesForFiling:  cloneTable(d.DatesForFiling),
			AsOf:            d.AsOf,
			UsingDefaults:   true,
			DefaultedFields: []string{"processingTimes", "finalActionDates", "datesForFiling", "asOf"},
		}
	}

	var defaulted []string
	processing, fields := normalizeTimes(raw.ProcessingTimes, d.Processing)
	defaulted = append(defaulted, fields...)
	finalAction, fields := normalizeTable("finalActionDates", raw.FinalActionDates, d.FinalAction)
	defaulted = append(defaulted, fields...)
	filing, fields := normalizeTable("datesForFiling", raw.DatesForFiling, d.DatesForFiling)
	defaulted = append(defaulted, fields...)

	asOf, ok := parseAsOf(raw.AsOf)
	if !ok {
		asOf = d.AsOf
		defaulted = append(defaulted, "asOf")
	}

	sort.Strings(defaulted)
	return domain.Snapshot{
		Processing:      processing,
		FinalAction:     finalAction,
		DatesForFiling:  filing,
		AsOf:            asOf,
		UsingDefaults:   len(defaulted) == totalFields(),
		DefaultedFields: defaulted,
	}
}

// totalFields is the count of leaves Normalize can default individually.
func totalFields() int {
	return len(domain.FormKeys) + 2*len(charted)*len(domain.Chargeabilities) + 1
}

func normalizeTimes(raw map[string]RawTiming, defaults domain.ProcessingTimes) (domain.ProcessingTimes, []string) {
	byKey := make(map[string]RawTiming, len(raw))
	for k, v := range raw {
		byKey[formKey(k)] = v
	}

	out := make(domain.ProcessingTimes, len(domain.FormKeys))
	var defaulted []string
	for _, key := range domain.FormKeys {
		rt, ok := byKey[formKey(string(key))]
		if t, valid := timingFrom(rt); ok && valid {
			out[key] = t
			continue
		}
		out[key] = defaults[key]
		defaulted = append(defaulted, "processingTimes."+string(key))
	}
	return out, defaulted
}

func timingFrom(rt RawTiming) (domain.FormTiming, bool) {
	if rt.MinMonths == nil || rt.MaxMonths == nil {
		return domain.FormTiming{}, false
	}
	lo, hi := *rt.MinMonths, *rt.MaxMonths
	if lo < 0 || hi < lo {
		return domain.FormTiming{}, false
	}
	t := domain.FormTiming{MinMonths: lo, MaxMonths: hi}
	if rt.PremiumDays != nil && *rt.PremiumDays > 0 {
		days := *rt.PremiumDays
		t.PremiumDays = &days
	}
	return t, true
}

// formKey folds "I-140", "i140" and "I_140" onto one lookup key.
func formKey(s string) string {
	r := strings.NewReplacer("-", "", "_", "", " ", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(s)))
}

func normalizeTable(name string, raw RawTable, defaults domain.PriorityDateTable) (domain.PriorityDateTable, []string) {
	rows := make(map[domain.Category]map[string]string, len(raw))
	for k, row := range raw {
		if cat, ok := domain.ParseCategory(k); ok {
			rows[cat] = row
		}
	}

	out := make(domain.PriorityDateTable, len(charted))
	var defaulted []string
	for _, cat := range charted {
		cells := make(map[domain.Chargeability]string)
		for k, v := range rows[cat] {
			if ch, ok := domain.ParseChargeability(k); ok {
				cells[ch] = v
			}
		}
		row := make(map[domain.Chargeability]domain.Cutoff, len(domain.Chargeabilities))
		for _, ch := range domain.Chargeabilities {
			if v, ok := cells[ch]; ok {
				if cut, err := domain.ParseCutoff(v); err == nil {
					row[ch] = cut
					continue
				}
			}
			row[ch] = defaults.Lookup(cat, ch)
			defaulted = append(defaulted, fmt.Sprintf("%s.%s.%s", name, tableKey(cat), ch))
		}
		out[cat] = row
	}
	return out, defaulted
}

func tableKey(c domain.Category) string {
	return strings.ToLower(strings.ReplaceAll(string(c), "-", ""))
}

func parseAsOf(s string) (time.Time, bool) {
	v := strings.TrimSpace(s)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range asOfLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseCutoff re-exports the bulletin cell parser for boundary callers.
func ParseCutoff(s string) (domain.Cutoff, error) {
	return domain.ParseCutoff(s)
}

func cloneTimes(t domain.ProcessingTimes) domain.ProcessingTimes {
	out := make(domain.ProcessingTimes, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

func cloneTable(t domain.PriorityDateTable) domain.PriorityDateTable {
	out := make(domain.PriorityDateTable, len(t))
	for cat, row := range t {
		cells := make(map[domain.Chargeability]domain.Cutoff, len(row))
		for ch, c := range row {
			cells[ch] = c
		}
		out[cat] = cells
	}
	return out
}
