// Package eligibility decides which path templates a profile admits.
package eligibility

import "github.com/alexanderramin/greenpath/internal/domain"

// Admissible is one template instantiated for a profile.
type Admissible struct {
	TemplateID       string
	Name             string
	Category         domain.Category
	Variant          string
	UnlockedBy       string
	EntryStages      []string
	GCStages         []string
	SelfPetition     bool
	HasLottery       bool
	SuppressPetition bool
	// PriorityDate is a retained date the path inherits; nil files fresh.
	PriorityDate *domain.MonthIndex
}

// Resolve lists every admissible template once, in table order.
func Resolve(p domain.Profile) []Admissible {
	return ResolveWith(Templates, p)
}

// ResolveWith evaluates an explicit template table.
func ResolveWith(templates []Template, p domain.Profile) []Admissible {
	var out []Admissible
	for _, t := range templates {
		ok, unlocked := t.Eligible(p)
		if !ok {
			continue
		}
		cat, variant := t.Category(p)
		a := Admissible{
			TemplateID:   t.ID,
			Name:         t.Name,
			Category:     cat,
			Variant:      variant,
			UnlockedBy:   unlocked,
			EntryStages:  entryStages(t, p),
			GCStages:     append([]string(nil), t.GCStages...),
			SelfPetition: t.SelfPetition,
		}
		for _, id := range a.EntryStages {
			if id == "h1b_lottery" {
				a.HasLottery = true
			}
		}
		applyExistingPriorityDate(&a, p.ExistingPriorityDate)
		out = append(out, a)
	}
	return out
}

func entryStages(t Template, p domain.Profile) []string {
	status := p.Status
	if status == "" {
		status = domain.StatusNone
	}
	route := entryByStatus[status]

	var stages []string
	switch t.Entry {
	case EntryTN:
		if status == domain.StatusTN {
			stages = []string{"tn"}
		} else {
			stages = []string{"tn_application", "tn"}
		}
	case EntryMaintain:
		stages = route.maintain
		if p.STEM && len(stages) == 1 && stages[0] == "opt" {
			stages = []string{"opt", "stem_opt"}
		}
	default:
		stages = route.employer
		if stages == nil {
			stages = lotteryEntry
		}
	}
	return append([]string(nil), stages...)
}

// applyExistingPriorityDate honors a date the applicant already holds. An
// approved I-140 lends its date to every charted employment category and
// covers the petition stages of its own category; an unapproved date only
// applies within the same category.
func applyExistingPriorityDate(a *Admissible, existing *domain.ExistingPriorityDate) {
	if existing == nil || !a.Category.HasChart() {
		return
	}
	pd := existing.Date
	sameCategory := existing.Category == a.Category

	if existing.I140Approved {
		a.PriorityDate = &pd
		if sameCategory {
			a.SuppressPetition = true
			kept := a.GCStages[:0]
			for _, id := range a.GCStages {
				if !petitionStages[id] {
					kept = append(kept, id)
				}
			}
			a.GCStages = kept
		}
		return
	}
	if sameCategory {
		a.PriorityDate = &pd
	}
}
