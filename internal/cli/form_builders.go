package cli

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/huh"

	"github.com/alexanderramin/greenpath/internal/domain"
)

const (
	specialExtraordinary = "extraordinary"
	specialResearcher    = "researcher"
	specialExecutive     = "executive"
	specialMarried       = "married"
	specialInvestor      = "investor"
)

// profileFormValues is the editable projection of a profile. huh binds to
// plain strings and bools, so dates and categories stay raw until apply.
type profileFormValues struct {
	Status            string
	Education         string
	Experience        string
	STEM              bool
	Country           string
	CanadianOrMexican bool
	Special           []string
	PDDate            string
	PDCategory        string
	PDI140Approved    bool
}

func profileFormValuesFrom(p *domain.Profile) *profileFormValues {
	v := &profileFormValues{
		Status:            string(p.Status),
		Education:         string(p.Education),
		Experience:        string(p.Experience),
		STEM:              p.STEM,
		Country:           p.CountryOfBirth,
		CanadianOrMexican: p.CanadianOrMexican,
	}
	s := p.Special
	for _, f := range []struct {
		on  bool
		key string
	}{
		{s.ExtraordinaryAbility, specialExtraordinary},
		{s.OutstandingResearcher, specialResearcher},
		{s.ExecutiveManager, specialExecutive},
		{s.MarriedToUSCitizen, specialMarried},
		{s.InvestmentCapital, specialInvestor},
	} {
		if f.on {
			v.Special = append(v.Special, f.key)
		}
	}
	if e := p.ExistingPriorityDate; e != nil {
		v.PDDate = e.Date.Time().Format("2006-01")
		v.PDCategory = string(e.Category)
		v.PDI140Approved = e.I140Approved
	}
	return v
}

// apply writes the form values onto p. A blank priority date clears it.
func (v *profileFormValues) apply(p *domain.Profile) error {
	p.Status = domain.ImmigrationStatus(v.Status)
	p.Education = domain.Education(v.Education)
	p.Experience = domain.Experience(v.Experience)
	p.STEM = v.STEM
	p.CountryOfBirth = v.Country
	p.CanadianOrMexican = v.CanadianOrMexican
	p.Special = domain.SpecialCircumstances{
		ExtraordinaryAbility:  slices.Contains(v.Special, specialExtraordinary),
		OutstandingResearcher: slices.Contains(v.Special, specialResearcher),
		ExecutiveManager:      slices.Contains(v.Special, specialExecutive),
		MarriedToUSCitizen:    slices.Contains(v.Special, specialMarried),
		InvestmentCapital:     slices.Contains(v.Special, specialInvestor),
	}

	if v.PDDate == "" {
		p.ExistingPriorityDate = nil
		return nil
	}
	m, ok := domain.ParseOptionalDate(v.PDDate).Month()
	if !ok {
		return fmt.Errorf("invalid priority date %q", v.PDDate)
	}
	cat, ok := domain.ParseCategory(v.PDCategory)
	if !ok {
		return fmt.Errorf("a priority date needs its category")
	}
	p.ExistingPriorityDate = &domain.ExistingPriorityDate{
		Date:         m,
		Category:     cat,
		I140Approved: v.PDI140Approved,
	}
	return nil
}

// profileForm returns the `profile edit` form bound to v.
func profileForm(v *profileFormValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Current status").
				Options(
					huh.NewOption("None / outside the US", string(domain.StatusNone)),
					huh.NewOption("F-1 student", string(domain.StatusF1)),
					huh.NewOption("OPT", string(domain.StatusOPT)),
					huh.NewOption("H-1B", string(domain.StatusH1B)),
					huh.NewOption("H-4", string(domain.StatusH4)),
					huh.NewOption("L-1", string(domain.StatusL1)),
					huh.NewOption("TN", string(domain.StatusTN)),
					huh.NewOption("O-1", string(domain.StatusO1)),
					huh.NewOption("Other", string(domain.StatusOther)),
				).
				Value(&v.Status),
			huh.NewSelect[string]().
				Title("Highest education").
				Options(
					huh.NewOption("No degree", string(domain.EducationNone)),
					huh.NewOption("Bachelor's", string(domain.EducationBachelors)),
					huh.NewOption("Master's", string(domain.EducationMasters)),
					huh.NewOption("Doctorate", string(domain.EducationDoctorate)),
				).
				Value(&v.Education),
			huh.NewSelect[string]().
				Title("Years of experience").
				Options(
					huh.NewOption("0-2", string(domain.ExperienceUnder2)),
					huh.NewOption("2-5", string(domain.Experience2to5)),
					huh.NewOption("5-10", string(domain.Experience5to10)),
					huh.NewOption("10+", string(domain.Experience10Plus)),
				).
				Value(&v.Experience),
			huh.NewConfirm().Title("STEM field?").Value(&v.STEM),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Country of birth").
				Placeholder("India").
				Value(&v.Country),
			huh.NewConfirm().Title("Canadian or Mexican citizen?").Value(&v.CanadianOrMexican),
			huh.NewMultiSelect[string]().
				Title("Special circumstances").
				Options(
					huh.NewOption("Extraordinary ability", specialExtraordinary),
					huh.NewOption("Outstanding researcher", specialResearcher),
					huh.NewOption("Multinational executive or manager", specialExecutive),
					huh.NewOption("Married to a US citizen", specialMarried),
					huh.NewOption("Investment capital", specialInvestor),
				).
				Value(&v.Special),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Existing priority date (YYYY-MM, blank for none)").
				Placeholder("2019-05").
				Value(&v.PDDate).
				Validate(validateOptionalMonth),
			huh.NewInput().
				Title("Its category").
				Placeholder("EB-2").
				Value(&v.PDCategory).
				Validate(validateOptionalCategory),
			huh.NewConfirm().Title("Was that I-140 approved?").Value(&v.PDI140Approved),
		),
	).WithTheme(greenpathHuhTheme())
}
