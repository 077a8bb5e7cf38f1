package domain

import (
	"strings"
	"time"
)

// SpecialCircumstances are the boolean facts that unlock non-default paths.
type SpecialCircumstances struct {
	ExtraordinaryAbility  bool
	OutstandingResearcher bool
	ExecutiveManager      bool
	MarriedToUSCitizen    bool
	InvestmentCapital     bool
}

// ExistingPriorityDate is a priority date the applicant already holds.
type ExistingPriorityDate struct {
	Date         MonthIndex
	Category     Category
	I140Approved bool
}

// Profile is the applicant filter state. It is treated as immutable for the
// duration of a computation.
type Profile struct {
	ID                   string
	Status               ImmigrationStatus
	Education            Education
	Experience           Experience
	STEM                 bool
	CountryOfBirth       string
	CanadianOrMexican    bool
	Special              SpecialCircumstances
	ExistingPriorityDate *ExistingPriorityDate
	UpdatedAt            time.Time
}

// Chargeability maps the country of birth to its bulletin column.
func (p Profile) Chargeability() Chargeability {
	if c, ok := ParseChargeability(p.CountryOfBirth); ok && c != ChargeAllOther {
		return c
	}
	return ChargeAllOther
}

// TNEligible reports Canadian or Mexican nationality by birth or flag.
func (p Profile) TNEligible() bool {
	if p.CanadianOrMexican {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(p.CountryOfBirth)) {
	case "canada", "ca", "mexico", "mx":
		return true
	}
	return false
}

// HasAdvancedDegree is a master's or higher, or a bachelor's plus five years.
func (p Profile) HasAdvancedDegree() bool {
	switch p.Education {
	case EducationMasters, EducationDoctorate:
		return true
	case EducationBachelors:
		return p.Experience.AtLeastYears(5)
	}
	return false
}

// HasSkilledBackground is a bachelor's or at least two years of experience.
func (p Profile) HasSkilledBackground() bool {
	if p.Education == EducationBachelors || p.HasAdvancedDegree() {
		return true
	}
	return p.Experience.AtLeastYears(2)
}
