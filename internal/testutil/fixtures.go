package testutil

import (
	"time"

	"github.com/alexanderramin/greenpath/internal/domain"
	"github.com/google/uuid"
)

// Profile options
type ProfileOption func(*domain.Profile)

func WithStatus(s domain.ImmigrationStatus) ProfileOption {
	return func(p *domain.Profile) {
		p.Status = s
	}
}

func WithEducation(e domain.Education, x domain.Experience) ProfileOption {
	return func(p *domain.Profile) {
		p.Education = e
		p.Experience = x
	}
}

func WithCountry(c string) ProfileOption {
	return func(p *domain.Profile) {
		p.CountryOfBirth = c
	}
}

func WithSTEM() ProfileOption {
	return func(p *domain.Profile) {
		p.STEM = true
	}
}

func WithSpecial(s domain.SpecialCircumstances) ProfileOption {
	return func(p *domain.Profile) {
		p.Special = s
	}
}

func WithExistingPriorityDate(m domain.MonthIndex, cat domain.Category, approved bool) ProfileOption {
	return func(p *domain.Profile) {
		p.ExistingPriorityDate = &domain.ExistingPriorityDate{Date: m, Category: cat, I140Approved: approved}
	}
}

// NewTestProfile returns an H-1B holder with a master's, born in India.
func NewTestProfile(opts ...ProfileOption) *domain.Profile {
	p := &domain.Profile{
		ID:             "default",
		Status:         domain.StatusH1B,
		Education:      domain.EducationMasters,
		Experience:     domain.Experience2to5,
		CountryOfBirth: "India",
		UpdatedAt:      time.Now().UTC().Truncate(time.Second),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Case options
type CaseOption func(*domain.TrackedCase)

func WithLabel(l string) CaseOption {
	return func(c *domain.TrackedCase) {
		c.Label = l
	}
}

// WithMilestone records a milestone. Dates are raw user input.
func WithMilestone(key domain.MilestoneKey, status domain.MilestoneStatus, filed, approved string) CaseOption {
	return func(c *domain.TrackedCase) {
		c.Milestones[key] = domain.Milestone{
			Key:      key,
			Status:   status,
			Filed:    domain.ParseOptionalDate(filed),
			Approved: domain.ParseOptionalDate(approved),
		}
	}
}

// WithPort adds a ported priority date. Dates are raw user input.
func WithPort(pd string, from domain.Category, approvedOn, withdrawnOn string) CaseOption {
	return func(c *domain.TrackedCase) {
		c.Ports = append(c.Ports, domain.PortedPriorityDate{
			ID:             uuid.New().String(),
			PriorityDate:   domain.ParseOptionalDate(pd),
			FromCategory:   from,
			I140ApprovedOn: domain.ParseOptionalDate(approvedOn),
			WithdrawnOn:    domain.ParseOptionalDate(withdrawnOn),
			CreatedAt:      time.Now().UTC().Truncate(time.Second),
		})
	}
}

func NewTestCase(opts ...CaseOption) *domain.TrackedCase {
	now := time.Now().UTC().Truncate(time.Second)
	c := &domain.TrackedCase{
		ID:         uuid.New().String(),
		Milestones: make(map[domain.MilestoneKey]domain.Milestone),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
