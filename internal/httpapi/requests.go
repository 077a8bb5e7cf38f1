package httpapi

import (
	"fmt"
	"time"

	"github.com/alexanderramin/greenpath/internal/composer"
	"github.com/alexanderramin/greenpath/internal/domain"
	"github.com/alexanderramin/greenpath/internal/importer"
	"github.com/alexanderramin/greenpath/internal/service"
)

// ProfileRequest is the JSON shape of an applicant profile.
type ProfileRequest struct {
	Status            string                       `json:"status"`
	Education         string                       `json:"education"`
	Experience        string                       `json:"experience"`
	STEM              bool                         `json:"stem"`
	CountryOfBirth    string                       `json:"country_of_birth"`
	CanadianOrMexican bool                         `json:"canadian_or_mexican"`
	Special           SpecialRequest               `json:"special"`
	ExistingPD        *ExistingPriorityDateRequest `json:"existing_priority_date,omitempty"`
}

type SpecialRequest struct {
	ExtraordinaryAbility  bool `json:"extraordinary_ability"`
	OutstandingResearcher bool `json:"outstanding_researcher"`
	ExecutiveManager      bool `json:"executive_manager"`
	MarriedToUSCitizen    bool `json:"married_to_us_citizen"`
	InvestmentCapital     bool `json:"investment_capital"`
}

// ExistingPriorityDateRequest carries the date as "2006-01" or any accepted
// date layout.
type ExistingPriorityDateRequest struct {
	Date         string `json:"date"`
	Category     string `json:"category"`
	I140Approved bool   `json:"i140_approved"`
}

// PathsRequest is the body of POST /v1/paths. Every field is optional.
type PathsRequest struct {
	Profile         *ProfileRequest `json:"profile,omitempty"`
	Premium         bool            `json:"premium"`
	AssumePERMAudit bool            `json:"assume_perm_audit"`
	PathID          string          `json:"path_id,omitempty"`
	IgnoreCase      bool            `json:"ignore_case"`
}

// ReconcileRequest is the body of POST /v1/reconcile. A missing case uses
// the stored one.
type ReconcileRequest struct {
	PathsRequest
	Case *importer.CaseImport `json:"case,omitempty"`
}

func (p *ProfileRequest) toDomain() (*domain.Profile, error) {
	out := &domain.Profile{
		Status:            domain.ImmigrationStatus(p.Status),
		Education:         domain.Education(p.Education),
		Experience:        domain.Experience(p.Experience),
		STEM:              p.STEM,
		CountryOfBirth:    p.CountryOfBirth,
		CanadianOrMexican: p.CanadianOrMexican,
		Special: domain.SpecialCircumstances{
			ExtraordinaryAbility:  p.Special.ExtraordinaryAbility,
			OutstandingResearcher: p.Special.OutstandingResearcher,
			ExecutiveManager:      p.Special.ExecutiveManager,
			MarriedToUSCitizen:    p.Special.MarriedToUSCitizen,
			InvestmentCapital:     p.Special.InvestmentCapital,
		},
	}
	if e := p.ExistingPD; e != nil {
		m, ok := domain.ParseOptionalDate(e.Date).Month()
		if !ok {
			return nil, badRequest("profile.existing_priority_date.date", fmt.Sprintf("invalid date %q", e.Date))
		}
		out.ExistingPriorityDate = &domain.ExistingPriorityDate{
			Date:         m,
			Category:     domain.Category(e.Category),
			I140Approved: e.I140Approved,
		}
	}
	return out, nil
}

func (r PathsRequest) toService() (service.ProjectionRequest, error) {
	req := service.ProjectionRequest{
		IgnoreCase: r.IgnoreCase,
		PathID:     r.PathID,
		Options: composer.Options{
			Premium:         r.Premium,
			AssumePERMAudit: r.AssumePERMAudit,
		},
	}
	if r.Profile != nil {
		p, err := r.Profile.toDomain()
		if err != nil {
			return req, err
		}
		req.Profile = p
	}
	return req, nil
}

func (r ReconcileRequest) toService(now time.Time) (service.ProjectionRequest, error) {
	req, err := r.PathsRequest.toService()
	if err != nil {
		return req, err
	}
	req.IgnoreCase = false
	if r.Case != nil {
		if errs := importer.ValidateCaseImport(r.Case); len(errs) > 0 {
			return req, badRequest("case", errs[0].Error())
		}
		req.Case = importer.Convert(r.Case, now)
	}
	return req, nil
}
