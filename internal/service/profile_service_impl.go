package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/greenpath/internal/domain"
	"github.com/alexanderramin/greenpath/internal/repository"
)

type profileService struct {
	profiles repository.ProfileRepo
	observer UseCaseObserver
}

func NewProfileService(profiles repository.ProfileRepo, observers ...UseCaseObserver) ProfileService {
	return &profileService{profiles: profiles, observer: useCaseObserverOrNoop(observers)}
}

func (s *profileService) Get(ctx context.Context) (*domain.Profile, error) {
	p, err := s.profiles.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	return p, nil
}

func (s *profileService) Save(ctx context.Context, p *domain.Profile) (err error) {
	start := time.Now()
	defer func() { observe(ctx, s.observer, "save_profile", start, err, nil) }()

	if err := ValidateProfile(p); err != nil {
		return err
	}
	p.ID = "default"
	p.CountryOfBirth = strings.TrimSpace(p.CountryOfBirth)
	p.UpdatedAt = time.Now().UTC()
	if err := s.profiles.Upsert(ctx, p); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

// ValidateProfile checks enum fields and the existing priority date. Empty
// enums are filled with their defaults.
func ValidateProfile(p *domain.Profile) error {
	if p == nil {
		return &InputError{Field: "profile", Message: "is required"}
	}
	if p.Status == "" {
		p.Status = domain.StatusNone
	}
	if p.Education == "" {
		p.Education = domain.EducationBachelors
	}
	if p.Experience == "" {
		p.Experience = domain.ExperienceUnder2
	}
	if !domain.ValidStatuses[string(p.Status)] {
		return &InputError{Field: "status", Message: fmt.Sprintf("invalid value %q", p.Status)}
	}
	if !domain.ValidEducations[string(p.Education)] {
		return &InputError{Field: "education", Message: fmt.Sprintf("invalid value %q", p.Education)}
	}
	if !domain.ValidExperiences[string(p.Experience)] {
		return &InputError{Field: "experience", Message: fmt.Sprintf("invalid value %q", p.Experience)}
	}
	if e := p.ExistingPriorityDate; e != nil {
		cat, ok := domain.ParseCategory(string(e.Category))
		if !ok {
			return &InputError{Field: "existing_priority_date.category", Message: fmt.Sprintf("invalid value %q", e.Category)}
		}
		e.Category = cat
		if e.Date <= 0 {
			return &InputError{Field: "existing_priority_date.date", Message: "is required"}
		}
	}
	return nil
}
