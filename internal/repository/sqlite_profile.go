package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/greenpath/internal/db"
	"github.com/alexanderramin/greenpath/internal/domain"
)

// SQLiteProfileRepo implements ProfileRepo using a SQLite database.
type SQLiteProfileRepo struct {
	db db.DBTX
}

// NewSQLiteProfileRepo creates a new SQLiteProfileRepo.
func NewSQLiteProfileRepo(conn db.DBTX) *SQLiteProfileRepo {
	return &SQLiteProfileRepo{db: conn}
}

func (r *SQLiteProfileRepo) Get(ctx context.Context) (*domain.Profile, error) {
	query := `SELECT id, status, education, experience, stem, country_of_birth, canadian_or_mexican,
		extraordinary_ability, outstanding_researcher, executive_manager, married_to_us_citizen,
		investment_capital, existing_pd, existing_pd_category, existing_pd_approved, updated_at
		FROM profiles WHERE id = 'default'`
	row := r.db.QueryRowContext(ctx, query)

	var p domain.Profile
	var status, education, experience, pdCategory, updatedAt string
	var stem, canMex, extraordinary, researcher, executive, married, investment, pdApproved int
	var existingPD sql.NullString
	err := row.Scan(
		&p.ID, &status, &education, &experience, &stem, &p.CountryOfBirth, &canMex,
		&extraordinary, &researcher, &executive, &married,
		&investment, &existingPD, &pdCategory, &pdApproved, &updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("profile: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning profile: %w", err)
	}

	p.Status = domain.ImmigrationStatus(status)
	p.Education = domain.Education(education)
	p.Experience = domain.Experience(experience)
	p.STEM = intToBool(stem)
	p.CanadianOrMexican = intToBool(canMex)
	p.Special = domain.SpecialCircumstances{
		ExtraordinaryAbility:  intToBool(extraordinary),
		OutstandingResearcher: intToBool(researcher),
		ExecutiveManager:      intToBool(executive),
		MarriedToUSCitizen:    intToBool(married),
		InvestmentCapital:     intToBool(investment),
	}
	if m, ok := scanMonth(existingPD); ok {
		p.ExistingPriorityDate = &domain.ExistingPriorityDate{
			Date:         m,
			Category:     domain.Category(pdCategory),
			I140Approved: intToBool(pdApproved),
		}
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		p.UpdatedAt = t
	}
	return &p, nil
}

func (r *SQLiteProfileRepo) Upsert(ctx context.Context, p *domain.Profile) error {
	var pdArg any // NULL when no priority date is recorded
	var pdCategory string
	var pdApproved bool
	if e := p.ExistingPriorityDate; e != nil {
		pdArg = monthArg(e.Date)
		pdCategory = string(e.Category)
		pdApproved = e.I140Approved
	}
	id := p.ID
	if id == "" {
		id = "default"
	}
	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	query := `INSERT OR REPLACE INTO profiles (id, status, education, experience, stem, country_of_birth,
		canadian_or_mexican, extraordinary_ability, outstanding_researcher, executive_manager,
		married_to_us_citizen, investment_capital, existing_pd, existing_pd_category, existing_pd_approved, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		id,
		string(p.Status),
		string(p.Education),
		string(p.Experience),
		boolToInt(p.STEM),
		p.CountryOfBirth,
		boolToInt(p.CanadianOrMexican),
		boolToInt(p.Special.ExtraordinaryAbility),
		boolToInt(p.Special.OutstandingResearcher),
		boolToInt(p.Special.ExecutiveManager),
		boolToInt(p.Special.MarriedToUSCitizen),
		boolToInt(p.Special.InvestmentCapital),
		pdArg,
		pdCategory,
		boolToInt(pdApproved),
		updatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}
	return nil
}
