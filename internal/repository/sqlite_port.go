package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/greenpath/internal/db"
	"github.com/alexanderramin/greenpath/internal/domain"
)

// SQLitePortRepo implements PortRepo using a SQLite database.
type SQLitePortRepo struct {
	db db.DBTX
}

// NewSQLitePortRepo creates a new SQLitePortRepo.
func NewSQLitePortRepo(conn db.DBTX) *SQLitePortRepo {
	return &SQLitePortRepo{db: conn}
}

func (r *SQLitePortRepo) Create(ctx context.Context, caseID string, p *domain.PortedPriorityDate) error {
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	query := `INSERT INTO ported_priority_dates (id, case_id, priority_date, from_category, i140_approved_on, withdrawn_on, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		caseID,
		p.PriorityDate.Raw(),
		string(p.FromCategory),
		p.I140ApprovedOn.Raw(),
		p.WithdrawnOn.Raw(),
		createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting ported priority date: %w", err)
	}
	return nil
}

func (r *SQLitePortRepo) ListByCase(ctx context.Context, caseID string) ([]domain.PortedPriorityDate, error) {
	query := `SELECT id, priority_date, from_category, i140_approved_on, withdrawn_on, created_at
		FROM ported_priority_dates WHERE case_id = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("listing ported priority dates: %w", err)
	}
	defer rows.Close()

	var out []domain.PortedPriorityDate
	for rows.Next() {
		var p domain.PortedPriorityDate
		var pd, category, approved, withdrawn, createdAt string
		if err := rows.Scan(&p.ID, &pd, &category, &approved, &withdrawn, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning ported priority date row: %w", err)
		}
		p.PriorityDate = domain.ParseOptionalDate(pd)
		p.FromCategory = domain.Category(category)
		p.I140ApprovedOn = domain.ParseOptionalDate(approved)
		p.WithdrawnOn = domain.ParseOptionalDate(withdrawn)
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			p.CreatedAt = t
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ported priority dates: %w", err)
	}
	return out, nil
}

func (r *SQLitePortRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ported_priority_dates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting ported priority date: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("ported priority date %s: %w", id, ErrNotFound)
	}
	return nil
}
