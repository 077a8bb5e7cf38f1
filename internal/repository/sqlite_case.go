package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/greenpath/internal/db"
	"github.com/alexanderramin/greenpath/internal/domain"
)

// SQLiteCaseRepo implements CaseRepo. Reads hydrate milestones and ports.
type SQLiteCaseRepo struct {
	db         db.DBTX
	milestones *SQLiteMilestoneRepo
	ports      *SQLitePortRepo
}

// NewSQLiteCaseRepo creates a new SQLiteCaseRepo.
func NewSQLiteCaseRepo(conn db.DBTX) *SQLiteCaseRepo {
	return &SQLiteCaseRepo{
		db:         conn,
		milestones: NewSQLiteMilestoneRepo(conn),
		ports:      NewSQLitePortRepo(conn),
	}
}

func (r *SQLiteCaseRepo) Create(ctx context.Context, c *domain.TrackedCase) error {
	query := `INSERT INTO tracked_cases (id, label, created_at, updated_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.Label,
		c.CreatedAt.UTC().Format(time.RFC3339),
		c.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting tracked case: %w", err)
	}
	return nil
}

func (r *SQLiteCaseRepo) GetByID(ctx context.Context, id string) (*domain.TrackedCase, error) {
	query := `SELECT id, label, created_at, updated_at FROM tracked_cases WHERE id = ?`
	return r.load(ctx, r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteCaseRepo) Latest(ctx context.Context) (*domain.TrackedCase, error) {
	query := `SELECT id, label, created_at, updated_at FROM tracked_cases
		ORDER BY updated_at DESC, created_at DESC LIMIT 1`
	return r.load(ctx, r.db.QueryRowContext(ctx, query))
}

func (r *SQLiteCaseRepo) Touch(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tracked_cases SET updated_at = ? WHERE id = ?`,
		at.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("touching tracked case: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("tracked case %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteCaseRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tracked_cases WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting tracked case: %w", err)
	}
	return nil
}

func (r *SQLiteCaseRepo) load(ctx context.Context, row *sql.Row) (*domain.TrackedCase, error) {
	var c domain.TrackedCase
	var createdAt, updatedAt string
	if err := row.Scan(&c.ID, &c.Label, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("tracked case: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning tracked case: %w", err)
	}

	var parseErr error
	c.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	c.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}

	ms, err := r.milestones.ListByCase(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Milestones = ms
	ports, err := r.ports.ListByCase(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Ports = ports
	return &c, nil
}
