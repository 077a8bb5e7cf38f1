package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/greenpath/internal/db"
	"github.com/alexanderramin/greenpath/internal/domain"
)

// SQLiteMilestoneRepo stores milestones with their dates as entered; parsing
// happens on read so malformed input survives a round trip as Invalid.
type SQLiteMilestoneRepo struct {
	db db.DBTX
}

// NewSQLiteMilestoneRepo creates a new SQLiteMilestoneRepo.
func NewSQLiteMilestoneRepo(conn db.DBTX) *SQLiteMilestoneRepo {
	return &SQLiteMilestoneRepo{db: conn}
}

func (r *SQLiteMilestoneRepo) Upsert(ctx context.Context, caseID string, m domain.Milestone) error {
	updatedAt := m.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	status := m.Status
	if status == "" {
		status = domain.MilestoneNotStarted
	}
	query := `INSERT INTO milestones (case_id, key, status, filed_on, approved_on, receipt, priority_date, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(case_id, key) DO UPDATE SET
			status = excluded.status,
			filed_on = excluded.filed_on,
			approved_on = excluded.approved_on,
			receipt = excluded.receipt,
			priority_date = excluded.priority_date,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		caseID,
		string(m.Key),
		string(status),
		m.Filed.Raw(),
		m.Approved.Raw(),
		m.Receipt.Raw(),
		m.PriorityDate.Raw(),
		updatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting milestone %s: %w", m.Key, err)
	}
	return nil
}

func (r *SQLiteMilestoneRepo) ListByCase(ctx context.Context, caseID string) (map[domain.MilestoneKey]domain.Milestone, error) {
	query := `SELECT key, status, filed_on, approved_on, receipt, priority_date, updated_at
		FROM milestones WHERE case_id = ?`
	rows, err := r.db.QueryContext(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("listing milestones: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.MilestoneKey]domain.Milestone)
	for rows.Next() {
		var key, status, filed, approved, receipt, pd, updatedAt string
		if err := rows.Scan(&key, &status, &filed, &approved, &receipt, &pd, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning milestone row: %w", err)
		}
		m := domain.Milestone{
			Key:          domain.MilestoneKey(key),
			Status:       domain.MilestoneStatus(status),
			Filed:        domain.ParseOptionalDate(filed),
			Approved:     domain.ParseOptionalDate(approved),
			Receipt:      domain.ParseReceipt(receipt),
			PriorityDate: domain.ParseOptionalDate(pd),
		}
		if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
			m.UpdatedAt = t
		}
		out[m.Key] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating milestones: %w", err)
	}
	return out, nil
}

func (r *SQLiteMilestoneRepo) DeleteByCase(ctx context.Context, caseID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM milestones WHERE case_id = ?`, caseID)
	if err != nil {
		return fmt.Errorf("deleting milestones: %w", err)
	}
	return nil
}
