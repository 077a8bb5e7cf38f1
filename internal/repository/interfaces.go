package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/greenpath/internal/domain"
)

type ProfileRepo interface {
	Get(ctx context.Context) (*domain.Profile, error)
	Upsert(ctx context.Context, p *domain.Profile) error
}

type CaseRepo interface {
	Create(ctx context.Context, c *domain.TrackedCase) error
	GetByID(ctx context.Context, id string) (*domain.TrackedCase, error)
	// Latest returns the most recently updated case.
	Latest(ctx context.Context) (*domain.TrackedCase, error)
	Touch(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

type MilestoneRepo interface {
	Upsert(ctx context.Context, caseID string, m domain.Milestone) error
	ListByCase(ctx context.Context, caseID string) (map[domain.MilestoneKey]domain.Milestone, error)
	DeleteByCase(ctx context.Context, caseID string) error
}

type PortRepo interface {
	Create(ctx context.Context, caseID string, p *domain.PortedPriorityDate) error
	ListByCase(ctx context.Context, caseID string) ([]domain.PortedPriorityDate, error)
	Delete(ctx context.Context, id string) error
}

// CachedSnapshot is a raw live-data payload with its fetch time.
type CachedSnapshot struct {
	Key       string
	Payload   []byte
	FetchedAt time.Time
}

type SnapshotCacheRepo interface {
	Get(ctx context.Context, key string) (*CachedSnapshot, error)
	Put(ctx context.Context, s CachedSnapshot) error
	Delete(ctx context.Context, key string) error
}
