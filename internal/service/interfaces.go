package service

import (
	"context"
	"time"

	"github.com/alexanderramin/greenpath/internal/casestatus"
	"github.com/alexanderramin/greenpath/internal/composer"
	"github.com/alexanderramin/greenpath/internal/domain"
	"github.com/alexanderramin/greenpath/internal/importer"
	"github.com/alexanderramin/greenpath/internal/livedata"
	"github.com/alexanderramin/greenpath/internal/reconcile"
	"github.com/alexanderramin/greenpath/internal/velocity"
)

type ProfileService interface {
	Get(ctx context.Context) (*domain.Profile, error)
	Save(ctx context.Context, p *domain.Profile) error
}

// MilestoneInput is one milestone as the user entered it. Dates stay raw so
// a malformed value is kept and read as absent.
type MilestoneInput struct {
	Key          string
	Status       string
	FiledOn      string
	ApprovedOn   string
	Receipt      string
	PriorityDate string
}

// PortInput is a ported priority date as the user entered it.
type PortInput struct {
	PriorityDate   string
	FromCategory   string
	I140ApprovedOn string
	WithdrawnOn    string
}

// ImportResult holds the outcome of a case import.
type ImportResult struct {
	Case           *domain.TrackedCase
	Replaced       string
	MilestoneCount int
	PortCount      int
}

type CaseService interface {
	// Active returns the most recently updated case or ErrNoActiveCase.
	Active(ctx context.Context) (*domain.TrackedCase, error)
	SetMilestone(ctx context.Context, in MilestoneInput) (*domain.TrackedCase, error)
	AddPort(ctx context.Context, in PortInput) (*domain.TrackedCase, error)
	RemovePort(ctx context.Context, id string) error
	Import(ctx context.Context, doc *importer.CaseImport) (*ImportResult, error)
	ImportFile(ctx context.Context, path string) (*ImportResult, error)
	Reset(ctx context.Context) error
}

type SnapshotService interface {
	Current(ctx context.Context) (livedata.Result, error)
	Refresh(ctx context.Context) (livedata.Result, error)
}

// ReceiptStatus is the lookup outcome for one tracked milestone.
type ReceiptStatus struct {
	Milestone domain.MilestoneKey
	Receipt   string
	Result    *casestatus.Result
	Err       error
}

type CaseStatusService interface {
	Lookup(ctx context.Context, receipt string) (*casestatus.Result, error)
	// CheckCase looks up every valid receipt on the active case.
	CheckCase(ctx context.Context) ([]ReceiptStatus, error)
}

// ProjectionRequest selects the inputs of one projection. Nil fields fall
// back to the stored profile and the active tracked case.
type ProjectionRequest struct {
	Profile *domain.Profile
	Case    *domain.TrackedCase
	// IgnoreCase skips reconciliation even when a case is stored.
	IgnoreCase bool
	Options    composer.Options
	// PathID restricts the projection to one template.
	PathID string
}

// PathProjection is one composed path with its reconciliation.
type PathProjection struct {
	Path     *domain.ComposedPath
	Velocity velocity.Result
	// Reconciled is nil when no case was available.
	Reconciled *reconcile.Result
}

// Projection is the full output of one pipeline run.
type Projection struct {
	Generation     uint64
	Profile        domain.Profile
	Chargeability  domain.Chargeability
	Snapshot       domain.Snapshot
	SnapshotSource livedata.Source
	CaseID         string
	Paths          []PathProjection
	ComputedAt     time.Time
}

type ProjectionService interface {
	Project(ctx context.Context, req ProjectionRequest) (*Projection, error)
	Velocity(ctx context.Context, cat domain.Category, ch domain.Chargeability) (velocity.Result, error)
	// Latest returns the newest published projection.
	Latest() (*Projection, bool)
}
