package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/greenpath/internal/catalog"
	"github.com/alexanderramin/greenpath/internal/composer"
	"github.com/alexanderramin/greenpath/internal/domain"
	"github.com/alexanderramin/greenpath/internal/eligibility"
	"github.com/alexanderramin/greenpath/internal/livedata"
	"github.com/alexanderramin/greenpath/internal/metrics"
	"github.com/alexanderramin/greenpath/internal/reconcile"
	"github.com/alexanderramin/greenpath/internal/repository"
	"github.com/alexanderramin/greenpath/internal/velocity"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type projectionService struct {
	profiles  repository.ProfileRepo
	cases     repository.CaseRepo
	snapshots SnapshotSource
	catalog   *catalog.Catalog
	window    int
	model     *velocity.Model
	latest    *LatestResult
	metrics   *metrics.Metrics
	log       *zap.Logger
	observer  UseCaseObserver
	now       func() time.Time
}

// ProjectionOption configures the projection service.
type ProjectionOption func(*projectionService)

// WithCatalog replaces the embedded catalog.
func WithCatalog(c *catalog.Catalog) ProjectionOption {
	return func(s *projectionService) { s.catalog = c }
}

// WithVelocityWindow sets how many recent bulletins the rate fit uses.
func WithVelocityWindow(n int) ProjectionOption {
	return func(s *projectionService) { s.window = n }
}

// WithLatest shares a LatestResult holder with other readers.
func WithLatest(l *LatestResult) ProjectionOption {
	return func(s *projectionService) { s.latest = l }
}

func WithMetrics(m *metrics.Metrics) ProjectionOption {
	return func(s *projectionService) { s.metrics = m }
}

func WithLogger(log *zap.Logger) ProjectionOption {
	return func(s *projectionService) { s.log = log }
}

func WithObserver(obs UseCaseObserver) ProjectionOption {
	return func(s *projectionService) { s.observer = obs }
}

// WithClock overrides the time source used when a request carries no Now.
func WithClock(now func() time.Time) ProjectionOption {
	return func(s *projectionService) { s.now = now }
}

func NewProjectionService(profiles repository.ProfileRepo, cases repository.CaseRepo, snapshots SnapshotSource, opts ...ProjectionOption) ProjectionService {
	s := &projectionService{
		profiles:  profiles,
		cases:     cases,
		snapshots: snapshots,
		catalog:   catalog.Default(),
		window:    velocity.DefaultWindow,
		log:       zap.NewNop(),
		observer:  NoopUseCaseObserver{},
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.latest == nil {
		s.latest = &LatestResult{}
	}
	s.model = velocity.NewModel(s.catalog.HistoryAll(), s.window)
	return s
}

// projectionInputs bundles everything loaded for one projection cycle.
type projectionInputs struct {
	profile  domain.Profile
	tracked  *domain.TrackedCase
	snapshot livedata.Result
}

// Project runs the pipeline: load, resolve, estimate, compose, reconcile.
// The result is published to Latest unless a newer run has started; either
// way it is returned to the caller.
func (s *projectionService) Project(ctx context.Context, req ProjectionRequest) (proj *Projection, err error) {
	start := time.Now()
	defer func() {
		fields := map[string]any{}
		if proj != nil {
			fields["paths"] = len(proj.Paths)
			fields["generation"] = proj.Generation
		}
		observe(ctx, s.observer, "project_paths", start, err, fields)
	}()

	gen := s.latest.Begin()

	in, err := s.load(ctx, req)
	if err != nil {
		return nil, err
	}

	opts := req.Options
	if opts.Now.IsZero() {
		opts.Now = s.now()
	}
	ch := in.profile.Chargeability()
	snap := in.snapshot.Snapshot

	admissible := eligibility.Resolve(in.profile)
	if req.PathID != "" {
		admissible = filterAdmissible(admissible, req.PathID)
		if len(admissible) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPath, req.PathID)
		}
	}

	proj = &Projection{
		Generation:     gen,
		Profile:        in.profile,
		Chargeability:  ch,
		Snapshot:       snap,
		SnapshotSource: in.snapshot.Source,
		ComputedAt:     opts.Now,
	}
	if in.tracked != nil {
		proj.CaseID = in.tracked.ID
	}

	for _, a := range admissible {
		vel := s.model.Estimate(a.Category, ch, snap.FinalAction.Lookup(a.Category, ch), opts.Now)
		path, err := composer.Compose(composer.Input{
			Admissible:    a,
			Chargeability: ch,
			Snapshot:      snap,
			Velocity:      vel,
			Options:       opts,
			Catalog:       s.catalog,
		})
		if err != nil {
			return nil, fmt.Errorf("composing %s: %w", a.TemplateID, err)
		}
		pp := PathProjection{Path: path, Velocity: vel}
		if in.tracked != nil {
			r := reconcile.Reconcile(reconcile.Input{
				Path:          path,
				Case:          in.tracked,
				Chargeability: ch,
				Snapshot:      snap,
				Velocity:      vel,
				Now:           opts.Now,
				Catalog:       s.catalog,
			})
			pp.Reconciled = &r
		}
		proj.Paths = append(proj.Paths, pp)
	}

	s.metrics.ObserveProjection(time.Since(start), len(proj.Paths))
	if !s.latest.Publish(gen, proj) {
		s.metrics.IncrementDropped()
		s.log.Debug("projection superseded", zap.Uint64("generation", gen))
	}
	return proj, nil
}

// load fetches profile, case and snapshot concurrently.
func (s *projectionService) load(ctx context.Context, req ProjectionRequest) (*projectionInputs, error) {
	in := &projectionInputs{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if req.Profile != nil {
			p := *req.Profile
			if err := ValidateProfile(&p); err != nil {
				return err
			}
			in.profile = p
			return nil
		}
		p, err := s.profiles.Get(gctx)
		if err != nil {
			return fmt.Errorf("loading profile: %w", err)
		}
		in.profile = *p
		return nil
	})

	g.Go(func() error {
		switch {
		case req.IgnoreCase:
			return nil
		case req.Case != nil:
			in.tracked = req.Case
			return nil
		}
		c, err := s.cases.Latest(gctx)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("loading tracked case: %w", err)
		}
		in.tracked = c
		return nil
	})

	g.Go(func() error {
		res, err := s.snapshots.Snapshot(gctx)
		if err != nil {
			return fmt.Errorf("loading snapshot: %w", err)
		}
		s.metrics.IncrementSnapshotSource(string(res.Source))
		in.snapshot = res
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return in, nil
}

func (s *projectionService) Velocity(ctx context.Context, cat domain.Category, ch domain.Chargeability) (velocity.Result, error) {
	res, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return velocity.Result{}, fmt.Errorf("loading snapshot: %w", err)
	}
	return s.model.Estimate(cat, ch, res.Snapshot.FinalAction.Lookup(cat, ch), s.now()), nil
}

func (s *projectionService) Latest() (*Projection, bool) {
	return s.latest.Get()
}

func filterAdmissible(as []eligibility.Admissible, id string) []eligibility.Admissible {
	for _, a := range as {
		if a.TemplateID == id {
			return []eligibility.Admissible{a}
		}
	}
	return nil
}
