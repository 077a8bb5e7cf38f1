package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/greenpath/internal/composer"
	"github.com/alexanderramin/greenpath/internal/domain"
	"github.com/alexanderramin/greenpath/internal/livedata"
	"github.com/alexanderramin/greenpath/internal/metrics"
	"github.com/alexanderramin/greenpath/internal/reconcile"
	"github.com/alexanderramin/greenpath/internal/testutil"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type projectionFixture struct {
	svc   ProjectionService
	cases CaseService
}

func newProjectionFixture(t *testing.T, snapshots SnapshotSource, opts ...ProjectionOption) projectionFixture {
	t.Helper()
	_, profiles, cases, uow := setupRepos(t)
	require.NoError(t, profiles.Upsert(context.Background(), testutil.NewTestProfile()))
	opts = append([]ProjectionOption{WithClock(func() time.Time { return testNow })}, opts...)
	return projectionFixture{
		svc:   NewProjectionService(profiles, cases, snapshots, opts...),
		cases: NewCaseService(cases, uow),
	}
}

func pathIDs(p *Projection) []string {
	out := make([]string, 0, len(p.Paths))
	for _, pp := range p.Paths {
		out = append(out, pp.Path.ID)
	}
	return out
}

func TestProject_StoredProfileWithDefaults(t *testing.T) {
	f := newProjectionFixture(t, defaultsProvider())

	proj, err := f.svc.Project(context.Background(), ProjectionRequest{})
	require.NoError(t, err)

	assert.Equal(t, domain.ChargeIndia, proj.Chargeability)
	assert.Equal(t, livedata.SourceDefaults, proj.SnapshotSource)
	assert.True(t, proj.Snapshot.UsingDefaults)
	assert.Equal(t, testNow, proj.ComputedAt)
	assert.Empty(t, proj.CaseID)

	ids := pathIDs(proj)
	assert.Contains(t, ids, "perm-eb2")
	assert.Contains(t, ids, "perm-eb3")
	for _, pp := range proj.Paths {
		assert.True(t, pp.Path.UsingDefaults, pp.Path.ID)
		assert.Nil(t, pp.Reconciled, "no case stored")
		assert.Equal(t, pp.Path.Category, pp.Velocity.Category)
		assert.Equal(t, domain.ChargeIndia, pp.Velocity.Chargeability)
	}
}

func TestProject_RequestProfileOverridesStored(t *testing.T) {
	f := newProjectionFixture(t, defaultsProvider())

	req := ProjectionRequest{Profile: &domain.Profile{
		CountryOfBirth:    "Canada",
		CanadianOrMexican: true,
		Special:           domain.SpecialCircumstances{MarriedToUSCitizen: true},
	}}
	proj, err := f.svc.Project(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, domain.ChargeAllOther, proj.Chargeability)
	ids := pathIDs(proj)
	assert.Contains(t, ids, "tn-perm")
	assert.Contains(t, ids, "marriage")
	assert.Equal(t, domain.StatusNone, proj.Profile.Status, "empty enums defaulted")
	assert.Empty(t, req.Profile.Status, "request profile is not mutated")
}

func TestProject_InvalidRequestProfile(t *testing.T) {
	f := newProjectionFixture(t, defaultsProvider())

	_, err := f.svc.Project(context.Background(), ProjectionRequest{Profile: &domain.Profile{Education: "phd"}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestProject_PathFilter(t *testing.T) {
	f := newProjectionFixture(t, defaultsProvider())
	ctx := context.Background()

	proj, err := f.svc.Project(ctx, ProjectionRequest{PathID: "perm-eb3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"perm-eb3"}, pathIDs(proj))

	_, err = f.svc.Project(ctx, ProjectionRequest{PathID: "eb1a"})
	assert.ErrorIs(t, err, ErrUnknownPath)
}

func TestProject_ReconcilesStoredCase(t *testing.T) {
	f := newProjectionFixture(t, defaultsProvider())
	ctx := context.Background()

	c, err := f.cases.SetMilestone(ctx, MilestoneInput{Key: "perm", Status: "filed", FiledOn: "2024-03-15"})
	require.NoError(t, err)

	proj, err := f.svc.Project(ctx, ProjectionRequest{PathID: "perm-eb2"})
	require.NoError(t, err)
	assert.Equal(t, c.ID, proj.CaseID)
	require.Len(t, proj.Paths, 1)

	r := proj.Paths[0].Reconciled
	require.NotNil(t, r)
	assert.Equal(t, reconcile.SourcePERM, r.PriorityDateSource)
	assert.Equal(t, domain.MonthAt(2024, time.March), r.EffectivePriorityDate)

	ignored, err := f.svc.Project(ctx, ProjectionRequest{PathID: "perm-eb2", IgnoreCase: true})
	require.NoError(t, err)
	assert.Nil(t, ignored.Paths[0].Reconciled)
	assert.Empty(t, ignored.CaseID)
}

func TestProject_RequestCaseOverridesStored(t *testing.T) {
	f := newProjectionFixture(t, defaultsProvider())

	c := testutil.NewTestCase(testutil.WithMilestone(domain.MilestonePERM, domain.MilestoneFiled, "2023-06-01", ""))
	proj, err := f.svc.Project(context.Background(), ProjectionRequest{PathID: "perm-eb2", Case: c})
	require.NoError(t, err)

	assert.Equal(t, c.ID, proj.CaseID)
	r := proj.Paths[0].Reconciled
	require.NotNil(t, r)
	assert.Equal(t, domain.MonthAt(2023, time.June), r.EffectivePriorityDate)
}

func TestProject_Deterministic(t *testing.T) {
	f := newProjectionFixture(t, defaultsProvider())
	req := ProjectionRequest{Options: composer.Options{Now: testNow, Premium: true}}

	first, err := f.svc.Project(context.Background(), req)
	require.NoError(t, err)
	second, err := f.svc.Project(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Paths, second.Paths)
	assert.Greater(t, second.Generation, first.Generation)
}

func TestProject_PublishesLatest(t *testing.T) {
	latest := &LatestResult{}
	f := newProjectionFixture(t, defaultsProvider(), WithLatest(latest))

	_, ok := f.svc.Latest()
	assert.False(t, ok)

	proj, err := f.svc.Project(context.Background(), ProjectionRequest{})
	require.NoError(t, err)

	got, ok := latest.Get()
	require.True(t, ok)
	assert.Same(t, proj, got)
}

func TestProject_SupersededRunIsDropped(t *testing.T) {
	latest := &LatestResult{}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	res, err := defaultsProvider().Snapshot(context.Background())
	require.NoError(t, err)
	slow := &stubSnapshots{res: res, delay: 100 * time.Millisecond}
	f := newProjectionFixture(t, slow, WithLatest(latest), WithMetrics(m))

	done := make(chan *Projection, 1)
	go func() {
		p, err := f.svc.Project(context.Background(), ProjectionRequest{})
		if err != nil {
			done <- nil
			return
		}
		done <- p
	}()

	// Start a newer run while the first is still loading.
	time.Sleep(20 * time.Millisecond)
	newer, err := f.svc.Project(context.Background(), ProjectionRequest{})
	require.NoError(t, err)
	older := <-done
	require.NotNil(t, older)

	got, ok := latest.Get()
	require.True(t, ok)
	assert.Same(t, newer, got)
	assert.Less(t, older.Generation, newer.Generation)
	assert.Equal(t, 1.0, promtest.ToFloat64(m.DroppedGenerations))
}

func TestProject_SnapshotErrorPropagates(t *testing.T) {
	f := newProjectionFixture(t, &stubSnapshots{err: context.Canceled})

	_, err := f.svc.Project(context.Background(), ProjectionRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestProjectionService_Velocity(t *testing.T) {
	f := newProjectionFixture(t, defaultsProvider())
	ctx := context.Background()

	eb2, err := f.svc.Velocity(ctx, domain.CategoryEB2, domain.ChargeIndia)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryEB2, eb2.Category)
	assert.False(t, eb2.IsCurrent)
	assert.Greater(t, eb2.RatePerYear, 0.0)

	eb5, err := f.svc.Velocity(ctx, domain.CategoryEB5, domain.ChargeIndia)
	require.NoError(t, err)
	assert.True(t, eb5.IsCurrent)
}

func TestProjectionService_StalenessFollowsClock(t *testing.T) {
	ctx := context.Background()

	fresh, err := newProjectionFixture(t, defaultsProvider()).svc.Velocity(ctx, domain.CategoryEB2, domain.ChargeIndia)
	require.NoError(t, err)

	// The default snapshot keeps its catalog date however late the clock runs.
	later := testNow.AddDate(2, 0, 0)
	f := newProjectionFixture(t, defaultsProvider(), WithClock(func() time.Time { return later }))
	stale, err := f.svc.Velocity(ctx, domain.CategoryEB2, domain.ChargeIndia)
	require.NoError(t, err)

	assert.InDelta(t, fresh.RatePerYear, stale.RatePerYear, 1e-9)
	assert.Less(t, stale.Confidence, fresh.Confidence)
	assert.True(t, stale.NeedsDisclosure)

	proj, err := f.svc.Project(ctx, ProjectionRequest{})
	require.NoError(t, err)
	for _, pp := range proj.Paths {
		if pp.Path.ID == "perm-eb2" {
			assert.InDelta(t, stale.Confidence, pp.Velocity.Confidence, 1e-9)
		}
	}
}
