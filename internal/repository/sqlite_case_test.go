package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/greenpath/internal/domain"
	"github.com/alexanderramin/greenpath/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaseRepo_CreateAndGet_HydratesMilestonesAndPorts(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	cases := NewSQLiteCaseRepo(db)
	milestones := NewSQLiteMilestoneRepo(db)
	ports := NewSQLitePortRepo(db)

	c := testutil.NewTestCase(
		testutil.WithLabel("main"),
		testutil.WithMilestone(domain.MilestonePERM, domain.MilestoneApproved, "2023-02-10", "2024-01-05"),
		testutil.WithMilestone(domain.MilestoneI140, domain.MilestoneFiled, "03/01/2024", ""),
		testutil.WithPort("2016-05", domain.CategoryEB3, "2017-01-10", ""),
	)
	require.NoError(t, cases.Create(ctx, c))
	for _, m := range c.Milestones {
		require.NoError(t, milestones.Upsert(ctx, c.ID, m))
	}
	for i := range c.Ports {
		require.NoError(t, ports.Create(ctx, c.ID, &c.Ports[i]))
	}

	got, err := cases.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "main", got.Label)
	require.Len(t, got.Milestones, 2)

	perm := got.Milestones[domain.MilestonePERM]
	assert.Equal(t, domain.MilestoneApproved, perm.Status)
	filed, ok := perm.Filed.Get()
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, time.February, 10, 0, 0, 0, 0, time.UTC), filed)

	i140 := got.Milestones[domain.MilestoneI140]
	assert.Equal(t, "03/01/2024", i140.Filed.Raw())
	assert.False(t, i140.Approved.IsSet())

	require.Len(t, got.Ports, 1)
	m, ok := got.Ports[0].PriorityDate.Month()
	require.True(t, ok)
	assert.Equal(t, domain.MonthAt(2016, time.May), m)
	assert.Equal(t, domain.CategoryEB3, got.Ports[0].FromCategory)
	assert.False(t, got.Ports[0].WithdrawnOn.IsSet())
}

func TestMilestoneRepo_MalformedDateSurvivesAsInvalid(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	cases := NewSQLiteCaseRepo(db)
	milestones := NewSQLiteMilestoneRepo(db)

	c := testutil.NewTestCase()
	require.NoError(t, cases.Create(ctx, c))
	require.NoError(t, milestones.Upsert(ctx, c.ID, domain.Milestone{
		Key:     domain.MilestoneI485,
		Status:  domain.MilestoneFiled,
		Filed:   domain.ParseOptionalDate("sometime in spring"),
		Receipt: domain.ParseReceipt("msc123"),
	}))

	got, err := milestones.ListByCase(ctx, c.ID)
	require.NoError(t, err)
	m := got[domain.MilestoneI485]
	assert.True(t, m.Filed.IsInvalid())
	assert.Equal(t, "sometime in spring", m.Filed.Raw())
	assert.True(t, m.Receipt.IsSet())
	assert.False(t, m.Receipt.IsValid())
}

func TestMilestoneRepo_Upsert_ReplacesExisting(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	cases := NewSQLiteCaseRepo(db)
	milestones := NewSQLiteMilestoneRepo(db)

	c := testutil.NewTestCase()
	require.NoError(t, cases.Create(ctx, c))

	require.NoError(t, milestones.Upsert(ctx, c.ID, domain.Milestone{Key: domain.MilestoneI140, Status: domain.MilestoneFiled, Filed: domain.ParseOptionalDate("2024-03-01")}))
	require.NoError(t, milestones.Upsert(ctx, c.ID, domain.Milestone{
		Key:          domain.MilestoneI140,
		Status:       domain.MilestoneApproved,
		Filed:        domain.ParseOptionalDate("2024-03-01"),
		Approved:     domain.ParseOptionalDate("2024-09-12"),
		Receipt:      domain.ParseReceipt("LIN2490123456"),
		PriorityDate: domain.ParseOptionalDate("2023-02-10"),
	}))

	got, err := milestones.ListByCase(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	m := got[domain.MilestoneI140]
	assert.Equal(t, domain.MilestoneApproved, m.Status)
	assert.True(t, m.Approved.IsValid())
	r, ok := m.Receipt.Get()
	assert.True(t, ok)
	assert.Equal(t, "LIN2490123456", r)
	pd, ok := m.PriorityDate.Month()
	require.True(t, ok)
	assert.Equal(t, domain.MonthAt(2023, time.February), pd)
}

func TestMilestoneRepo_Upsert_RequiresExistingCase(t *testing.T) {
	db := testutil.NewTestDB(t)
	milestones := NewSQLiteMilestoneRepo(db)

	err := milestones.Upsert(context.Background(), "missing", domain.Milestone{Key: domain.MilestonePWD, Status: domain.MilestoneFiled})
	assert.Error(t, err, "foreign key should reject an unknown case")
}

func TestCaseRepo_Latest_ReturnsMostRecentlyTouched(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	cases := NewSQLiteCaseRepo(db)

	older := testutil.NewTestCase(testutil.WithLabel("older"))
	newer := testutil.NewTestCase(testutil.WithLabel("newer"))
	newer.CreatedAt = older.CreatedAt.Add(time.Minute)
	newer.UpdatedAt = newer.CreatedAt
	require.NoError(t, cases.Create(ctx, older))
	require.NoError(t, cases.Create(ctx, newer))

	got, err := cases.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "newer", got.Label)

	require.NoError(t, cases.Touch(ctx, older.ID, newer.UpdatedAt.Add(time.Hour)))
	got, err = cases.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "older", got.Label)
}

func TestCaseRepo_Latest_NotFoundWhenEmpty(t *testing.T) {
	db := testutil.NewTestDB(t)

	_, err := NewSQLiteCaseRepo(db).Latest(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCaseRepo_Touch_UnknownCase(t *testing.T) {
	db := testutil.NewTestDB(t)

	err := NewSQLiteCaseRepo(db).Touch(context.Background(), "missing", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCaseRepo_Delete_CascadesToMilestonesAndPorts(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	cases := NewSQLiteCaseRepo(db)
	milestones := NewSQLiteMilestoneRepo(db)
	ports := NewSQLitePortRepo(db)

	c := testutil.NewTestCase(testutil.WithPort("2018-01", domain.CategoryEB2, "2018-06-01", ""))
	require.NoError(t, cases.Create(ctx, c))
	require.NoError(t, milestones.Upsert(ctx, c.ID, domain.Milestone{Key: domain.MilestonePWD, Status: domain.MilestoneApproved}))
	require.NoError(t, ports.Create(ctx, c.ID, &c.Ports[0]))

	require.NoError(t, cases.Delete(ctx, c.ID))

	_, err := cases.GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	ms, err := milestones.ListByCase(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, ms)
	ps, err := ports.ListByCase(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, ps)
}

func TestPortRepo_Delete_UnknownID(t *testing.T) {
	db := testutil.NewTestDB(t)

	err := NewSQLitePortRepo(db).Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
