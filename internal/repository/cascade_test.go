package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/greenpath/internal/domain"
	"github.com/alexanderramin/greenpath/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCascadeDelete_LeavesOtherCasesIntact verifies that deleting one case
// only removes its own milestones and ports.
func TestCascadeDelete_LeavesOtherCasesIntact(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	cases := NewSQLiteCaseRepo(db)
	milestones := NewSQLiteMilestoneRepo(db)
	ports := NewSQLitePortRepo(db)

	doomed := testutil.NewTestCase(testutil.WithPort("2015-03", domain.CategoryEB3, "", ""))
	kept := testutil.NewTestCase(testutil.WithPort("2017-09", domain.CategoryEB2, "2018-02-01", ""))
	for _, c := range []*domain.TrackedCase{doomed, kept} {
		require.NoError(t, cases.Create(ctx, c))
		require.NoError(t, milestones.Upsert(ctx, c.ID, domain.Milestone{Key: domain.MilestonePERM, Status: domain.MilestoneFiled}))
		require.NoError(t, ports.Create(ctx, c.ID, &c.Ports[0]))
	}

	require.NoError(t, cases.Delete(ctx, doomed.ID))

	got, err := cases.GetByID(ctx, kept.ID)
	require.NoError(t, err)
	assert.Len(t, got.Milestones, 1)
	require.Len(t, got.Ports, 1)
	assert.Equal(t, kept.Ports[0].ID, got.Ports[0].ID)
}

// TestMilestoneRepo_DeleteByCase_KeepsPorts verifies clearing milestones does
// not touch ported priority dates.
func TestMilestoneRepo_DeleteByCase_KeepsPorts(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	cases := NewSQLiteCaseRepo(db)
	milestones := NewSQLiteMilestoneRepo(db)
	ports := NewSQLitePortRepo(db)

	c := testutil.NewTestCase(testutil.WithPort("2016-05", domain.CategoryEB3, "", ""))
	require.NoError(t, cases.Create(ctx, c))
	require.NoError(t, milestones.Upsert(ctx, c.ID, domain.Milestone{Key: domain.MilestonePWD, Status: domain.MilestoneApproved}))
	require.NoError(t, ports.Create(ctx, c.ID, &c.Ports[0]))

	require.NoError(t, milestones.DeleteByCase(ctx, c.ID))

	ms, err := milestones.ListByCase(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, ms)
	ps, err := ports.ListByCase(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, ps, 1)
}

// TestForeignKey_PortRequiresCase verifies a port cannot reference a missing case.
func TestForeignKey_PortRequiresCase(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	p := testutil.NewTestCase(testutil.WithPort("2016-05", domain.CategoryEB3, "", "")).Ports[0]
	err := NewSQLitePortRepo(db).Create(ctx, "no-such-case", &p)
	assert.Error(t, err, "port without a case should be rejected")
}
