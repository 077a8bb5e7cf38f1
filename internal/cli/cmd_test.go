package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/greenpath/internal/casestatus"
	"github.com/alexanderramin/greenpath/internal/catalog"
	"github.com/alexanderramin/greenpath/internal/domain"
	"github.com/alexanderramin/greenpath/internal/livedata"
	"github.com/alexanderramin/greenpath/internal/processing"
	"github.com/alexanderramin/greenpath/internal/repository"
	"github.com/alexanderramin/greenpath/internal/service"
	"github.com/alexanderramin/greenpath/internal/testutil"
)

var cliNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

type stubLooker struct{}

func (stubLooker) Lookup(_ context.Context, receipt string) (*casestatus.Result, error) {
	if receipt == "EAC2690000000" {
		return nil, &casestatus.LookupError{Receipt: receipt, URL: "https://egov.example/?r=" + receipt, Err: casestatus.ErrUnavailable}
	}
	return &casestatus.Result{Receipt: receipt, Status: domain.CaseStatusPending, Title: "Case Was Received", CheckedAt: cliNow}, nil
}

// testApp wires a full App backed by an in-memory DB for CLI integration tests.
func testApp(t *testing.T) *App {
	t.Helper()
	database := testutil.NewTestDB(t)

	profileRepo := repository.NewSQLiteProfileRepo(database)
	caseRepo := repository.NewSQLiteCaseRepo(database)
	uow := testutil.NewTestUoW(database)
	provider := livedata.NewProvider(nil, nil, processing.DefaultsFrom(catalog.Default()), time.Hour, nil)

	cases := service.NewCaseService(caseRepo, uow)
	return &App{
		Profiles:    service.NewProfileService(profileRepo),
		Cases:       cases,
		Projections: service.NewProjectionService(profileRepo, caseRepo, provider, service.WithClock(func() time.Time { return cliNow })),
		Snapshots:   service.NewSnapshotService(provider, nil),
		CaseStatus:  service.NewCaseStatusService(stubLooker{}, cases),
		Now:         func() time.Time { return cliNow },
	}
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// --- profile ---

func TestProfileShow_SeededDefault(t *testing.T) {
	app := testApp(t)
	out, err := executeCmd(t, app, "profile", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "PROFILE")
	assert.Contains(t, out, "bachelors")
}

func TestProfileSet_ChangesOnlyGivenFlags(t *testing.T) {
	app := testApp(t)
	ctx := context.Background()

	_, err := executeCmd(t, app, "profile", "set", "--status", "H1B", "--education", "masters", "--country", "India")
	require.NoError(t, err)
	_, err = executeCmd(t, app, "profile", "set", "--stem", "--pd", "2019-05", "--pd-category", "eb3")
	require.NoError(t, err)

	p, err := app.Profiles.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusH1B, p.Status)
	assert.Equal(t, domain.EducationMasters, p.Education)
	assert.True(t, p.STEM)
	assert.Equal(t, "India", p.CountryOfBirth)
	require.NotNil(t, p.ExistingPriorityDate)
	assert.Equal(t, domain.MonthAt(2019, time.May), p.ExistingPriorityDate.Date)
	assert.Equal(t, domain.CategoryEB3, p.ExistingPriorityDate.Category)

	_, err = executeCmd(t, app, "profile", "set", "--clear-pd")
	require.NoError(t, err)
	p, err = app.Profiles.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, p.ExistingPriorityDate)
	assert.Equal(t, domain.EducationMasters, p.Education)
}

func TestProfileSet_RejectsBadValues(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "profile", "set", "--education", "phd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of")

	_, err = executeCmd(t, app, "profile", "set", "--pd", "soon", "--pd-category", "EB-2")
	assert.ErrorContains(t, err, "invalid priority date")

	_, err = executeCmd(t, app, "profile", "set", "--pd", "2019-05")
	assert.ErrorContains(t, err, "--pd-category is required")
}

func TestProfileEdit_NeedsTerminal(t *testing.T) {
	app := testApp(t)
	_, err := executeCmd(t, app, "profile", "edit")
	assert.ErrorIs(t, err, errNotInteractive)
}

// --- paths ---

func setH1BMasters(t *testing.T, app *App) {
	t.Helper()
	_, err := executeCmd(t, app, "profile", "set", "--status", "h1b", "--education", "masters", "--country", "India")
	require.NoError(t, err)
}

func TestPaths_ListsAdmissiblePaths(t *testing.T) {
	app := testApp(t)
	setH1BMasters(t, app)

	out, err := executeCmd(t, app, "paths")
	require.NoError(t, err)
	assert.Contains(t, out, "perm-eb2")
	assert.Contains(t, out, "perm-eb3")
	assert.Contains(t, out, "built-in defaults")
}

func TestPaths_SinglePathDetail(t *testing.T) {
	app := testApp(t)
	setH1BMasters(t, app)
	out, err := executeCmd(t, app, "paths", "--path", "perm-eb3", "--premium")
	require.NoError(t, err)
	assert.Contains(t, out, "PERM-EB3")
	assert.Contains(t, out, "Green card")

	_, err = executeCmd(t, app, "paths", "--path", "eb1a")
	assert.ErrorIs(t, err, service.ErrUnknownPath)
}

func TestPaths_BrowseNeedsTerminal(t *testing.T) {
	app := testApp(t)
	setH1BMasters(t, app)
	_, err := executeCmd(t, app, "paths", "--browse")
	assert.ErrorIs(t, err, errNotInteractive)
}

func TestPaths_ReconcilesTrackedCase(t *testing.T) {
	app := testApp(t)
	setH1BMasters(t, app)
	_, err := executeCmd(t, app, "case", "milestone", "perm", "--filed", "2024-03-15")
	require.NoError(t, err)

	out, err := executeCmd(t, app, "paths", "--path", "perm-eb3")
	require.NoError(t, err)
	assert.Contains(t, out, "YOUR CASE")
	assert.Contains(t, out, "Mar 2024")

	out, err = executeCmd(t, app, "paths", "--path", "perm-eb3", "--ignore-case")
	require.NoError(t, err)
	assert.NotContains(t, out, "YOUR CASE")
}

// --- case ---

func TestCaseShow_Empty(t *testing.T) {
	app := testApp(t)
	out, err := executeCmd(t, app, "case", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "No case tracked yet")
}

func TestCaseMilestone_CreatesCase(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "case", "milestone", "pwd", "--filed", "2024-01-02", "--approved", "2024-06-01")
	require.NoError(t, err)
	assert.Contains(t, out, "✔ Approved")

	_, err = executeCmd(t, app, "case", "milestone", "i131")
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	out, err = executeCmd(t, app, "case", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Jun 1, 2024")
}

func TestCasePort_AddAndRemove(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "case", "port", "--pd", "2019-05-01", "--from", "eb3")
	require.NoError(t, err)
	assert.Contains(t, out, "PORTED PRIORITY DATES")

	c, err := app.Cases.Active(context.Background())
	require.NoError(t, err)
	require.Len(t, c.Ports, 1)

	out, err = executeCmd(t, app, "case", "port", "--remove", c.Ports[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed ported date")

	_, err = executeCmd(t, app, "case", "port")
	assert.ErrorContains(t, err, "--pd is required")

	_, err = executeCmd(t, app, "case", "port", "--pd", "2019-05-01", "--from", "h1b")
	assert.ErrorContains(t, err, "unknown category")
}

func TestCaseImport_YAML(t *testing.T) {
	app := testApp(t)
	path := filepath.Join(t.TempDir(), "case.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`label: imported
milestones:
  - key: perm
    filed_on: "2023-11-20"
  - key: i140
    approved_on: "2024-05-02"
    receipt: LIN2490000001
ports:
  - priority_date: "2018-02-01"
    from_category: EB-3
`), 0o644))

	out, err := executeCmd(t, app, "case", "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "with 2 milestones and 1 ported dates")

	out, err = executeCmd(t, app, "case", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "imported")
	assert.Contains(t, out, "LIN2490000001")
}

func TestCaseReset(t *testing.T) {
	app := testApp(t)
	_, err := executeCmd(t, app, "case", "milestone", "perm", "--filed", "2024-03-15")
	require.NoError(t, err)

	_, err = executeCmd(t, app, "case", "reset")
	assert.ErrorContains(t, err, "without --yes")

	out, err := executeCmd(t, app, "case", "reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted")

	_, err = executeCmd(t, app, "case", "reset", "-y")
	assert.ErrorIs(t, err, service.ErrNoActiveCase)
}

// --- velocity / snapshot ---

func TestVelocity(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "velocity", "eb2", "india")
	require.NoError(t, err)
	assert.Contains(t, out, "EB-2")
	assert.Contains(t, out, "india")
	assert.Contains(t, out, "months per year")

	_, err = executeCmd(t, app, "profile", "set", "--country", "China")
	require.NoError(t, err)
	out, err = executeCmd(t, app, "velocity", "EB-3")
	require.NoError(t, err)
	assert.Contains(t, out, "china")

	_, err = executeCmd(t, app, "velocity", "h1b")
	assert.ErrorContains(t, err, "unknown category")
}

func TestSnapshotShowAndRefresh(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "snapshot", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "PROCESSING TIMES")

	out, err = executeCmd(t, app, "snapshot", "refresh", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "No live data endpoint is configured")
	assert.Contains(t, out, "FINAL ACTION DATES")
}

// --- case-status ---

func TestCaseStatus_SingleReceipt(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "case-status", "ioe0912345678")
	require.NoError(t, err)
	assert.Contains(t, out, "IOE0912345678")
	assert.Contains(t, out, "Pending")

	out, err = executeCmd(t, app, "case-status", "EAC2690000000")
	require.NoError(t, err)
	assert.Contains(t, out, "status unavailable")
	assert.Contains(t, out, "https://egov.example/?r=EAC2690000000")

	_, err = executeCmd(t, app, "case-status", "IOE12")
	assert.ErrorIs(t, err, casestatus.ErrInvalidReceipt)
}

func TestCaseStatus_TrackedCase(t *testing.T) {
	app := testApp(t)
	_, err := executeCmd(t, app, "case", "milestone", "i140", "--filed", "2024-01-10", "--receipt", "LIN2490000001")
	require.NoError(t, err)

	out, err := executeCmd(t, app, "case-status")
	require.NoError(t, err)
	assert.Contains(t, out, "i140")
	assert.Contains(t, out, "Case Was Received")
}

// --- serve ---

func TestServe_UsesAddrFlag(t *testing.T) {
	app := testApp(t)
	var got string
	app.DefaultAddr = "127.0.0.1:8080"
	app.Serve = func(ctx context.Context, addr string) error {
		got = addr
		return nil
	}

	_, err := executeCmd(t, app, "serve")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", got)

	_, err = executeCmd(t, app, "serve", "--addr", ":9999")
	require.NoError(t, err)
	assert.Equal(t, ":9999", got)
}
