package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/alexanderramin/greenpath/internal/catalog"
	"github.com/alexanderramin/greenpath/internal/db"
	"github.com/alexanderramin/greenpath/internal/livedata"
	"github.com/alexanderramin/greenpath/internal/processing"
	"github.com/alexanderramin/greenpath/internal/repository"
	"github.com/alexanderramin/greenpath/internal/testutil"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func setupRepos(t *testing.T) (*sql.DB, *repository.SQLiteProfileRepo, *repository.SQLiteCaseRepo, db.UnitOfWork) {
	t.Helper()
	database := testutil.NewTestDB(t)
	return database,
		repository.NewSQLiteProfileRepo(database),
		repository.NewSQLiteCaseRepo(database),
		testutil.NewTestUoW(database)
}

// defaultsProvider serves the catalog defaults with no endpoint or cache.
func defaultsProvider() *livedata.Provider {
	return livedata.NewProvider(nil, nil, processing.DefaultsFrom(catalog.Default()), time.Hour, nil)
}

// stubSnapshots returns a fixed result or error, optionally after a delay.
type stubSnapshots struct {
	res   livedata.Result
	err   error
	delay time.Duration
}

func (s *stubSnapshots) Snapshot(ctx context.Context) (livedata.Result, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return livedata.Result{}, ctx.Err()
		}
	}
	return s.res, s.err
}

func (s *stubSnapshots) Refresh(ctx context.Context) (livedata.Result, error) {
	return s.Snapshot(ctx)
}
