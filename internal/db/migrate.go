package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id                     TEXT PRIMARY KEY DEFAULT 'default',
		status                 TEXT NOT NULL DEFAULT 'none'
		                       CHECK(status IN ('none','f1','opt','h1b','h4','l1','tn','o1','other')),
		education              TEXT NOT NULL DEFAULT 'bachelors'
		                       CHECK(education IN ('none','bachelors','masters','doctorate')),
		experience             TEXT NOT NULL DEFAULT '0-2'
		                       CHECK(experience IN ('0-2','2-5','5-10','10+')),
		stem                   INTEGER NOT NULL DEFAULT 0,
		country_of_birth       TEXT NOT NULL DEFAULT '',
		canadian_or_mexican    INTEGER NOT NULL DEFAULT 0,
		extraordinary_ability  INTEGER NOT NULL DEFAULT 0,
		outstanding_researcher INTEGER NOT NULL DEFAULT 0,
		executive_manager      INTEGER NOT NULL DEFAULT 0,
		married_to_us_citizen  INTEGER NOT NULL DEFAULT 0,
		investment_capital     INTEGER NOT NULL DEFAULT 0,
		existing_pd            TEXT,
		existing_pd_category   TEXT NOT NULL DEFAULT '',
		existing_pd_approved   INTEGER NOT NULL DEFAULT 0,
		updated_at             TEXT NOT NULL DEFAULT ''
	)`,

	// Seed default profile
	`INSERT OR IGNORE INTO profiles (id) VALUES ('default')`,

	`CREATE TABLE IF NOT EXISTS tracked_cases (
		id         TEXT PRIMARY KEY,
		label      TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	// Dates are stored as entered so a malformed value survives a round trip.
	`CREATE TABLE IF NOT EXISTS milestones (
		case_id      TEXT NOT NULL REFERENCES tracked_cases(id) ON DELETE CASCADE,
		key          TEXT NOT NULL
		             CHECK(key IN ('pwd','recruitment','perm','i140','i485','ead_ap')),
		status       TEXT NOT NULL DEFAULT 'not_started'
		             CHECK(status IN ('not_started','filed','approved','denied')),
		filed_on     TEXT NOT NULL DEFAULT '',
		approved_on  TEXT NOT NULL DEFAULT '',
		receipt      TEXT NOT NULL DEFAULT '',
		updated_at   TEXT NOT NULL,
		PRIMARY KEY (case_id, key)
	)`,

	`CREATE TABLE IF NOT EXISTS ported_priority_dates (
		id               TEXT PRIMARY KEY,
		case_id          TEXT NOT NULL REFERENCES tracked_cases(id) ON DELETE CASCADE,
		priority_date    TEXT NOT NULL DEFAULT '',
		from_category    TEXT NOT NULL DEFAULT '',
		i140_approved_on TEXT NOT NULL DEFAULT '',
		withdrawn_on     TEXT NOT NULL DEFAULT '',
		created_at       TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_ports_case ON ported_priority_dates(case_id)`,
	`CREATE INDEX IF NOT EXISTS idx_cases_updated ON tracked_cases(updated_at)`,

	`CREATE TABLE IF NOT EXISTS snapshot_cache (
		key        TEXT PRIMARY KEY,
		payload    TEXT NOT NULL,
		fetched_at TEXT NOT NULL
	)`,

	// Recorded priority date on the I-140 milestone
	`ALTER TABLE milestones ADD COLUMN priority_date TEXT NOT NULL DEFAULT ''`,
}
