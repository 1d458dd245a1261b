package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// schema is applied in order; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS subjects (
  paper_id   INTEGER PRIMARY KEY,
  paper_code TEXT NOT NULL,
  name       TEXT NOT NULL,
  credit     INTEGER,
  minor_max  INTEGER,
  major_max  INTEGER,
  type       TEXT NOT NULL DEFAULT '',
  exam       TEXT NOT NULL DEFAULT '',
  mode       TEXT NOT NULL DEFAULT '',
  kind       TEXT NOT NULL DEFAULT '',
  semester   INTEGER
)`,
	`CREATE INDEX IF NOT EXISTS idx_subjects_semester ON subjects (semester)`,
	`CREATE TABLE IF NOT EXISTS students (
  roll_num         TEXT PRIMARY KEY,
  name             TEXT,
  batch_year       INTEGER,
  programme_code   TEXT,
  programme_name   TEXT,
  institution_code TEXT,
  institution_name TEXT
)`,
	`CREATE TABLE IF NOT EXISTS import_jobs (
  id            TEXT PRIMARY KEY,
  source        TEXT NOT NULL,
  fingerprint   TEXT NOT NULL UNIQUE,
  status        TEXT NOT NULL,
  page_count    INTEGER NOT NULL DEFAULT 0,
  subject_count INTEGER NOT NULL DEFAULT 0,
  student_count INTEGER NOT NULL DEFAULT 0,
  mark_count    INTEGER NOT NULL DEFAULT 0,
  skewed_blocks INTEGER NOT NULL DEFAULT 0,
  error_message TEXT,
  pages         TEXT[] NOT NULL DEFAULT '{}',
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
  finished_at   TIMESTAMPTZ
)`,
	`CREATE TABLE IF NOT EXISTS results (
  roll_num     TEXT NOT NULL REFERENCES students(roll_num) ON DELETE CASCADE,
  semester     INTEGER NOT NULL,
  student_name TEXT NOT NULL DEFAULT '',
  batch        INTEGER,
  import_id    TEXT REFERENCES import_jobs(id) ON DELETE SET NULL,
  PRIMARY KEY (roll_num, semester)
)`,
	`CREATE INDEX IF NOT EXISTS idx_results_semester ON results (semester)`,
	`CREATE TABLE IF NOT EXISTS marks (
  roll_num     TEXT NOT NULL,
  semester     INTEGER NOT NULL,
  paper_id     INTEGER NOT NULL,
  minor        INTEGER,
  major        INTEGER,
  total        INTEGER,
  grade        TEXT,
  paper_credit INTEGER,
  PRIMARY KEY (roll_num, semester, paper_id),
  FOREIGN KEY (roll_num, semester) REFERENCES results(roll_num, semester) ON DELETE CASCADE
)`,
}

// Migrate creates the tables used by the result store when they are missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate at %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
