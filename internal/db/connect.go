package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:assessment.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/assessment?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := EnsureSchema(ctx, db, driver); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the grading tables when missing.
func EnsureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	default:
		return fmt.Errorf("unsupported driver: %s", driver)
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS questions (
  id TEXT PRIMARY KEY,
  type TEXT NOT NULL,
  points REAL NOT NULL DEFAULT 0,
  question_json TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS contexts (
  id TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  total_points REAL NOT NULL DEFAULT 0,
  items_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS answers (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  student_id TEXT NOT NULL,
  question_id TEXT NOT NULL,
  context_id TEXT NOT NULL,
  value_json TEXT NOT NULL,
  manual_score REAL,
  points_awarded REAL,              -- NULL while awaiting manual grading
  max_score REAL NOT NULL DEFAULT 0,
  is_correct INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL,
  reason TEXT NOT NULL DEFAULT '',
  finalized_at INTEGER,
  updated_at INTEGER NOT NULL,
  UNIQUE (student_id, question_id, context_id)
);
CREATE INDEX IF NOT EXISTS answers_question_idx ON answers (question_id);
CREATE INDEX IF NOT EXISTS answers_context_idx ON answers (context_id, student_id);

CREATE TABLE IF NOT EXISTS event_log (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,                         -- e.g., answers.graded
  key TEXT NOT NULL,                         -- natural key: student|context
  data TEXT NOT NULL,                        -- JSON payload
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS questions (
  id TEXT PRIMARY KEY,
  type TEXT NOT NULL,
  points DOUBLE PRECISION NOT NULL DEFAULT 0,
  question_json TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS contexts (
  id TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  total_points DOUBLE PRECISION NOT NULL DEFAULT 0,
  items_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS answers (
  id BIGSERIAL PRIMARY KEY,
  student_id TEXT NOT NULL,
  question_id TEXT NOT NULL,
  context_id TEXT NOT NULL,
  value_json TEXT NOT NULL,
  manual_score DOUBLE PRECISION,
  points_awarded DOUBLE PRECISION,
  max_score DOUBLE PRECISION NOT NULL DEFAULT 0,
  is_correct BOOLEAN NOT NULL DEFAULT FALSE,
  status TEXT NOT NULL,
  reason TEXT NOT NULL DEFAULT '',
  finalized_at BIGINT,
  updated_at BIGINT NOT NULL,
  UNIQUE (student_id, question_id, context_id)
);
CREATE INDEX IF NOT EXISTS answers_question_idx ON answers (question_id);
CREATE INDEX IF NOT EXISTS answers_context_idx ON answers (context_id, student_id);

CREATE TABLE IF NOT EXISTS event_log (
  seq BIGSERIAL PRIMARY KEY,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
