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
			dsn = "file:certicredia.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/certicredia?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT UNIQUE NOT NULL,
  password_hash TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS organizations (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  organization_type TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'active',   -- active|inactive|pending
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS cpf_auditing_assessments (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  organization_id INTEGER NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
  assessment_data TEXT NOT NULL DEFAULT '{}',   -- indicator key -> record, JSON
  metadata TEXT NOT NULL DEFAULT '{}',          -- cached maturity summary + free-form
  last_assessment_date INTEGER,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  deleted_at INTEGER                            -- soft delete (trash)
);

-- one live assessment per organization; trashed rows don't block recreation
CREATE UNIQUE INDEX IF NOT EXISTS idx_assessment_live_org
  ON cpf_auditing_assessments(organization_id) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS specialist_assignments (
  id TEXT PRIMARY KEY,
  assessment_id INTEGER NOT NULL REFERENCES cpf_auditing_assessments(id) ON DELETE CASCADE,
  specialist_id TEXT NOT NULL,
  assigned_by TEXT NOT NULL,
  access_token TEXT UNIQUE NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',   -- active|revoked
  expires_at INTEGER NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS review_comments (
  id TEXT PRIMARY KEY,
  assessment_id INTEGER NOT NULL REFERENCES cpf_auditing_assessments(id) ON DELETE CASCADE,
  indicator_key TEXT NOT NULL DEFAULT '',  -- canonical "c.i", empty = whole assessment
  author_id TEXT NOT NULL,
  body TEXT NOT NULL,
  resolved INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS evidence_files (
  id TEXT PRIMARY KEY,
  assessment_id INTEGER NOT NULL REFERENCES cpf_auditing_assessments(id) ON DELETE CASCADE,
  document_type TEXT NOT NULL DEFAULT '',
  file_name TEXT NOT NULL,
  storage_key TEXT NOT NULL,
  file_size INTEGER NOT NULL,
  mime_type TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  uploaded_by TEXT NOT NULL,
  access_count INTEGER NOT NULL DEFAULT 0,
  last_accessed_at INTEGER,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS reports (
  id TEXT PRIMARY KEY,
  organization_id INTEGER NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
  report_type TEXT NOT NULL DEFAULT 'assessment',
  payload TEXT NOT NULL,                   -- snapshot of the derived view, JSON
  generated_by TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS assessment_templates (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  template_type TEXT NOT NULL,
  version INTEGER NOT NULL DEFAULT 1,
  template_data TEXT NOT NULL DEFAULT '{}',    -- indicator scaffold, JSON
  description TEXT NOT NULL DEFAULT '',
  is_active INTEGER NOT NULL DEFAULT 0,
  created_by TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

-- at most one active template per type
CREATE UNIQUE INDEX IF NOT EXISTS idx_template_active_type
  ON assessment_templates(template_type) WHERE is_active = 1;

CREATE TABLE IF NOT EXISTS audit_log (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  actor TEXT NOT NULL DEFAULT '',
  action TEXT NOT NULL,
  status INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT UNIQUE NOT NULL,
  password_hash TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS organizations (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL,
  organization_type TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'active',
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS cpf_auditing_assessments (
  id BIGSERIAL PRIMARY KEY,
  organization_id BIGINT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
  assessment_data TEXT NOT NULL DEFAULT '{}',
  metadata TEXT NOT NULL DEFAULT '{}',
  last_assessment_date BIGINT,
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL,
  deleted_at BIGINT
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_assessment_live_org
  ON cpf_auditing_assessments(organization_id) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS specialist_assignments (
  id TEXT PRIMARY KEY,
  assessment_id BIGINT NOT NULL REFERENCES cpf_auditing_assessments(id) ON DELETE CASCADE,
  specialist_id TEXT NOT NULL,
  assigned_by TEXT NOT NULL,
  access_token TEXT UNIQUE NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  expires_at BIGINT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS review_comments (
  id TEXT PRIMARY KEY,
  assessment_id BIGINT NOT NULL REFERENCES cpf_auditing_assessments(id) ON DELETE CASCADE,
  indicator_key TEXT NOT NULL DEFAULT '',
  author_id TEXT NOT NULL,
  body TEXT NOT NULL,
  resolved BOOLEAN NOT NULL DEFAULT FALSE,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS evidence_files (
  id TEXT PRIMARY KEY,
  assessment_id BIGINT NOT NULL REFERENCES cpf_auditing_assessments(id) ON DELETE CASCADE,
  document_type TEXT NOT NULL DEFAULT '',
  file_name TEXT NOT NULL,
  storage_key TEXT NOT NULL,
  file_size BIGINT NOT NULL,
  mime_type TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  uploaded_by TEXT NOT NULL,
  access_count BIGINT NOT NULL DEFAULT 0,
  last_accessed_at BIGINT,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS reports (
  id TEXT PRIMARY KEY,
  organization_id BIGINT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
  report_type TEXT NOT NULL DEFAULT 'assessment',
  payload TEXT NOT NULL,
  generated_by TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS assessment_templates (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  template_type TEXT NOT NULL,
  version INTEGER NOT NULL DEFAULT 1,
  template_data TEXT NOT NULL DEFAULT '{}',
  description TEXT NOT NULL DEFAULT '',
  is_active BOOLEAN NOT NULL DEFAULT FALSE,
  created_by TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_template_active_type
  ON assessment_templates(template_type) WHERE is_active;

CREATE TABLE IF NOT EXISTS audit_log (
  id BIGSERIAL PRIMARY KEY,
  actor TEXT NOT NULL DEFAULT '',
  action TEXT NOT NULL,
  status INTEGER NOT NULL DEFAULT 0,
  created_at BIGINT NOT NULL
);
`
