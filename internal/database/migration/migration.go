package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_templates",
		SQL: `CREATE TABLE IF NOT EXISTS templates (
  id              UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name            TEXT        NOT NULL,
  category        TEXT        NOT NULL DEFAULT 'general',
  description     TEXT        NOT NULL DEFAULT '',
  current_version INTEGER     NOT NULL DEFAULT 1 CHECK (current_version >= 1),
  file_path       TEXT        NOT NULL,
  placeholders    JSONB       NOT NULL DEFAULT '[]',
  metadata        JSONB       NOT NULL DEFAULT '{}',
  file_type       TEXT        NOT NULL,
  is_active       BOOLEAN     NOT NULL DEFAULT TRUE,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
  created_by      TEXT        NOT NULL DEFAULT ''
);`,
	},
	{
		Name: "create_table_template_versions",
		SQL: `CREATE TABLE IF NOT EXISTS template_versions (
  id             UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  template_id    UUID        NOT NULL REFERENCES templates (id),
  version        INTEGER     NOT NULL CHECK (version >= 1),
  file_path      TEXT        NOT NULL,
  file_hash      TEXT        NOT NULL,
  description    TEXT        NOT NULL DEFAULT '',
  change_summary TEXT        NOT NULL DEFAULT '',
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
  created_by     TEXT        NOT NULL DEFAULT '',
  UNIQUE (template_id, version)
);`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id                 UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  title              TEXT        NOT NULL,
  template_id        UUID        NOT NULL REFERENCES templates (id),
  template_version   INTEGER     NOT NULL CHECK (template_version >= 1),
  doc_type           TEXT        NOT NULL DEFAULT 'general',
  status             TEXT        NOT NULL DEFAULT 'generated',
  access_level       TEXT        NOT NULL DEFAULT 'internal',
  file_path          TEXT        NOT NULL,
  file_hash          TEXT        NOT NULL,
  file_size          BIGINT      NOT NULL CHECK (file_size >= 0),
  mime_type          TEXT        NOT NULL,
  input_data         TEXT        NOT NULL DEFAULT '',
  metadata           JSONB       NOT NULL DEFAULT '{}',
  version            INTEGER     NOT NULL DEFAULT 1 CHECK (version >= 1),
  parent_document_id UUID        REFERENCES documents (id),
  created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
  archived_at        TIMESTAMPTZ,
  created_by         TEXT        NOT NULL DEFAULT '',
  updated_by         TEXT,
  is_encrypted       BOOLEAN     NOT NULL DEFAULT FALSE,
  encryption_key_id  TEXT,
  is_readonly        BOOLEAN     NOT NULL DEFAULT FALSE,
  retention_days     INTEGER     CHECK (retention_days > 0)
);`,
	},
	{
		Name: "create_table_document_access_logs",
		SQL: `CREATE TABLE IF NOT EXISTS document_access_logs (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id UUID        NOT NULL,
  user_id     TEXT        NOT NULL,
  action      TEXT        NOT NULL,
  ip_address  TEXT        NOT NULL DEFAULT '',
  user_agent  TEXT        NOT NULL DEFAULT '',
  status      TEXT        NOT NULL,
  reason      TEXT        NOT NULL DEFAULT '',
  accessed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_templates_category",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_templates_category ON templates (category);`,
	},
	{
		Name: "create_index_documents_doc_type",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_doc_type ON documents (doc_type);`,
	},
	{
		Name: "create_index_documents_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_status ON documents (status);`,
	},
	{
		Name: "create_index_documents_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents (created_at);`,
	},
	{
		Name: "create_index_documents_metadata",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_metadata ON documents USING GIN (metadata);`,
	},
	{
		Name: "create_index_access_logs_document_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_access_logs_document_id ON document_access_logs (document_id, accessed_at);`,
	},
}

// EnsureMigrated checks if the 'templates' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.templates') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
