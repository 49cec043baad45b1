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
		Name: "create_table_housing_cooperatives",
		SQL: `CREATE TABLE IF NOT EXISTS housing_cooperatives (
  id                          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name                        TEXT        NOT NULL,
  organisation_number         TEXT        NOT NULL UNIQUE,
  address                     TEXT        NOT NULL DEFAULT '',
  postal_code                 TEXT        NOT NULL DEFAULT '',
  city                        TEXT        NOT NULL DEFAULT '',
  administrator_name          TEXT        NOT NULL DEFAULT '',
  administrator_person_number TEXT        NOT NULL DEFAULT '',
  administrator_email         TEXT        NOT NULL DEFAULT '',
  accounting_firm_name        TEXT        NOT NULL DEFAULT '',
  accounting_firm_email       TEXT        NOT NULL DEFAULT '',
  created_by                  TEXT        NOT NULL DEFAULT '',
  created_at                  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_mortgage_deeds",
		SQL: `CREATE TABLE IF NOT EXISTS mortgage_deeds (
  id                     UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  credit_number          TEXT        NOT NULL,
  status                 TEXT        NOT NULL DEFAULT 'CREATED'
    CHECK (status IN ('CREATED', 'PENDING_BORROWER_SIGNATURE', 'PENDING_HOUSING_COOPERATIVE_SIGNATURE', 'COMPLETED')),
  bank_id                BIGINT      NOT NULL,
  housing_cooperative_id UUID        REFERENCES housing_cooperatives (id),
  apartment_address      TEXT        NOT NULL DEFAULT '',
  apartment_postal_code  TEXT        NOT NULL DEFAULT '',
  apartment_city         TEXT        NOT NULL DEFAULT '',
  apartment_number       TEXT        NOT NULL DEFAULT '',
  created_by             TEXT        NOT NULL DEFAULT '',
  created_by_email       TEXT        NOT NULL DEFAULT '',
  created_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_borrowers",
		SQL: `CREATE TABLE IF NOT EXISTS borrowers (
  id              UUID             PRIMARY KEY DEFAULT uuid_generate_v4(),
  deed_id         UUID             NOT NULL REFERENCES mortgage_deeds (id) ON DELETE CASCADE,
  name            TEXT             NOT NULL,
  person_number   TEXT             NOT NULL,
  email           TEXT             NOT NULL,
  ownership_share DOUBLE PRECISION NOT NULL CHECK (ownership_share > 0 AND ownership_share <= 100),
  signed_at       TIMESTAMPTZ,
  created_at      TIMESTAMPTZ      NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_cooperative_signers",
		SQL: `CREATE TABLE IF NOT EXISTS cooperative_signers (
  id                          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  deed_id                     UUID        NOT NULL REFERENCES mortgage_deeds (id) ON DELETE CASCADE,
  administrator_name          TEXT        NOT NULL,
  administrator_person_number TEXT        NOT NULL DEFAULT '',
  administrator_email         TEXT        NOT NULL,
  signed_at                   TIMESTAMPTZ,
  created_at                  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_accounting_firm_contacts",
		SQL: `CREATE TABLE IF NOT EXISTS accounting_firm_contacts (
  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  deed_id    UUID        NOT NULL REFERENCES mortgage_deeds (id) ON DELETE CASCADE,
  firm_name  TEXT        NOT NULL,
  firm_email TEXT        NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_signing_tokens",
		SQL: `CREATE TABLE IF NOT EXISTS signing_tokens (
  id                    UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  deed_id               UUID        NOT NULL REFERENCES mortgage_deeds (id) ON DELETE CASCADE,
  borrower_id           UUID        REFERENCES borrowers (id) ON DELETE CASCADE,
  cooperative_signer_id UUID        REFERENCES cooperative_signers (id) ON DELETE CASCADE,
  signer_kind           TEXT        NOT NULL,
  secret                TEXT        NOT NULL UNIQUE,
  email                 TEXT        NOT NULL,
  expires_at            TIMESTAMPTZ NOT NULL,
  used_at               TIMESTAMPTZ,
  created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
  CHECK ((borrower_id IS NULL) <> (cooperative_signer_id IS NULL)),
  CHECK (signer_kind = CASE WHEN borrower_id IS NOT NULL THEN 'borrower' ELSE 'cooperative_signer' END)
);`,
	},
	{
		Name: "create_table_audit_logs",
		SQL: `CREATE TABLE IF NOT EXISTS audit_logs (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  deed_id     UUID        REFERENCES mortgage_deeds (id) ON DELETE SET NULL,
  action_type TEXT        NOT NULL,
  actor       TEXT        NOT NULL DEFAULT '',
  description TEXT        NOT NULL DEFAULT '',
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_mortgage_deeds_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_mortgage_deeds_status ON mortgage_deeds (status);`,
	},
	{
		Name: "create_index_mortgage_deeds_credit_number",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_mortgage_deeds_credit_number ON mortgage_deeds (credit_number);`,
	},
	{
		Name: "create_index_mortgage_deeds_bank_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_mortgage_deeds_bank_id ON mortgage_deeds (bank_id);`,
	},
	{
		Name: "create_index_borrowers_deed_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_borrowers_deed_id ON borrowers (deed_id);`,
	},
	{
		Name: "create_index_borrowers_person_number",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_borrowers_person_number ON borrowers (person_number);`,
	},
	{
		Name: "create_index_cooperative_signers_deed_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_cooperative_signers_deed_id ON cooperative_signers (deed_id);`,
	},
	{
		Name: "create_index_signing_tokens_deed_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_signing_tokens_deed_id ON signing_tokens (deed_id);`,
	},
	{
		Name: "create_index_audit_logs_deed_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_audit_logs_deed_id ON audit_logs (deed_id);`,
	},
}

// EnsureMigrated checks if the 'mortgage_deeds' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.mortgage_deeds') IS NOT NULL"
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
