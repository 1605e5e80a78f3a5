package database

import (
	"context"
	"database/sql"
	"fmt"
)

// ChangeChannel is the LISTEN/NOTIFY channel the leads trigger writes to.
// Payloads look like "updated:<id>".
const ChangeChannel = "leads_changed"

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS leads (
		id                 UUID PRIMARY KEY,
		full_name          TEXT NOT NULL DEFAULT '',
		source             TEXT NOT NULL,
		status             TEXT NOT NULL,
		inquiry_type       TEXT NOT NULL,
		closed             BOOLEAN NOT NULL DEFAULT FALSE,
		advance_payment    BOOLEAN NOT NULL DEFAULT FALSE,
		additional_details TEXT NOT NULL DEFAULT '',
		important_notes    TEXT NOT NULL DEFAULT '',
		descriptions       JSONB NOT NULL DEFAULT '[]'::jsonb,
		created_at         TIMESTAMPTZ NOT NULL,
		updated_at         TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS leads_created_at_idx ON leads (created_at DESC)`,
	`CREATE OR REPLACE FUNCTION notify_leads_changed() RETURNS trigger AS $$
	BEGIN
		IF TG_OP = 'DELETE' THEN
			PERFORM pg_notify('` + ChangeChannel + `', 'deleted:' || OLD.id::text);
			RETURN OLD;
		ELSIF TG_OP = 'INSERT' THEN
			PERFORM pg_notify('` + ChangeChannel + `', 'created:' || NEW.id::text);
		ELSE
			PERFORM pg_notify('` + ChangeChannel + `', 'updated:' || NEW.id::text);
		END IF;
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS leads_changed_trigger ON leads`,
	`CREATE TRIGGER leads_changed_trigger
		AFTER INSERT OR UPDATE OR DELETE ON leads
		FOR EACH ROW EXECUTE FUNCTION notify_leads_changed()`,
}

// Migrate creates the leads table and its change trigger. Statements run
// one by one so each failure names its step.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}
	return nil
}
