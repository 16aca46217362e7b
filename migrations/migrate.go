package migrations

import (
	"context"
	"embed"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

//go:embed *.sql
var files embed.FS

// advisoryLockKey serializes migration runs across instances sharing one
// database.
const advisoryLockKey = 7743921604

// Apply brings the schema up to date. Pending files run in filename order,
// each inside its own transaction, recorded in schema_migrations.
func Apply(ctx context.Context, db *sqlx.DB) error {
	conn, err := db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection for migrations: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", advisoryLockKey); err != nil {
		return fmt.Errorf("failed to take migration lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockKey)
	}()

	if _, err := conn.ExecContext(
		ctx,
		"CREATE TABLE IF NOT EXISTS schema_migrations "+
			"(version TEXT PRIMARY KEY, applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW())",
	); err != nil {
		return fmt.Errorf("failed to prepare schema_migrations: %w", err)
	}

	var versions []string
	if err := conn.SelectContext(ctx, &versions, "SELECT version FROM schema_migrations"); err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}
	applied := make(map[string]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}

	entries, err := files.ReadDir(".")
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		if applied[name] {
			continue
		}
		if err := applyOne(ctx, conn, name); err != nil {
			return err
		}
		log.Infof("applied migration %s", name)
	}
	return nil
}

func applyOne(ctx context.Context, conn *sqlx.Conn, name string) error {
	query, err := files.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read migration %q: %w", name, err)
	}

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %q: %w", name, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, string(query)); err != nil {
		return fmt.Errorf("failed to apply migration %q: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", name); err != nil {
		return fmt.Errorf("failed to record migration %q: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %q: %w", name, err)
	}
	return nil
}
