package db

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// column is a column that older databases may be missing
type column struct {
	name       string
	definition string
}

// migration adds a group of columns in one transaction
type migration struct {
	name    string
	columns []column
}

// migrations run in order on every Open. Each is skipped when its columns
// already exist.
var migrations = []migration{
	{
		name: "favorites",
		columns: []column{
			{"favorite", "BOOLEAN NOT NULL DEFAULT 0"},
		},
	},
	{
		name: "avatars",
		columns: []column{
			{"avatar", "TEXT"},
		},
	},
}

// RunMigrations applies any pending database migrations
func (db *DB) RunMigrations(ctx context.Context) error {
	for _, m := range migrations {
		if err := db.runMigration(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) runMigration(ctx context.Context, m migration) error {
	names := make([]string, len(m.columns))
	args := make([]any, len(m.columns))
	for i, c := range m.columns {
		names[i] = "?"
		args[i] = c.name
	}

	// Check if the columns exist
	var count int
	query := `SELECT COUNT(*) FROM pragma_table_info('contacts') WHERE name IN (` + strings.Join(names, ", ") + `)`
	if err := db.conn.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return fmt.Errorf("checking for %s columns: %w", m.name, err)
	}
	if count == len(m.columns) {
		return nil
	}

	db.log.Info("running migration", zap.String("migration", m.name))

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range m.columns {
		_, err := tx.ExecContext(ctx, `ALTER TABLE contacts ADD COLUMN `+c.name+` `+c.definition)
		if err != nil && !strings.Contains(err.Error(), "duplicate column name") {
			return fmt.Errorf("adding %s column: %w", c.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s migration: %w", m.name, err)
	}

	db.log.Info("migration completed", zap.String("migration", m.name))
	return nil
}
