package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
)

// schema is the complete current schema
const schema = `
CREATE TABLE IF NOT EXISTS contacts (
    id TEXT PRIMARY KEY,
    first_name TEXT NOT NULL CHECK (length(trim(first_name)) > 0),
    last_name TEXT NOT NULL CHECK (length(trim(last_name)) > 0),
    phone TEXT,
    email TEXT,
    company TEXT,
    notes TEXT,
    avatar TEXT,
    favorite BOOLEAN NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Indexes for list ordering and search
CREATE INDEX IF NOT EXISTS idx_contacts_name ON contacts (last_name, first_name);
CREATE INDEX IF NOT EXISTS idx_contacts_favorite ON contacts (favorite);
CREATE INDEX IF NOT EXISTS idx_contacts_search ON contacts (first_name, last_name, email, company);
`

// Initialize creates a new database with the complete schema
func Initialize(driver, dbPath string) error {
	if err := checkDriver(driver); err != nil {
		return err
	}

	// Check if database already exists
	if _, err := os.Stat(dbPath); err == nil {
		return fmt.Errorf("database already exists at %s", dbPath)
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}

	// Create database file
	conn, err := sql.Open(driver, dbPath)
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	defer conn.Close()

	// Create schema
	if _, err := conn.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	return nil
}
