// Package db is the SQLite implementation of contact.Store.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdxmph/pocket-contacts/internal/contact"
)

// DB wraps the database connection
type DB struct {
	conn   *sql.DB
	path   string
	log    *zap.Logger
	broker *contact.Broker
	now    func() time.Time

	favoriteTimeout time.Duration
	debounce        time.Duration

	// fire-and-forget mutations in flight
	mu      sync.Mutex
	pending sync.WaitGroup
	closed  bool

	// PRAGMA data_version as last seen by Watch
	dataVersion atomic.Int64
}

var _ contact.Store = (*DB)(nil)

// Option configures a DB
type Option func(*DB)

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(db *DB) { db.log = log }
}

// WithFavoriteTimeout bounds each background favorite toggle
func WithFavoriteTimeout(d time.Duration) Option {
	return func(db *DB) { db.favoriteTimeout = d }
}

// WithDebounce sets how long Watch waits for file activity to settle
func WithDebounce(d time.Duration) Option {
	return func(db *DB) { db.debounce = d }
}

// Open opens an existing database and applies pending migrations
func Open(driver, dbPath string, opts ...Option) (*DB, error) {
	if err := checkDriver(driver); err != nil {
		return nil, err
	}

	// Check if DB exists
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found at %s\nRun 'pocket-contacts init' to create it", dbPath)
	}

	conn, err := sql.Open(driver, dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps the
	// pragmas below in effect for every statement.
	conn.SetMaxOpenConns(1)

	db := &DB{
		conn:            conn,
		path:            dbPath,
		log:             zap.NewNop(),
		broker:          contact.NewBroker(),
		now:             time.Now,
		favoriteTimeout: 5 * time.Second,
		debounce:        250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(db)
	}
	db.log = db.log.With(zap.String("db", dbPath))

	ctx := context.Background()
	if _, err := conn.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		conn.Close()
		return nil, fmt.Errorf("configuring database: %w", err)
	}

	// Run any pending migrations
	if err := db.RunMigrations(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	if _, err := db.changedElsewhere(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("reading data version: %w", err)
	}

	return db, nil
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// Close waits for background mutations, then closes the database connection
func (db *DB) Close() error {
	db.mu.Lock()
	if db.closed {
		db.mu.Unlock()
		return nil
	}
	db.closed = true
	db.mu.Unlock()

	db.pending.Wait()
	db.broker.Close()
	return db.conn.Close()
}

// Subscribe returns change notifications for this handle
func (db *DB) Subscribe() (<-chan contact.Event, func()) {
	return db.broker.Subscribe()
}

// Get retrieves a single contact by ID
func (db *DB) Get(ctx context.Context, id string) (contact.Contact, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+columns+` FROM contacts WHERE id = ?`, id)
	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return contact.Contact{}, contact.ErrNotFound
	}
	if err != nil {
		return contact.Contact{}, fmt.Errorf("getting contact: %w", err)
	}
	return c, nil
}

// List returns all contacts, favorites first, then by name
func (db *DB) List(ctx context.Context) ([]contact.Contact, error) {
	return db.query(ctx, `SELECT `+columns+` FROM contacts`+orderBy)
}

const orderBy = `
		ORDER BY favorite DESC, lower(last_name), lower(first_name)`

// Search returns contacts whose name, company, email or phone contains query
func (db *DB) Search(ctx context.Context, query string) ([]contact.Contact, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return db.List(ctx)
	}

	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	return db.query(ctx, `
		SELECT `+columns+`
		FROM contacts
		WHERE lower(first_name || ' ' || last_name) LIKE ?1 ESCAPE '\'
		   OR lower(coalesce(company, '')) LIKE ?1 ESCAPE '\'
		   OR lower(coalesce(email, '')) LIKE ?1 ESCAPE '\'
		   OR coalesce(phone, '') LIKE ?1 ESCAPE '\'`+orderBy, pattern)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (db *DB) query(ctx context.Context, query string, args ...any) ([]contact.Contact, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying contacts: %w", err)
	}
	defer rows.Close()

	var contacts []contact.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning contact: %w", err)
		}
		contacts = append(contacts, c)
	}

	return contacts, rows.Err()
}

// Create inserts a new contact and returns it with its ID
func (db *DB) Create(ctx context.Context, c contact.Contact) (contact.Contact, error) {
	c.Normalize()
	if err := c.Validate(); err != nil {
		return contact.Contact{}, err
	}

	c.ID = uuid.NewString()
	now := db.now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO contacts (
			id, first_name, last_name, phone, email, company, notes, avatar,
			favorite, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.FirstName, c.LastName,
		NewNullString(c.Phone), NewNullString(c.Email), NewNullString(c.Company),
		NewNullString(c.Notes), NewNullString(c.Avatar),
		c.Favorite, formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	if err != nil {
		return contact.Contact{}, fmt.Errorf("inserting contact: %w", err)
	}

	db.log.Debug("contact created", zap.String("contact_id", c.ID))
	db.broker.Publish(contact.Event{Kind: contact.Created, ID: c.ID})
	return c, nil
}

// Update updates the editable fields of a contact. The favorite flag is
// only changed through ToggleFavorite.
func (db *DB) Update(ctx context.Context, c contact.Contact) (contact.Contact, error) {
	c.Normalize()
	if err := c.Validate(); err != nil {
		return contact.Contact{}, err
	}

	result, err := db.conn.ExecContext(ctx, `
		UPDATE contacts
		SET first_name = ?,
		    last_name = ?,
		    phone = ?,
		    email = ?,
		    company = ?,
		    notes = ?,
		    avatar = ?,
		    updated_at = ?
		WHERE id = ?`,
		c.FirstName, c.LastName,
		NewNullString(c.Phone), NewNullString(c.Email), NewNullString(c.Company),
		NewNullString(c.Notes), NewNullString(c.Avatar),
		formatTime(db.now()),
		c.ID,
	)
	if err != nil {
		return contact.Contact{}, fmt.Errorf("updating contact: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return contact.Contact{}, contact.ErrNotFound
	}

	db.broker.Publish(contact.Event{Kind: contact.Updated, ID: c.ID})
	return db.Get(ctx, c.ID)
}

// Delete permanently deletes a contact. Missing contacts are not an error.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting contact: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting contact: %w", err)
	}
	if n == 0 {
		return nil
	}

	db.log.Info("contact deleted", zap.String("contact_id", id))
	db.broker.Publish(contact.Event{Kind: contact.Deleted, ID: id})
	return nil
}

// ToggleFavorite flips the favorite flag in the background. Failures are
// logged; subscribers see an Updated event on success.
func (db *DB) ToggleFavorite(id string) {
	db.mu.Lock()
	if db.closed {
		db.mu.Unlock()
		db.log.Warn("favorite toggle after close", zap.String("contact_id", id))
		return
	}
	db.pending.Add(1)
	db.mu.Unlock()

	go func() {
		defer db.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), db.favoriteTimeout)
		defer cancel()

		result, err := db.conn.ExecContext(ctx,
			`UPDATE contacts SET favorite = NOT favorite, updated_at = ? WHERE id = ?`,
			formatTime(db.now()), id)
		if err != nil {
			db.log.Error("toggling favorite failed", zap.String("contact_id", id), zap.Error(err))
			return
		}
		if n, _ := result.RowsAffected(); n == 0 {
			db.log.Debug("favorite toggle for missing contact", zap.String("contact_id", id))
			return
		}
			db.broker.Publish(contact.Event{Kind: contact.Updated, ID: id})
	}()
}

// Flush waits for background mutations started so far
func (db *DB) Flush() {
	db.pending.Wait()
}

// Count returns the number of contacts
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting contacts: %w", err)
	}
	return n, nil
}
