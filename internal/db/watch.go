package db

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/pdxmph/pocket-contacts/internal/contact"
)

// Watch publishes a Reloaded event when another process changes the
// database file. It blocks until ctx is done.
func (db *DB) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// SQLite replaces journal files, so watch the directory rather than the file
	dir := filepath.Dir(db.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	db.log.Debug("watching database", zap.String("dir", dir))

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !db.isDatabaseFile(event.Name) || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// Debounce bursts of writes into one reload
			if timer == nil {
				timer = time.NewTimer(db.debounce)
			} else {
				timer.Reset(db.debounce)
			}
			fire = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			db.log.Warn("watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			changed, err := db.changedElsewhere(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				db.log.Warn("checking data version failed", zap.Error(err))
				continue
			}
			if !changed {
				continue
			}
			db.log.Debug("database changed on disk")
			db.broker.Publish(contact.Event{Kind: contact.Reloaded})
		}
	}
}

func (db *DB) isDatabaseFile(name string) bool {
	base := filepath.Base(db.path)
	switch filepath.Base(name) {
	case base, base + "-wal", base + "-journal":
		return true
	default:
		return false
	}
}

// changedElsewhere reports whether another connection committed since the
// last call. SQLite leaves data_version alone for this connection's own commits.
func (db *DB) changedElsewhere(ctx context.Context) (bool, error) {
	var v int64
	if err := db.conn.QueryRowContext(ctx, `PRAGMA data_version`).Scan(&v); err != nil {
		return false, err
	}
	return db.dataVersion.Swap(v) != v, nil
}
