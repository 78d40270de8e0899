// Package previewcache caches web preview results in BadgerDB so
// reprocessing a record does not refetch pages that were already
// snapshotted. Entries expire via Badger's TTL support.
package previewcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"satchel/internal/logging"
)

// Entry is a cached web preview.
type Entry struct {
	URL         string    `json:"url"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	SiteName    string    `json:"site_name,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Canonical   string    `json:"canonical,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Cache wraps a Badger database keyed by canonical URL.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

// Open initializes the cache at dir. TTL bounds how long entries are
// served before Badger drops them.
func Open(dir string, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	opts := badger.DefaultOptions(dir)
	opts.Logger = newBadgerLogger(logging.WithComponent(logger, "previewcache"))
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open preview cache at %s: %w", dir, err)
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Cache{db: db, ttl: ttl}, nil
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns the cached entry for url, or nil on a miss.
func (c *Cache) Get(url string) (*Entry, error) {
	var entry *Entry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(url))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			var decoded Entry
			if err := json.Unmarshal(value, &decoded); err != nil {
				return err
			}
			entry = &decoded
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("preview cache get: %w", err)
	}
	return entry, nil
}

// Put stores an entry with the cache TTL.
func (c *Cache) Put(url string, entry Entry) error {
	entry.FetchedAt = time.Now().UTC()
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("preview cache marshal: %w", err)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(url), data).WithTTL(c.ttl)
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("preview cache put: %w", err)
	}
	return nil
}

// badgerLogger adapts slog to Badger's internal logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func newBadgerLogger(logger *slog.Logger) badger.Logger {
	return &badgerLogger{logger: logger}
}

func (b *badgerLogger) Errorf(format string, args ...any) {
	b.logger.Error(fmt.Sprintf(format, args...))
}

func (b *badgerLogger) Warningf(format string, args ...any) {
	b.logger.Warn(fmt.Sprintf(format, args...))
}

func (b *badgerLogger) Infof(format string, args ...any) {
	b.logger.Debug(fmt.Sprintf(format, args...))
}

func (b *badgerLogger) Debugf(format string, args ...any) {
	b.logger.Debug(fmt.Sprintf(format, args...))
}
