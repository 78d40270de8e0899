package queuedir

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"satchel/internal/capture"
	"satchel/internal/logging"
	"satchel/internal/services"
)

// Monotonic entropy keeps ULIDs strictly increasing within one process even
// when several enqueues land in the same millisecond.
var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func newULID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

const (
	itemSuffix    = ".json"
	payloadSuffix = ".payload"
	tempSuffix    = ".tmp"

	// Payloads above this size are spilled to a sidecar file so queue
	// scans stay cheap and the JSON envelope stays small.
	inlinePayloadLimit = 256 * 1024
)

// Store is a file-system-backed durable queue over a shared directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// Pending pairs a decoded item with the file backing it.
type Pending struct {
	Item *capture.Item
	Path string
}

// Open ensures the queue directory exists and returns a store over it.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, services.Wrap(services.ErrValidation, "queuedir", "open", "queue directory is empty", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrStorage, "queuedir", "open", "create queue directory", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{dir: dir, logger: logging.WithComponent(logger, "queuedir")}, nil
}

// Dir returns the queue directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Enqueue serializes the item into the queue directory and returns the
// path of the created file. The file name is a ULID so lexical order
// matches creation order across producers.
func (s *Store) Enqueue(item *capture.Item) (string, error) {
	if err := item.Validate(); err != nil {
		return "", services.Wrap(services.ErrValidation, "queuedir", "enqueue", "invalid item", err)
	}

	name := newULID()
	finalPath := filepath.Join(s.dir, name+itemSuffix)

	envelope := *item
	if len(envelope.Payload) > inlinePayloadLimit {
		payloadPath := filepath.Join(s.dir, name+payloadSuffix)
		if err := writeAtomic(payloadPath, envelope.Payload); err != nil {
			return "", services.Wrap(services.ErrStorage, "queuedir", "enqueue", "write payload sidecar", err)
		}
		envelope.PayloadRef = filepath.Base(payloadPath)
		envelope.Payload = nil
	}

	data, err := json.MarshalIndent(&envelope, "", "  ")
	if err != nil {
		return "", services.Wrap(services.ErrStorage, "queuedir", "enqueue", "marshal item", err)
	}
	if err := writeAtomic(finalPath, data); err != nil {
		return "", services.Wrap(services.ErrStorage, "queuedir", "enqueue", "write item", err)
	}

	s.logger.Debug("item enqueued",
		logging.String(logging.FieldQueueFile, filepath.Base(finalPath)),
		logging.String(logging.FieldCaptureID, item.Descriptor.ID),
		logging.String("action", string(item.Action)),
		logging.String("source", item.Source),
	)
	return finalPath, nil
}

// ListPending returns all decodable items in creation order. Corrupt files
// are logged and skipped; they never fail the scan. Files appearing while
// the scan runs are picked up by the next drain.
func (s *Store) ListPending() ([]Pending, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrStorage, "queuedir", "list", "read queue directory", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, itemSuffix) || strings.HasSuffix(name, tempSuffix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	pending := make([]Pending, 0, len(names))
	for _, name := range names {
		path := filepath.Join(s.dir, name)
		item, err := s.readItem(path)
		if err != nil {
			// A file that vanished mid-scan was consumed by another pass.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			s.logger.Warn("skipping malformed queue file",
				logging.Error(err),
				logging.String(logging.FieldQueueFile, name),
				logging.String(logging.FieldEventType, "queue_item_malformed"),
				logging.String(logging.FieldErrorHint, "remove or inspect the file manually"),
			)
			continue
		}
		pending = append(pending, Pending{Item: item, Path: path})
	}
	return pending, nil
}

// LoadPayload returns the item's media bytes, resolving a sidecar
// reference when the payload was spilled at enqueue time.
func (s *Store) LoadPayload(item *capture.Item) ([]byte, error) {
	if item == nil {
		return nil, services.Wrap(services.ErrValidation, "queuedir", "payload", "item is nil", nil)
	}
	if len(item.Payload) > 0 {
		return item.Payload, nil
	}
	if item.PayloadRef == "" {
		return nil, nil
	}
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.Base(item.PayloadRef)))
	if err != nil {
		return nil, services.Wrap(services.ErrPayloadMissing, "queuedir", "payload", fmt.Sprintf("load %s", item.PayloadRef), err)
	}
	return data, nil
}

// Remove deletes the backing file (and payload sidecar) for a pending
// entry. Removing an already-removed entry is not an error.
func (s *Store) Remove(p Pending) error {
	if err := os.Remove(p.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return services.Wrap(services.ErrStorage, "queuedir", "remove", filepath.Base(p.Path), err)
	}
	if p.Item != nil && p.Item.PayloadRef != "" {
		sidecar := filepath.Join(s.dir, filepath.Base(p.Item.PayloadRef))
		if err := os.Remove(sidecar); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return services.Wrap(services.ErrStorage, "queuedir", "remove", filepath.Base(sidecar), err)
		}
	}
	return nil
}

// MarkDone is an alias for Remove, matching the consumer's vocabulary.
func (s *Store) MarkDone(p Pending) error {
	return s.Remove(p)
}

// Len counts pending item files without decoding them.
func (s *Store) Len() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, services.Wrap(services.ErrStorage, "queuedir", "len", "read queue directory", err)
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, itemSuffix) && !strings.HasSuffix(name, tempSuffix) {
			count++
		}
	}
	return count, nil
}

func (s *Store) readItem(path string) (*capture.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var item capture.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, services.Wrap(services.ErrMalformedItem, "queuedir", "decode", filepath.Base(path), err)
	}
	if err := item.Validate(); err != nil {
		return nil, services.Wrap(services.ErrMalformedItem, "queuedir", "validate", filepath.Base(path), err)
	}
	return &item, nil
}

// writeAtomic writes data to a temp file in the target directory and
// renames it into place so readers never observe partial content.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+tempSuffix+"-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
