// Package badgerstore implements document.Store on an embedded BadgerDB.
//
// Documents are stored as JSON under the key "<collection>/<id>". Ids are
// UUIDv7 so key order within a collection follows insertion order. Queries scan
// the collection prefix and evaluate the filter in process.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"grisera/internal/document"
	"grisera/internal/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Config configures the badger database
type Config struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	InMemory bool

	SyncWrites bool

	// Logger receives BadgerDB's internal logs. Nil disables them.
	Logger *slog.Logger

	// GCInterval is how often value log garbage collection runs. Zero disables it.
	GCInterval     time.Duration
	GCDiscardRatio float64
}

// DefaultConfig returns settings for a persistent database at path
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns settings for a throwaway database
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

var _ document.Store = (*Store)(nil)

// Store implements document.Store
type Store struct {
	db    *badger.DB
	newID func() string

	stop chan struct{}
	wg   sync.WaitGroup
}

// Open opens the database and starts value log GC when configured
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	s := &Store{db: db, newID: newID, stop: make(chan struct{})}
	if !cfg.InMemory && cfg.GCInterval > 0 {
		s.wg.Add(1)
		go s.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return s, nil
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (s *Store) runGC(interval time.Duration, ratio float64) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			// RunValueLogGC rewrites one file per call; loop until nothing is left
			for s.db.RunValueLogGC(ratio) == nil {
			}
		}
	}
}

// Close stops GC and closes the database
func (s *Store) Close() error {
	close(s.stop)
	s.wg.Wait()
	return s.db.Close()
}

func key(collection, id string) []byte {
	return []byte(collection + "/" + id)
}

// Insert stores doc under its id, generating one when missing
func (s *Store) Insert(ctx context.Context, collection string, doc domain.Document) (string, error) {
	id := doc.ID()
	if id == "" {
		id = s.newID()
	}
	stored := doc.Clone()
	stored[domain.IDKey] = id
	data, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(collection, id), data)
	})
	if err != nil {
		return "", fmt.Errorf("insert into %s: %w", collection, err)
	}
	return id, nil
}

// Get returns one document
func (s *Store) Get(ctx context.Context, collection, id string) (domain.Document, error) {
	var doc domain.Document
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(collection, id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%s %s: %w", collection, id, document.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", collection, id, err)
	}
	return doc, nil
}

// Find scans a collection and returns the matching documents in key order
func (s *Store) Find(ctx context.Context, collection string, filter domain.Filter, opts document.FindOptions) ([]domain.Document, error) {
	prefix := []byte(collection + "/")
	var out []domain.Document
	err := s.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var doc domain.Document
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			})
			if err != nil {
				return err
			}
			if filter.Match(doc) {
				out = append(out, opts.Projection.Apply(doc))
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", collection, err)
	}
	return out, nil
}

// Replace overwrites an existing document
func (s *Store) Replace(ctx context.Context, collection, id string, doc domain.Document) error {
	stored := doc.Clone()
	stored[domain.IDKey] = id
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key(collection, id)); err != nil {
			return err
		}
		return txn.Set(key(collection, id), data)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%s %s: %w", collection, id, document.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("replace %s %s: %w", collection, id, err)
	}
	return nil
}

// Delete removes a document
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key(collection, id)); err != nil {
			return err
		}
		return txn.Delete(key(collection, id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%s %s: %w", collection, id, document.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", collection, id, err)
	}
	return nil
}
