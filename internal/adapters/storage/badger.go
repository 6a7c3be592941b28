package storage

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerStore implements Store on an embedded badger database. It is the
// production persistence layer; state survives process restarts.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a badger database per the given options.
func NewBadgerStore(opts ...BadgerOption) (*BadgerStore, error) {
	cfg := badgerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	bopts := badger.DefaultOptions(cfg.dataDir)
	if cfg.inMemory {
		bopts = bopts.WithInMemory(true)
	}
	if cfg.syncWrites {
		bopts = bopts.WithSyncWrites(true)
	}
	// Quiet by default; badger's own logger is noisy at info level.
	bopts = bopts.WithLogger(nil)

	// Low-memory tuning for a device-resident store holding a handful of
	// small records.
	bopts = bopts.
		WithMemTableSize(16 << 20).
		WithValueLogFileSize(64 << 20).
		WithNumMemtables(2).
		WithNumLevelZeroTables(2).
		WithNumLevelZeroTablesStall(4)

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Get returns the value for key. Returns ErrNotFound on miss.
func (s *BadgerStore) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger get %q: %w", key, err)
	}
	return out, nil
}

// Set writes value under key.
func (s *BadgerStore) Set(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("badger set %q: %w", key, err)
	}
	return nil
}

// Remove deletes key. Idempotent.
func (s *BadgerStore) Remove(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("badger remove %q: %w", key, err)
	}
	return nil
}

// MultiGet returns values for the given keys, omitting misses.
func (s *BadgerStore) MultiGet(_ context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, k := range keys {
			item, err := txn.Get([]byte(k))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out[k] = v
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger multiget: %w", err)
	}
	return out, nil
}

// MultiRemove deletes all given keys in one write batch.
func (s *BadgerStore) MultiRemove(_ context.Context, keys []string) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, k := range keys {
		if err := wb.Delete([]byte(k)); err != nil {
			return fmt.Errorf("badger multiremove: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("badger multiremove flush: %w", err)
	}
	return nil
}

// Keys returns every stored key with the given prefix.
func (s *BadgerStore) Keys(_ context.Context, prefix string) ([]string, error) {
	var out []string
	err := s.db.View(func(txn *badger.Txn) error {
		iopts := badger.DefaultIteratorOptions
		iopts.PrefetchValues = false
		iopts.Prefix = []byte(prefix)

		it := txn.NewIterator(iopts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			out = append(out, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger keys %q: %w", prefix, err)
	}
	return out, nil
}

// Close shuts the database down.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Ensure BadgerStore implements Store.
var _ Store = (*BadgerStore)(nil)
