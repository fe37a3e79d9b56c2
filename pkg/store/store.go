// Package store persists the two pieces of state a long-lived cephctl
// process needs across restarts: the set of client_challenge nonces
// already spent per peer (so the "must be unpredictable and non-zero"
// CephX invariant never silently degrades into a replay across process
// restarts, wired in by pkg/ceph's Dial via Config.NonceStore) and the
// last MonMap decoded per cluster fsid, grounded on the teacher's
// pkg/metadata/store/badger package: a thin BadgerDB wrapper with
// prefixed keys and JSON-encoded values.
package store

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/cephmsgr/pkg/monmap"
)

// Store is a badger-backed ledger of spent nonces and cached MonMaps.
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) the badger database at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Healthcheck verifies the store can still serve a read transaction.
func (s *Store) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.View(func(txn *badger.Txn) error {
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: healthcheck: %w", err)
	}
	return nil
}

// RecordNonce marks nonce as spent within scope (pkg/ceph scopes this
// by peer address). Returns ErrNonceReused if it was already recorded.
func (s *Store) RecordNonce(ctx context.Context, scope string, nonce uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := keyNonce(scope, hex.EncodeToString(encodeUint64(nonce)))

	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return ErrNonceReused
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		return txn.Set(key, encodeUint64(uint64(time.Now().Unix())))
	})
}

// HasNonce reports whether nonce has already been recorded within scope.
func (s *Store) HasNonce(ctx context.Context, scope string, nonce uint64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	key := keyNonce(scope, hex.EncodeToString(encodeUint64(nonce)))
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("store: has nonce: %w", err)
	}
	return found, nil
}

// PruneNonces deletes nonce entries recorded before olderThan, within
// scope. Callers run this periodically; the ledger otherwise grows
// without bound for a long-lived client.
func (s *Store) PruneNonces(ctx context.Context, scope string, olderThan time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	cutoff := olderThan.Unix()
	var stale [][]byte

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = keyNoncePrefix(scope)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				ts, err := decodeUint64(val)
				if err != nil {
					return err
				}
				if int64(ts) < cutoff {
					key := make([]byte, len(item.Key()))
					copy(key, item.Key())
					stale = append(stale, key)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("store: scan nonces: %w", err)
	}

	if len(stale) == 0 {
		return 0, nil
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("store: prune nonces: %w", err)
	}
	return len(stale), nil
}

// CacheMonMap stores the most recently decoded MonMap for a cluster.
func (s *Store) CacheMonMap(ctx context.Context, fsid string, mm monmap.MonMap) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(mm)
	if err != nil {
		return fmt.Errorf("store: encode monmap: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keyMonMap(fsid), data)
	})
}

// CachedMonMap returns the last MonMap cached for fsid, or ok=false if
// none has been cached yet.
func (s *Store) CachedMonMap(ctx context.Context, fsid string) (mm monmap.MonMap, ok bool, err error) {
	if err := ctx.Err(); err != nil {
		return monmap.MonMap{}, false, err
	}

	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyMonMap(fsid))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if decErr := json.Unmarshal(val, &mm); decErr != nil {
				return decErr
			}
			ok = true
			return nil
		})
	})
	if err != nil {
		return monmap.MonMap{}, false, fmt.Errorf("store: cached monmap: %w", err)
	}
	return mm, ok, nil
}

func encodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func decodeUint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("store: invalid uint64 bytes: expected 8, got %d", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}
