package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var visitsBucket = []byte("visits")

// BoltStore wraps BoltDB, keyed by document path.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore initializes the BoltDB file and ensures the bucket exists.
func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(visitsBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Load(document string) (Visit, error) {
	if s == nil || s.db == nil {
		return Visit{}, bolt.ErrDatabaseNotOpen
	}
	var v Visit
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(visitsBucket).Get([]byte(document))
		if raw == nil {
			return ErrNotFound
		}
		return json.Unmarshal(raw, &v)
	})
	return v, err
}

func (s *BoltStore) Save(v Visit) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(visitsBucket).Put([]byte(v.Document), payload)
	})
}

// Close releases the database file lock.
func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
