package bolt

import (
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/k333333v-jpg/martinez-walker-checkin/internal/store"
)

var (
	bucketQueue = []byte("queue")

	keySnapshot = []byte("snapshot")
)

// Store implements store.SnapshotStore backed by a BoltDB file. All
// instances on the same machine share the file; last writer wins.
type Store struct {
	db *bolt.DB
}

// Open creates the data directory if needed and opens (or creates) the
// database inside it.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	dbPath := filepath.Join(dir, "queue.db")
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{NoSync: false})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketQueue)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Save(data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketQueue).Put(keySnapshot, data)
	})
}

func (s *Store) Load() ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketQueue).Get(keySnapshot)
		if v == nil {
			return store.ErrNoSnapshot
		}
		data = make([]byte, len(v))
		copy(data, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
