package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Buckets used by the digest pipeline.
var (
	BucketPrefetch    = []byte("prefetch")
	BucketSubscribers = []byte("subscribers")
	BucketRuns        = []byte("runs")
)

// Store is a bbolt-backed key-value store. Put replaces the whole value
// atomically inside a single write transaction, so readers never observe a
// partially written blob.
type Store struct {
	db *bolt.DB
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{BucketPrefetch, BucketSubscribers, BucketRuns} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value stored under key, and whether it was present.
func (s *Store) Get(bucket, key []byte) ([]byte, bool, error) {
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucket).Get(key)
		if data != nil {
			value = make([]byte, len(data))
			copy(value, data)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("reading %s/%s: %w", bucket, key, err)
	}
	return value, value != nil, nil
}

func (s *Store) Put(bucket, key, value []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put(key, value)
	})
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *Store) Delete(bucket, key []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete(key)
	})
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Keys lists all keys in a bucket in byte order.
func (s *Store) Keys(bucket []byte) ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", bucket, err)
	}
	return keys, nil
}

// ForEach calls fn for every key/value pair in a bucket.
func (s *Store) ForEach(bucket []byte, fn func(key string, value []byte) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).ForEach(func(k, v []byte) error {
			return fn(string(k), v)
		})
	})
}
