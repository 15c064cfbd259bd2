// Package cache stores generated Go code keyed by a digest of everything that
// influences it, so that unchanged views are not compiled again.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/calumari/viewgen/internal/logutil"
)

var logger = logutil.GetLogger("[cache] ")

const bucketGenerated = "generated"

// Cache is a bbolt-backed map from input digests to generated code. It is
// safe for concurrent use.
type Cache struct {
	db *bolt.DB
}

// Open opens or creates the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketGenerated))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize cache: %w", err)
	}
	logger.Printf("opened %s", path)
	return &Cache{db: db}, nil
}

// Key digests parts into a cache key. Each part is length-prefixed so that
// different splits of the same bytes give different keys.
func Key(parts ...[]byte) []byte {
	h := sha256.New()
	var n [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write(p)
	}
	return h.Sum(nil)
}

// Get returns the code stored under key.
func (c *Cache) Get(key []byte) ([]byte, bool, error) {
	var code []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(bucketGenerated)).Get(key); v != nil {
			code = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return code, code != nil, nil
}

// Put stores code under key.
func (c *Cache) Put(key, code []byte) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketGenerated)).Put(key, code)
	})
}

// Len returns the number of stored entries.
func (c *Cache) Len() (int, error) {
	var n int
	err := c.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket([]byte(bucketGenerated)).Stats().KeyN
		return nil
	})
	return n, err
}

// Close closes the database.
func (c *Cache) Close() error { return c.db.Close() }
