// Package resultcache stores analysis results in a small bbolt database so
// repeated runs over unchanged inputs skip the engine entirely. Entries are
// keyed by absolute input path and invalidated when the input's size or
// modification time changes.
package resultcache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	systree "github.com/systree/systree-go"
)

const bucketName = "analysis"

// Cache is a bbolt-backed analysis result cache.
type Cache struct {
	db *bolt.DB
}

// entry is the stored record: the result plus the input fingerprint it was
// computed against.
type entry struct {
	Size    int64                   `json:"size"`
	ModTime time.Time               `json:"mod_time"`
	Result  *systree.AnalysisResult `json:"result"`
}

// Open opens (creating if needed) the cache database at dir/results.db.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	db, err := bolt.Open(filepath.Join(dir, "results.db"), 0o644, &bolt.Options{
		Timeout: time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("open result cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the database file.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached result for input when the fingerprint still
// matches. The second return is false on miss or stale entry.
func (c *Cache) Get(input string) (*systree.AnalysisResult, bool) {
	key, size, modTime, err := fingerprint(input)
	if err != nil {
		return nil, false
	}

	var e entry
	err = c.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket == nil {
			return bolt.ErrBucketNotFound
		}
		data := bucket.Get([]byte(key))
		if data == nil {
			return bolt.ErrBucketNotFound
		}
		return json.Unmarshal(data, &e)
	})
	if err != nil {
		return nil, false
	}
	if e.Size != size || !e.ModTime.Equal(modTime) {
		return nil, false
	}
	return e.Result, true
}

// Put stores the result for input under its current fingerprint.
func (c *Cache) Put(input string, result *systree.AnalysisResult) error {
	key, size, modTime, err := fingerprint(input)
	if err != nil {
		return err
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		if err != nil {
			return err
		}
		data, err := json.Marshal(entry{Size: size, ModTime: modTime, Result: result})
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), data)
	})
}

// Clear drops every cached result.
func (c *Cache) Clear() error {
	return c.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(bucketName)) == nil {
			return nil
		}
		return tx.DeleteBucket([]byte(bucketName))
	})
}

// fingerprint identifies an input by absolute path plus size and mtime.
// Only regular files are cacheable: a directory's stat does not change when
// a file inside it is edited in place.
func fingerprint(input string) (key string, size int64, modTime time.Time, err error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return "", 0, time.Time{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", 0, time.Time{}, err
	}
	if info.IsDir() {
		return "", 0, time.Time{}, fmt.Errorf("directory inputs are not cached: %s", abs)
	}
	return abs, info.Size(), info.ModTime(), nil
}
