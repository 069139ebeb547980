package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	// IndexFile is the BoltDB file name inside the local repository
	IndexFile = ".protogen-index.db"

	artifactsBucket = "artifacts"
	metadataBucket  = "metadata"
)

// Index tracks downloaded artifacts and cached version metadata using BoltDB
type Index struct {
	db *bbolt.DB
}

// OpenIndex opens or creates the index database at path
func OpenIndex(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{artifactsBucket, metadataBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index buckets: %w", err)
	}

	return &Index{db: db}, nil
}

// Close closes the index database
func (i *Index) Close() error {
	if i.db != nil {
		return i.db.Close()
	}

	return nil
}

// Put stores an artifact entry, replacing any previous one
func (i *Index) Put(entry Entry) error {
	return i.put(artifactsBucket, entry.Coordinates, entry)
}

// Get returns the entry for coordinates, or nil on a miss
func (i *Index) Get(coordinates string) (*Entry, error) {
	var entry Entry
	found, err := i.get(artifactsBucket, coordinates, &entry)
	if err != nil || !found {
		return nil, err
	}

	return &entry, nil
}

// Entries returns every artifact entry in key order
func (i *Index) Entries() ([]Entry, error) {
	var entries []Entry
	err := i.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(artifactsBucket)).ForEach(func(_, v []byte) error {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}

			entries = append(entries, entry)
			return nil
		})
	})

	return entries, err
}

// PutMetadata stores a version list
func (i *Index) PutMetadata(m Metadata) error {
	return i.put(metadataBucket, m.Key, m)
}

// Metadata returns the cached version list for key, or nil on a miss
func (i *Index) Metadata(key string) (*Metadata, error) {
	var m Metadata
	found, err := i.get(metadataBucket, key, &m)
	if err != nil || !found {
		return nil, err
	}

	return &m, nil
}

// Stats returns the number of artifact entries and their total size
func (i *Index) Stats() (int, int64, error) {
	entries, err := i.Entries()
	if err != nil {
		return 0, 0, err
	}

	var total int64
	for _, e := range entries {
		total += e.Size
	}

	return len(entries), total, nil
}

// Clear removes all entries and cached metadata
func (i *Index) Clear() error {
	return i.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{artifactsBucket, metadataBucket} {
			if err := tx.DeleteBucket([]byte(name)); err != nil {
				return err
			}

			if _, err := tx.CreateBucket([]byte(name)); err != nil {
				return err
			}
		}

		return nil
	})
}

func (i *Index) put(bucket, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	err = i.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucket)).Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("failed to store %s entry %s: %w", bucket, key, err)
	}

	return nil
}

func (i *Index) get(bucket, key string, into any) (bool, error) {
	var found bool
	err := i.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucket)).Get([]byte(key))
		if data == nil {
			return nil
		}

		found = true
		return json.Unmarshal(data, into)
	})

	return found, err
}
