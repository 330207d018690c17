// Package history provides persistent storage for completed runs.
// Every operation, whether triggered over HTTP or by the scheduler,
// is recorded here so results survive restarts and can be fetched
// later by run id. The orchestrator itself stays stateless; history
// is strictly a server-layer concern.

package history

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	runsBucket  = "runs"
	indexBucket = "runs_by_id"
)

// ErrNotFound is returned by Get when no run has the given id.
var ErrNotFound = errors.New("run not found")

// Record is a completed operation as stored in history.
// The fields mirror the HTTP operation response one to one.
type Record struct {
	RunID      string         `json:"run_id"`
	Task       string         `json:"task"`
	Command    string         `json:"command"`
	ReturnCode int            `json:"return_code"`
	Stdout     string         `json:"stdout"`
	Stderr     string         `json:"stderr"`
	Metrics    map[string]any `json:"metrics"`
	Artifacts  []string       `json:"artifacts"`
	Success    bool           `json:"success"`
	Timestamp  time.Time      `json:"timestamp"`

	// Source is "http" for API-triggered runs and "schedule" for
	// runs started by the built-in scheduler.
	Source string `json:"source"`
}

// Store provides persistent run storage backed by bbolt.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the history database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(runsBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(indexBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Put stores a completed run. Records are kept in insertion order via
// an auto-incremented sequence key, with a run-id index for lookups.
func (s *Store) Put(r *Record) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))

		seq, _ := b.NextSequence()

		data, err := json.Marshal(r)
		if err != nil {
			return err
		}

		if err := b.Put(itob(seq), data); err != nil {
			return err
		}
		return tx.Bucket([]byte(indexBucket)).Put([]byte(r.RunID), itob(seq))
	})
}

// Get returns the run with the given id, or ErrNotFound.
func (s *Store) Get(runID string) (*Record, error) {
	var rec *Record

	err := s.db.View(func(tx *bolt.Tx) error {
		seq := tx.Bucket([]byte(indexBucket)).Get([]byte(runID))
		if seq == nil {
			return ErrNotFound
		}
		data := tx.Bucket([]byte(runsBucket)).Get(seq)
		if data == nil {
			return ErrNotFound
		}
		var r Record
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		rec = &r
		return nil
	})

	return rec, err
}

// List returns up to limit runs, newest first.
func (s *Store) List(limit int) ([]*Record, error) {
	records := []*Record{}

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(runsBucket)).Cursor()

		for k, v := c.Last(); k != nil && len(records) < limit; k, v = c.Prev() {
			var r Record
			if err := json.Unmarshal(v, &r); err != nil {
				continue
			}
			records = append(records, &r)
		}
		return nil
	})

	return records, err
}

// Count returns the number of stored runs.
func (s *Store) Count() (int, error) {
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket([]byte(runsBucket)).Stats().KeyN
		return nil
	})
	return count, err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// itob converts uint64 to big-endian bytes for ordered keys
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
