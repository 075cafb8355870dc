// Package store persists the last poll snapshot per device in a local bbolt
// file so the bridge can publish retained state and availability immediately
// after a restart, before the first poll completes.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/victor987/hitemp/internal/types"
)

// ErrNotFound is returned when no snapshot is cached for a device.
var ErrNotFound = errors.New("not found")

var bucketSnapshots = []byte("snapshots")

// Store is a bbolt-backed snapshot cache.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSnapshots)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// SaveSnapshot writes the snapshot for its device, replacing any previous one.
func (s *Store) SaveSnapshot(snap *types.Snapshot) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(snap)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketSnapshots).Put([]byte(snap.Device.DeviceCode), data)
	})
}

// Snapshot loads the cached snapshot for a device.
func (s *Store) Snapshot(deviceCode string) (*types.Snapshot, error) {
	var snap types.Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketSnapshots).Get([]byte(deviceCode))
		if data == nil {
			return fmt.Errorf("snapshot %s: %w", deviceCode, ErrNotFound)
		}
		return json.Unmarshal(data, &snap)
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Snapshots loads every cached snapshot.
func (s *Store) Snapshots() ([]*types.Snapshot, error) {
	var out []*types.Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSnapshots).ForEach(func(_, data []byte) error {
			var snap types.Snapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				return err
			}
			out = append(out, &snap)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteSnapshot drops the cached snapshot for a device, typically after it
// was unshared from the account.
func (s *Store) DeleteSnapshot(deviceCode string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSnapshots).Delete([]byte(deviceCode))
	})
}
