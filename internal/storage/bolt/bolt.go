package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/homegrid-labs/mobile-gateway/internal/model"
	"github.com/homegrid-labs/mobile-gateway/internal/storage"
	bolt "go.etcd.io/bbolt"
)

var _ storage.Store = (*Store)(nil)

var (
	bucketMeta          = []byte("meta")
	bucketRegistrations = []byte("registrations")
	bucketSensors       = []byte("sensors")

	keyVersion    = []byte("version")
	keyDeletedIDs = []byte("deleted_ids")
)

// Store is a BoltDB-backed Store implementation.
type Store struct {
	db *bolt.DB
}

// New initialises the Bolt store.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketMeta, bucketRegistrations, bucketSensors} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying Bolt DB.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the persisted snapshot in a single transaction.
func (s *Store) Save(ctx context.Context, snap *model.Snapshot) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		version, err := json.Marshal(model.SnapshotVersion)
		if err != nil {
			return err
		}
		if err := meta.Put(keyVersion, version); err != nil {
			return err
		}
		deleted, err := json.Marshal(snap.DeletedIDs)
		if err != nil {
			return err
		}
		if err := meta.Put(keyDeletedIDs, deleted); err != nil {
			return err
		}
		if err := rewriteBucket(tx, bucketRegistrations, marshalMap(snap.Registrations)); err != nil {
			return err
		}
		return rewriteBucket(tx, bucketSensors, marshalMap(snap.Sensors))
	})
}

// Load reads the persisted snapshot. ErrNotFound is returned when the store
// has never been written.
func (s *Store) Load(ctx context.Context) (*model.Snapshot, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	snap := model.EmptySnapshot()
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if raw := meta.Get(keyVersion); raw != nil {
			found = true
			if err := json.Unmarshal(raw, &snap.Version); err != nil {
				return fmt.Errorf("decode version: %w", err)
			}
		}
		if raw := meta.Get(keyDeletedIDs); raw != nil {
			if err := json.Unmarshal(raw, &snap.DeletedIDs); err != nil {
				return fmt.Errorf("decode deleted ids: %w", err)
			}
		}
		if err := tx.Bucket(bucketRegistrations).ForEach(func(k, v []byte) error {
			var device model.Device
			if err := json.Unmarshal(v, &device); err != nil {
				return fmt.Errorf("decode registration %s: %w", k, err)
			}
			snap.Registrations[string(k)] = &device
			return nil
		}); err != nil {
			return err
		}
		return tx.Bucket(bucketSensors).ForEach(func(k, v []byte) error {
			var sensor model.Sensor
			if err := json.Unmarshal(v, &sensor); err != nil {
				return fmt.Errorf("decode sensor %s: %w", k, err)
			}
			snap.Sensors[string(k)] = &sensor
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storage.ErrNotFound
	}
	if snap.Version > model.SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d is newer than supported %d", snap.Version, model.SnapshotVersion)
	}
	return snap, nil
}

func rewriteBucket(tx *bolt.Tx, name []byte, encode func() (map[string][]byte, error)) error {
	if err := tx.DeleteBucket(name); err != nil {
		return err
	}
	bkt, err := tx.CreateBucket(name)
	if err != nil {
		return err
	}
	records, err := encode()
	if err != nil {
		return err
	}
	for k, v := range records {
		if err := bkt.Put([]byte(k), v); err != nil {
			return err
		}
	}
	return nil
}

func marshalMap[V any](records map[string]V) func() (map[string][]byte, error) {
	return func() (map[string][]byte, error) {
		out := make(map[string][]byte, len(records))
		for k, v := range records {
			payload, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			out[k] = payload
		}
		return out, nil
	}
}
