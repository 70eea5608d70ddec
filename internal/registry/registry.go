package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/homegrid-labs/mobile-gateway/internal/model"
	"github.com/homegrid-labs/mobile-gateway/internal/storage"
	"go.uber.org/zap"
)

// Registry owns the in-memory device registrations, the deleted-ID set and
// the sensor state table, all persisted together as one snapshot.
//
// Concurrency discipline: the global mutex guards map access only and is
// never held across persistence I/O. Writes for one webhook ID are
// serialized by a per-key lock held across mutate-and-persist, which gives
// arrival-order persistence within one device without stalling unrelated
// devices. The shared snapshot itself is last-write-wins.
type Registry struct {
	store  storage.Store
	logger *zap.Logger

	mu       sync.RWMutex
	devices  map[string]*model.Device
	deleted  map[string]struct{}
	sensors  map[string]*model.Sensor

	keysMu sync.Mutex
	keys   map[string]*sync.Mutex
}

// New creates an empty registry backed by the given store.
func New(store storage.Store, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		store:   store,
		logger:  logger,
		devices: make(map[string]*model.Device),
		deleted: make(map[string]struct{}),
		sensors: make(map[string]*model.Sensor),
		keys:    make(map[string]*sync.Mutex),
	}
}

// Restore loads the persisted snapshot into memory. A store that has never
// been written yields an empty registry.
func (r *Registry) Restore(ctx context.Context) error {
	snap, err := r.store.Load(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("restore snapshot: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices = make(map[string]*model.Device, len(snap.Registrations))
	for id, device := range snap.Registrations {
		r.devices[id] = device.Clone()
	}
	r.deleted = make(map[string]struct{}, len(snap.DeletedIDs))
	for _, id := range snap.DeletedIDs {
		r.deleted[id] = struct{}{}
	}
	r.sensors = make(map[string]*model.Sensor, len(snap.Sensors))
	for key, sensor := range snap.Sensors {
		r.sensors[key] = sensor.Clone()
	}
	r.logger.Info("registry restored",
		zap.Int("registrations", len(r.devices)),
		zap.Int("deleted_ids", len(r.deleted)),
		zap.Int("sensors", len(r.sensors)))
	return nil
}

// lockKey returns the write-serialization lock for one webhook ID.
func (r *Registry) lockKey(webhookID string) *sync.Mutex {
	r.keysMu.Lock()
	defer r.keysMu.Unlock()
	lk, ok := r.keys[webhookID]
	if !ok {
		lk = &sync.Mutex{}
		r.keys[webhookID] = lk
	}
	return lk
}

// commit runs apply under the global lock, then persists the resulting
// snapshot outside it. The per-key lock must already be held by the caller.
func (r *Registry) commit(ctx context.Context, apply func() error) error {
	r.mu.Lock()
	if err := apply(); err != nil {
		r.mu.Unlock()
		return err
	}
	snap := r.snapshotLocked()
	r.mu.Unlock()

	if err := r.store.Save(ctx, snap); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// snapshotLocked builds a point-in-time snapshot. Caller holds r.mu.
func (r *Registry) snapshotLocked() *model.Snapshot {
	snap := &model.Snapshot{
		Version:       model.SnapshotVersion,
		DeletedIDs:    make([]string, 0, len(r.deleted)),
		Registrations: make(map[string]*model.Device, len(r.devices)),
		Sensors:       make(map[string]*model.Sensor, len(r.sensors)),
	}
	for id := range r.deleted {
		snap.DeletedIDs = append(snap.DeletedIDs, id)
	}
	for id, device := range r.devices {
		snap.Registrations[id] = device.Clone()
	}
	for key, sensor := range r.sensors {
		snap.Sensors[key] = sensor.Clone()
	}
	return snap
}
