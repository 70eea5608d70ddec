package registry

import (
	"context"
	"fmt"

	"github.com/homegrid-labs/mobile-gateway/internal/model"
	"go.uber.org/zap"
)

// RegisterSensor inserts a new sensor entry and persists. Registration is
// create-once: an existing composite key fails with ErrSensorExists and the
// stored entry is left untouched.
func (r *Registry) RegisterSensor(ctx context.Context, sensor *model.Sensor) error {
	lk := r.lockKey(sensor.WebhookID)
	lk.Lock()
	defer lk.Unlock()

	key := sensor.Key()
	return r.commit(ctx, func() error {
		if _, exists := r.sensors[key]; exists {
			return ErrSensorExists
		}
		r.sensors[key] = sensor.Clone()
		return nil
	})
}

// Sensor returns a copy of the entry for the composite key.
func (r *Registry) Sensor(webhookID, uniqueID string) (*model.Sensor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sensor, ok := r.sensors[model.SensorKey(webhookID, uniqueID)]
	if !ok {
		return nil, ErrSensorNotFound
	}
	return sensor.Clone(), nil
}

// UpdateSensor shallow-merges a partial entry over the stored one and
// persists, returning the merged result. An unknown composite key fails with
// ErrSensorNotFound.
func (r *Registry) UpdateSensor(ctx context.Context, webhookID string, upd model.SensorUpdate) (*model.Sensor, error) {
	lk := r.lockKey(webhookID)
	lk.Lock()
	defer lk.Unlock()

	key := model.SensorKey(webhookID, upd.UniqueID)
	var merged *model.Sensor
	err := r.commit(ctx, func() error {
		sensor, ok := r.sensors[key]
		if !ok {
			return ErrSensorNotFound
		}
		upd.Apply(sensor)
		merged = sensor.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// SensorsForDevice returns copies of all sensor entries owned by the
// webhook ID.
func (r *Registry) SensorsForDevice(webhookID string) []*model.Sensor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Sensor
	for _, sensor := range r.sensors {
		if sensor.WebhookID == webhookID {
			out = append(out, sensor.Clone())
		}
	}
	return out
}

// PruneOrphans removes sensor entries whose owning device no longer has a
// live registration. Deletion of a device does not cascade inline; this is
// the explicit reconciliation pass. Returns the number of entries removed.
func (r *Registry) PruneOrphans(ctx context.Context) (int, error) {
	pruned := 0
	err := func() error {
		r.mu.Lock()
		for key, sensor := range r.sensors {
			if _, live := r.devices[sensor.WebhookID]; !live {
				delete(r.sensors, key)
				pruned++
			}
		}
		snap := r.snapshotLocked()
		r.mu.Unlock()
		if pruned == 0 {
			return nil
		}
		if err := r.store.Save(ctx, snap); err != nil {
			return fmt.Errorf("%w: %w", ErrPersistence, err)
		}
		return nil
	}()
	if err != nil {
		return pruned, err
	}
	if pruned > 0 {
		r.logger.Info("orphaned sensors pruned", zap.Int("count", pruned))
	}
	return pruned, nil
}
