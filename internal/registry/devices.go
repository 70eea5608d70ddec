package registry

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/homegrid-labs/mobile-gateway/internal/crypto"
	"github.com/homegrid-labs/mobile-gateway/internal/model"
	"go.uber.org/zap"
)

// Filter selects a subset of registrations for List.
type Filter struct {
	// AppComponent matches devices bound to the given platform component.
	AppComponent string
	// UserID matches devices owned by the given user.
	UserID string
	// AppDataKey matches devices whose app data bag contains the key.
	AppDataKey string
}

// Register allocates a fresh webhook ID, stores the registration and
// persists. Devices that support encryption get a generated secret. The
// returned device is the registry's full record including the new ID.
func (r *Registry) Register(ctx context.Context, req model.RegistrationRequest, userID string) (*model.Device, error) {
	now := time.Now().UTC()
	device := &model.Device{
		AppID:              req.AppID,
		AppName:            req.AppName,
		AppVersion:         req.AppVersion,
		AppComponent:       req.AppComponent,
		AppData:            req.AppData,
		DeviceName:         req.DeviceName,
		Manufacturer:       req.Manufacturer,
		Model:              req.Model,
		OSVersion:          req.OSVersion,
		SupportsEncryption: req.SupportsEncryption,
		UserID:             userID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if device.AppData == nil {
		device.AppData = map[string]any{}
	}
	if req.SupportsEncryption {
		secret, err := crypto.GenerateSecret(crypto.KeySize)
		if err != nil {
			return nil, err
		}
		device.Secret = secret
	}

	webhookID := r.allocateID()
	device.WebhookID = webhookID

	lk := r.lockKey(webhookID)
	lk.Lock()
	defer lk.Unlock()

	err := r.commit(ctx, func() error {
		r.devices[webhookID] = device.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.logger.Info("device registered",
		zap.String("device_name", device.DeviceName),
		zap.String("app_id", device.AppID))
	return device, nil
}

// allocateID returns a webhook ID that has never been live or deleted.
func (r *Registry) allocateID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for {
		id := strings.ReplaceAll(uuid.NewString(), "-", "")
		if _, taken := r.devices[id]; taken {
			continue
		}
		if _, burned := r.deleted[id]; burned {
			continue
		}
		return id
	}
}

// Update replaces the mutable registration fields, keeping identity fields,
// and persists. Unknown and deleted IDs fail with ErrNotFound / ErrDeleted.
func (r *Registry) Update(ctx context.Context, webhookID string, upd model.RegistrationUpdate) (*model.Device, error) {
	lk := r.lockKey(webhookID)
	lk.Lock()
	defer lk.Unlock()

	var updated *model.Device
	err := r.commit(ctx, func() error {
		if _, gone := r.deleted[webhookID]; gone {
			return ErrDeleted
		}
		device, ok := r.devices[webhookID]
		if !ok {
			return ErrNotFound
		}
		device.AppVersion = upd.AppVersion
		device.DeviceName = upd.DeviceName
		device.Manufacturer = upd.Manufacturer
		device.Model = upd.Model
		device.AppData = upd.AppData
		if upd.OSVersion != "" {
			device.OSVersion = upd.OSVersion
		}
		device.UpdatedAt = time.Now().UTC()
		updated = device.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetCloudhook records cloud relay identifiers provisioned for a device.
func (r *Registry) SetCloudhook(ctx context.Context, webhookID, hookID, hookURL string) error {
	lk := r.lockKey(webhookID)
	lk.Lock()
	defer lk.Unlock()

	return r.commit(ctx, func() error {
		device, ok := r.devices[webhookID]
		if !ok {
			return ErrNotFound
		}
		device.CloudhookID = hookID
		device.CloudhookURL = hookURL
		device.UpdatedAt = time.Now().UTC()
		return nil
	})
}

// Delete burns the webhook ID: the registration is removed and the ID is
// permanently rejected from then on. Deleting an already-deleted or unknown
// ID is a no-op.
func (r *Registry) Delete(ctx context.Context, webhookID string) error {
	lk := r.lockKey(webhookID)
	lk.Lock()
	defer lk.Unlock()

	return r.commit(ctx, func() error {
		delete(r.devices, webhookID)
		r.deleted[webhookID] = struct{}{}
		return nil
	})
}

// Get returns a copy of the registration for the webhook ID. Deleted IDs
// report ErrDeleted so callers can distinguish 410 from 404.
func (r *Registry) Get(webhookID string) (*model.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, gone := r.deleted[webhookID]; gone {
		return nil, ErrDeleted
	}
	device, ok := r.devices[webhookID]
	if !ok {
		return nil, ErrNotFound
	}
	return device.Clone(), nil
}

// IsDeleted reports whether the webhook ID has been burned.
func (r *Registry) IsDeleted(webhookID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, gone := r.deleted[webhookID]
	return gone
}

// List returns copies of all registrations matching the filter.
func (r *Registry) List(filter Filter) []*model.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Device
	for _, device := range r.devices {
		if filter.AppComponent != "" && device.AppComponent != filter.AppComponent {
			continue
		}
		if filter.UserID != "" && device.UserID != filter.UserID {
			continue
		}
		if filter.AppDataKey != "" {
			if _, ok := device.AppData[filter.AppDataKey]; !ok {
				continue
			}
		}
		out = append(out, device.Clone())
	}
	return out
}
