// Package webhook implements the per-device webhook dispatcher: envelope
// validation, the encryption gate, payload resolution, type routing and
// execution of the seven request kinds.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/homegrid-labs/mobile-gateway/internal/capability"
	"github.com/homegrid-labs/mobile-gateway/internal/crypto"
	"github.com/homegrid-labs/mobile-gateway/internal/model"
	"github.com/homegrid-labs/mobile-gateway/internal/registry"
	"github.com/homegrid-labs/mobile-gateway/internal/signal"
	"go.uber.org/zap"
)

const defaultDiscoveryTimeout = 30 * time.Second

// Config wires the dispatcher's collaborators. Registry and Bus are
// required; every capability may be nil, in which case the affected request
// kinds degrade per the error policy (call_service fails hard, the rest are
// logged and ignored).
type Config struct {
	Registry   *registry.Registry
	Bus        *signal.Bus
	Services   capability.ServiceCaller
	Events     capability.EventBus
	Templates  capability.TemplateRenderer
	Tracker    capability.Tracker
	Cloudhooks capability.CloudhookProvisioner
	Discovery  capability.SensorDiscovery
	Components map[string]capability.AppComponent
	Logger     *zap.Logger
}

// Dispatcher processes inbound webhook requests. Each request is handled to
// completion or rejected at the first failing transition; no state survives
// across requests.
type Dispatcher struct {
	registry   *registry.Registry
	bus        *signal.Bus
	services   capability.ServiceCaller
	events     capability.EventBus
	templates  capability.TemplateRenderer
	tracker    capability.Tracker
	cloudhooks capability.CloudhookProvisioner
	discovery  capability.SensorDiscovery
	components map[string]capability.AppComponent
	logger     *zap.Logger
}

// New builds a dispatcher from the config.
func New(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		registry:   cfg.Registry,
		bus:        cfg.Bus,
		services:   cfg.Services,
		events:     cfg.Events,
		templates:  cfg.Templates,
		tracker:    cfg.Tracker,
		cloudhooks: cfg.Cloudhooks,
		discovery:  cfg.Discovery,
		components: cfg.Components,
		logger:     logger,
	}
}

// Handle runs one webhook request through the state machine and returns the
// transport-agnostic result.
func (d *Dispatcher) Handle(ctx context.Context, webhookID string, body []byte) *Result {
	// Deleted IDs are rejected before any body processing.
	if d.registry.IsDeleted(webhookID) {
		return &Result{Status: http.StatusGone}
	}
	device, err := d.registry.Get(webhookID)
	if err != nil {
		return &Result{Status: http.StatusNotFound}
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		d.logger.Warn("received invalid webhook JSON",
			zap.String("device_name", device.DeviceName))
		return &Result{Status: http.StatusBadRequest, Body: []byte("[]")}
	}

	// Devices that claim encryption capability are never served in the clear.
	if device.SupportsEncryption && !env.Encrypted {
		d.logger.Warn("refusing to accept unencrypted webhook",
			zap.String("device_name", device.DeviceName))
		return d.emptyOK(device, nil)
	}

	if env.Type == "" || (env.Encrypted && env.EncryptedData == "") {
		d.logger.Error("invalid webhook envelope",
			zap.String("device_name", device.DeviceName),
			zap.String("type", env.Type))
		return d.emptyOK(device, nil)
	}

	payload := env.Data
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	if env.Encrypted {
		if device.Secret == "" {
			d.logger.Warn("ignoring encrypted payload, no decryption key known",
				zap.String("device_name", device.DeviceName))
			return d.emptyOK(device, nil)
		}
		plaintext, err := crypto.Decrypt(env.EncryptedData, crypto.KeyFromSecret(device.Secret))
		if err != nil {
			d.logger.Warn("ignoring encrypted payload, unable to decrypt",
				zap.String("device_name", device.DeviceName))
			return d.emptyOK(device, nil)
		}
		payload = plaintext
	}

	headers := d.cloudhookHeaders(ctx, device)

	switch Kind(env.Type) {
	case KindCallService:
		return d.handleCallService(ctx, device, payload, headers)
	case KindFireEvent:
		return d.handleFireEvent(ctx, device, payload, headers)
	case KindRenderTemplate:
		return d.handleRenderTemplate(ctx, device, payload, headers)
	case KindUpdateLocation:
		return d.handleUpdateLocation(ctx, device, payload, headers)
	case KindUpdateRegistration:
		return d.handleUpdateRegistration(ctx, device, payload, headers)
	case KindRegisterSensor:
		return d.handleRegisterSensor(ctx, device, payload, headers)
	case KindUpdateSensorStates:
		return d.handleUpdateSensorStates(ctx, device, payload, headers)
	default:
		return d.delegate(ctx, device, env.Type, payload, headers)
	}
}

// cloudhookHeaders lazily provisions a cloudhook for locally-reachable
// devices and advertises it via response headers. Provisioning failures are
// logged only.
func (d *Dispatcher) cloudhookHeaders(ctx context.Context, device *model.Device) map[string]string {
	if d.cloudhooks == nil {
		return nil
	}
	hookID, hookURL := device.CloudhookID, device.CloudhookURL
	if hookURL == "" {
		var err error
		hookID, hookURL, err = d.cloudhooks.CreateCloudhook(ctx, device.WebhookID)
		if err != nil {
			d.logger.Error("error creating cloudhook",
				zap.String("device_name", device.DeviceName), zap.Error(err))
			return nil
		}
		if err := d.registry.SetCloudhook(ctx, device.WebhookID, hookID, hookURL); err != nil {
			d.logger.Error("error storing cloudhook",
				zap.String("device_name", device.DeviceName), zap.Error(err))
		}
	}
	return map[string]string{
		"X-Cloud-Hook-ID":  hookID,
		"X-Cloud-Hook-URL": hookURL,
	}
}

func (d *Dispatcher) handleCallService(ctx context.Context, device *model.Device, raw json.RawMessage, headers map[string]string) *Result {
	p, err := decodeCallService(raw)
	if err != nil {
		d.logSchemaViolation(device, KindCallService, err)
		return d.emptyOK(device, headers)
	}
	if d.services == nil {
		err = errors.New("service capability not configured")
	} else {
		err = d.services.CallService(ctx, p.Domain, p.Service, p.ServiceData, device.UserID)
	}
	if err != nil {
		// The one failure that is surfaced: it indicates a
		// caller-correctable request.
		d.logger.Error("error calling service from webhook",
			zap.String("device_name", device.DeviceName),
			zap.String("domain", p.Domain),
			zap.String("service", p.Service),
			zap.Error(err))
		return &Result{Status: http.StatusBadRequest, Headers: headers}
	}
	return d.emptyOK(device, headers)
}

func (d *Dispatcher) handleFireEvent(ctx context.Context, device *model.Device, raw json.RawMessage, headers map[string]string) *Result {
	p, err := decodeFireEvent(raw)
	if err != nil {
		d.logSchemaViolation(device, KindFireEvent, err)
		return d.emptyOK(device, headers)
	}
	if d.events != nil {
		d.events.FireEvent(ctx, p.EventType, p.EventData, device.UserID)
	}
	return d.emptyOK(device, headers)
}

func (d *Dispatcher) handleRenderTemplate(ctx context.Context, device *model.Device, raw json.RawMessage, headers map[string]string) *Result {
	specs, err := decodeRenderTemplate(raw)
	if err != nil {
		d.logSchemaViolation(device, KindRenderTemplate, err)
		return d.emptyOK(device, headers)
	}
	resp := make(map[string]any, len(specs))
	for key, spec := range specs {
		if d.templates == nil {
			resp[key] = map[string]string{"error": "template capability not configured"}
			continue
		}
		rendered, err := d.templates.Render(ctx, spec.Template, spec.Variables)
		if err != nil {
			d.logger.Error("error rendering template from webhook",
				zap.String("device_name", device.DeviceName),
				zap.String("key", key),
				zap.Error(err))
			resp[key] = map[string]string{"error": err.Error()}
			continue
		}
		resp[key] = rendered
	}
	return d.respond(device, http.StatusOK, resp, headers)
}

func (d *Dispatcher) handleUpdateLocation(ctx context.Context, device *model.Device, raw json.RawMessage, headers map[string]string) *Result {
	p, err := decodeUpdateLocation(raw)
	if err != nil {
		d.logSchemaViolation(device, KindUpdateLocation, err)
		return d.emptyOK(device, headers)
	}
	// Location failures must never break the device's retry loop.
	if d.tracker == nil {
		d.logger.Warn("no tracker capability for location update",
			zap.String("device_name", device.DeviceName))
	} else if err := d.tracker.See(ctx, p, device.UserID); err != nil {
		d.logger.Error("error updating location from webhook",
			zap.String("device_name", device.DeviceName), zap.Error(err))
	}
	return d.emptyOK(device, headers)
}

func (d *Dispatcher) handleUpdateRegistration(ctx context.Context, device *model.Device, raw json.RawMessage, headers map[string]string) *Result {
	upd, err := decodeUpdateRegistration(raw)
	if err != nil {
		d.logSchemaViolation(device, KindUpdateRegistration, err)
		return d.emptyOK(device, headers)
	}
	updated, err := d.registry.Update(ctx, device.WebhookID, *upd)
	if err != nil {
		// Responding empty-ok keeps persistence hiccups from turning into
		// retry storms.
		d.logger.Error("error updating registration",
			zap.String("device_name", device.DeviceName), zap.Error(err))
		return d.emptyOK(device, nil)
	}
	return d.respond(updated, http.StatusOK, updated.Safe(), headers)
}

func (d *Dispatcher) handleRegisterSensor(ctx context.Context, device *model.Device, raw json.RawMessage, headers map[string]string) *Result {
	p, err := decodeRegisterSensor(raw)
	if err != nil {
		d.logSchemaViolation(device, KindRegisterSensor, err)
		return d.emptyOK(device, headers)
	}
	sensor := &model.Sensor{
		WebhookID:         device.WebhookID,
		UniqueID:          p.UniqueID,
		Type:              p.Type,
		Name:              p.Name,
		State:             p.State,
		UnitOfMeasurement: p.UnitOfMeasurement,
		DeviceClass:       p.DeviceClass,
		Icon:              p.Icon,
		Attributes:        p.Attributes,
	}
	if err := d.registry.RegisterSensor(ctx, sensor); err != nil {
		if errors.Is(err, registry.ErrSensorExists) {
			d.logger.Error("refusing to re-register existing sensor",
				zap.String("device_name", device.DeviceName),
				zap.String("unique_id", p.UniqueID))
		} else {
			d.logger.Error("error registering sensor",
				zap.String("device_name", device.DeviceName), zap.Error(err))
		}
		return d.emptyOK(device, headers)
	}

	if d.discovery != nil {
		// Fire and forget; detached from the request lifetime.
		discovery := d.discovery
		entry := sensor.Clone()
		logger := d.logger
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), defaultDiscoveryTimeout)
			defer cancel()
			if err := discovery.DiscoverSensor(ctx, entry); err != nil {
				logger.Error("sensor discovery failed",
					zap.String("unique_id", entry.UniqueID), zap.Error(err))
			}
		}()
	}

	return d.respond(device, http.StatusOK, map[string]string{"status": "registered"}, headers)
}

func (d *Dispatcher) handleUpdateSensorStates(ctx context.Context, device *model.Device, raw json.RawMessage, headers map[string]string) *Result {
	updates, err := decodeUpdateSensorStates(raw)
	if err != nil {
		d.logSchemaViolation(device, KindUpdateSensorStates, err)
		return d.emptyOK(device, headers)
	}
	resp := make(map[string]any, len(updates))
	for _, upd := range updates {
		merged, err := d.registry.UpdateSensor(ctx, device.WebhookID, upd)
		if err != nil {
			if errors.Is(err, registry.ErrSensorNotFound) {
				d.logger.Error("refusing to update non-registered sensor",
					zap.String("device_name", device.DeviceName),
					zap.String("unique_id", upd.UniqueID))
				resp[upd.UniqueID] = map[string]string{
					"status":  "error",
					"message": "not_registered",
				}
				continue
			}
			d.logger.Error("error persisting sensor update",
				zap.String("device_name", device.DeviceName), zap.Error(err))
			return d.emptyOK(device, headers)
		}
		d.bus.Publish(merged)
		resp[upd.UniqueID] = map[string]string{"status": "okay"}
	}
	return d.respond(device, http.StatusOK, resp, headers)
}

// delegate offers an unknown type to the device's app component.
func (d *Dispatcher) delegate(ctx context.Context, device *model.Device, webhookType string, raw json.RawMessage, headers map[string]string) *Result {
	if device.AppComponent != "" {
		if comp, ok := d.components[device.AppComponent]; ok && comp.HandlesWebhook(webhookType) {
			res, err := comp.HandleWebhook(ctx, device, webhookType, raw)
			if err != nil {
				d.logger.Error("app component webhook failed",
					zap.String("device_name", device.DeviceName),
					zap.String("component", device.AppComponent),
					zap.String("type", webhookType),
					zap.Error(err))
				return d.emptyOK(device, headers)
			}
			return d.respond(device, http.StatusOK, res, headers)
		}
	}
	d.logger.Error("unknown webhook type",
		zap.String("device_name", device.DeviceName),
		zap.String("type", webhookType))
	return d.emptyOK(device, headers)
}

func (d *Dispatcher) logSchemaViolation(device *model.Device, kind Kind, err error) {
	d.logger.Error("received invalid webhook payload",
		zap.String("device_name", device.DeviceName),
		zap.String("type", string(kind)),
		zap.Error(err))
}
