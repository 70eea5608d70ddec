// Package capability defines the interfaces for external collaborators the
// webhook dispatcher invokes: the service bus, event bus, template engine,
// device tracker, per-component webhook delegates and the cloudhook
// provisioner. Implementations live elsewhere (see internal/mqtt) and are
// treated as opaque, possibly-failing operations.
package capability

import (
	"context"
	"encoding/json"

	"github.com/homegrid-labs/mobile-gateway/internal/model"
)

// ServiceCaller invokes a named service in a domain on behalf of a user.
type ServiceCaller interface {
	CallService(ctx context.Context, domain, service string, data map[string]any, userID string) error
}

// EventBus publishes remote-origin events. Publishing never fails from the
// dispatcher's perspective.
type EventBus interface {
	FireEvent(ctx context.Context, eventType string, data map[string]any, userID string)
}

// TemplateRenderer renders one template with the supplied variables.
type TemplateRenderer interface {
	Render(ctx context.Context, template string, variables map[string]any) (string, error)
}

// Tracker is the device-tracker "see" capability.
type Tracker interface {
	See(ctx context.Context, payload map[string]any, userID string) error
}

// AppComponent handles webhook types the dispatcher itself does not know,
// for devices registered with an app_component.
type AppComponent interface {
	HandlesWebhook(webhookType string) bool
	HandleWebhook(ctx context.Context, device *model.Device, webhookType string, payload json.RawMessage) (any, error)
}

// CloudhookProvisioner creates cloud relay endpoints for a webhook ID.
type CloudhookProvisioner interface {
	CreateCloudhook(ctx context.Context, webhookID string) (hookID, hookURL string, err error)
}

// SensorDiscovery is told about newly registered sensors so their platform
// surface can be set up. Invoked fire-and-forget off the request path.
type SensorDiscovery interface {
	DiscoverSensor(ctx context.Context, sensor *model.Sensor) error
}
