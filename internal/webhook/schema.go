package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/homegrid-labs/mobile-gateway/internal/model"
)

// errSchema marks an inner payload that fails its per-type schema. The
// dispatcher answers these with the accepted-but-ignored response.
var errSchema = errors.New("webhook: payload schema violation")

type callServicePayload struct {
	Domain      string         `json:"domain"`
	Service     string         `json:"service"`
	ServiceData map[string]any `json:"service_data"`
}

func decodeCallService(raw json.RawMessage) (*callServicePayload, error) {
	var p callServicePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", errSchema, err)
	}
	if strings.TrimSpace(p.Domain) == "" || strings.TrimSpace(p.Service) == "" {
		return nil, fmt.Errorf("%w: domain and service are required", errSchema)
	}
	if p.ServiceData == nil {
		p.ServiceData = map[string]any{}
	}
	return &p, nil
}

type fireEventPayload struct {
	EventType string         `json:"event_type"`
	EventData map[string]any `json:"event_data"`
}

func decodeFireEvent(raw json.RawMessage) (*fireEventPayload, error) {
	var p fireEventPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", errSchema, err)
	}
	if strings.TrimSpace(p.EventType) == "" {
		return nil, fmt.Errorf("%w: event_type is required", errSchema)
	}
	if p.EventData == nil {
		p.EventData = map[string]any{}
	}
	return &p, nil
}

type templateSpec struct {
	Template  string         `json:"template"`
	Variables map[string]any `json:"variables"`
}

func decodeRenderTemplate(raw json.RawMessage) (map[string]templateSpec, error) {
	var p map[string]templateSpec
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", errSchema, err)
	}
	for key, spec := range p {
		if spec.Template == "" {
			return nil, fmt.Errorf("%w: template is required for %q", errSchema, key)
		}
	}
	return p, nil
}

// decodeUpdateLocation passes the tracker payload through verbatim; its
// fields are domain-specific to the see capability.
func decodeUpdateLocation(raw json.RawMessage) (map[string]any, error) {
	var p map[string]any
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", errSchema, err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: location payload is required", errSchema)
	}
	return p, nil
}

func decodeUpdateRegistration(raw json.RawMessage) (*model.RegistrationUpdate, error) {
	var p model.RegistrationUpdate
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", errSchema, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errSchema, err)
	}
	return &p, nil
}

type registerSensorPayload struct {
	Type              model.SensorType `json:"type"`
	UniqueID          string           `json:"unique_id"`
	Name              string           `json:"name"`
	State             any              `json:"state"`
	UnitOfMeasurement string           `json:"unit_of_measurement"`
	DeviceClass       string           `json:"device_class"`
	Icon              string           `json:"icon"`
	Attributes        map[string]any   `json:"attributes"`
}

func decodeRegisterSensor(raw json.RawMessage) (*registerSensorPayload, error) {
	var p registerSensorPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", errSchema, err)
	}
	if !p.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown sensor type %q", errSchema, p.Type)
	}
	for field, value := range map[string]string{
		"unique_id":           p.UniqueID,
		"name":                p.Name,
		"unit_of_measurement": p.UnitOfMeasurement,
	} {
		if strings.TrimSpace(value) == "" {
			return nil, fmt.Errorf("%w: %s is required", errSchema, field)
		}
	}
	if p.State == nil {
		return nil, fmt.Errorf("%w: state is required", errSchema)
	}
	if p.Icon == "" {
		p.Icon = model.DefaultSensorIcon
	}
	if p.Attributes == nil {
		p.Attributes = map[string]any{}
	}
	return &p, nil
}

func decodeUpdateSensorStates(raw json.RawMessage) ([]model.SensorUpdate, error) {
	var updates []model.SensorUpdate
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, fmt.Errorf("%w: %w", errSchema, err)
	}
	for i, upd := range updates {
		if strings.TrimSpace(upd.UniqueID) == "" {
			return nil, fmt.Errorf("%w: item %d missing unique_id", errSchema, i)
		}
		if !upd.Type.Valid() {
			return nil, fmt.Errorf("%w: item %d has unknown sensor type %q", errSchema, i, upd.Type)
		}
	}
	return updates, nil
}
