package model

// SensorType distinguishes the two sensor surfaces a device may register.
type SensorType string

const (
	SensorTypeBinary SensorType = "binary_sensor"
	SensorTypeSensor SensorType = "sensor"
)

// Valid reports whether the sensor type is one of the known kinds.
func (t SensorType) Valid() bool {
	return t == SensorTypeBinary || t == SensorTypeSensor
}

// DefaultSensorIcon is applied when a registration omits the icon.
const DefaultSensorIcon = "mdi:cellphone"

// Sensor is one device-owned sensor entry. Identity is the composite key
// (webhook_id, unique_id); the owning webhook ID is embedded for reverse
// lookup.
type Sensor struct {
	WebhookID         string         `json:"webhook_id"`
	UniqueID          string         `json:"unique_id"`
	Type              SensorType     `json:"type"`
	Name              string         `json:"name"`
	State             any            `json:"state"`
	UnitOfMeasurement string         `json:"unit_of_measurement,omitempty"`
	DeviceClass       string         `json:"device_class,omitempty"`
	Icon              string         `json:"icon,omitempty"`
	Attributes        map[string]any `json:"attributes"`
}

// Key returns the composite store key for this entry.
func (s *Sensor) Key() string {
	return SensorKey(s.WebhookID, s.UniqueID)
}

// SensorKey builds the composite key for a (webhook ID, unique ID) pair.
func SensorKey(webhookID, uniqueID string) string {
	return webhookID + "_" + uniqueID
}

// Clone returns a copy safe for callers to hold across registry mutations.
func (s *Sensor) Clone() *Sensor {
	copied := *s
	if s.Attributes != nil {
		copied.Attributes = make(map[string]any, len(s.Attributes))
		for k, v := range s.Attributes {
			copied.Attributes[k] = v
		}
	}
	return &copied
}
