package webhook

import "encoding/json"

// Kind enumerates the webhook request kinds the dispatcher handles itself.
// Anything else is offered to the device's app component, if any.
type Kind string

const (
	KindCallService        Kind = "call_service"
	KindFireEvent          Kind = "fire_event"
	KindRenderTemplate     Kind = "render_template"
	KindUpdateLocation     Kind = "update_location"
	KindUpdateRegistration Kind = "update_registration"
	KindRegisterSensor     Kind = "register_sensor"
	KindUpdateSensorStates Kind = "update_sensor_states"
)

// Envelope is the outer webhook request body. When Encrypted is set the
// payload travels in EncryptedData and Data is ignored.
type Envelope struct {
	Type          string          `json:"type"`
	Data          json.RawMessage `json:"data"`
	Encrypted     bool            `json:"encrypted"`
	EncryptedData string          `json:"encrypted_data"`
}

// Result is the transport-agnostic outcome of one webhook request. Body is
// the final serialized JSON (already encryption-wrapped when the device has
// a secret); a nil body means no content.
type Result struct {
	Status  int
	Body    []byte
	Headers map[string]string
}
