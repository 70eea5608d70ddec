package mqtt

import "fmt"

// DefaultTopicPrefix namespaces all gateway topics on the broker.
const DefaultTopicPrefix = "mobilegw"

// Topics builds the gateway's topic names. Using the helpers keeps the
// naming consistent between publishers and downstream subscribers.
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return t.Prefix
}

// SensorState is the topic for one sensor's merged state.
//
// Example: mobilegw/sensor/3adf01c9/battery_level
func (t Topics) SensorState(webhookID, uniqueID string) string {
	return fmt.Sprintf("%s/sensor/%s/%s", t.prefix(), webhookID, uniqueID)
}

// Event is the topic for remote-origin events fired by devices.
//
// Example: mobilegw/event/app_opened
func (t Topics) Event(eventType string) string {
	return fmt.Sprintf("%s/event/%s", t.prefix(), eventType)
}

// ServiceCommand is the topic for service-call commands.
//
// Example: mobilegw/command/light/turn_on
func (t Topics) ServiceCommand(domain, service string) string {
	return fmt.Sprintf("%s/command/%s/%s", t.prefix(), domain, service)
}

// Location is the topic for device-tracker sightings.
//
// Example: mobilegw/location/3adf01c9
func (t Topics) Location(webhookID string) string {
	return fmt.Sprintf("%s/location/%s", t.prefix(), webhookID)
}
