package model

import "encoding/json"

// SensorUpdate is one partial sensor entry from an update_sensor_states
// batch. Field presence matters for the shallow merge: absent fields keep
// the stored value, present fields replace it (the attributes bag is
// replaced whole, never deep-merged).
type SensorUpdate struct {
	UniqueID string
	Type     SensorType

	State    any
	HasState bool

	Name              *string
	Icon              *string
	UnitOfMeasurement *string
	DeviceClass       *string
	Attributes        map[string]any
	HasAttributes     bool
}

// UnmarshalJSON decodes a partial entry, tracking which fields were present.
func (u *SensorUpdate) UnmarshalJSON(data []byte) error {
	var raw struct {
		UniqueID          string           `json:"unique_id"`
		Type              SensorType       `json:"type"`
		State             *json.RawMessage `json:"state"`
		Name              *string          `json:"name"`
		Icon              *string          `json:"icon"`
		UnitOfMeasurement *string          `json:"unit_of_measurement"`
		DeviceClass       *string          `json:"device_class"`
		Attributes        *map[string]any  `json:"attributes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	u.UniqueID = raw.UniqueID
	u.Type = raw.Type
	u.Name = raw.Name
	u.Icon = raw.Icon
	u.UnitOfMeasurement = raw.UnitOfMeasurement
	u.DeviceClass = raw.DeviceClass
	if raw.State != nil {
		u.HasState = true
		if err := json.Unmarshal(*raw.State, &u.State); err != nil {
			return err
		}
	}
	if raw.Attributes != nil {
		u.HasAttributes = true
		u.Attributes = *raw.Attributes
	}
	return nil
}

// Apply merges the update over an existing entry, field by field.
func (u *SensorUpdate) Apply(sensor *Sensor) {
	if u.HasState {
		sensor.State = u.State
	}
	if u.Name != nil {
		sensor.Name = *u.Name
	}
	if u.Icon != nil {
		sensor.Icon = *u.Icon
	}
	if u.UnitOfMeasurement != nil {
		sensor.UnitOfMeasurement = *u.UnitOfMeasurement
	}
	if u.DeviceClass != nil {
		sensor.DeviceClass = *u.DeviceClass
	}
	if u.HasAttributes {
		sensor.Attributes = u.Attributes
	}
}
