package model

import "time"

// Device describes one registered mobile app installation. The webhook ID is
// the inbound endpoint discriminator and primary key; it is assigned once at
// registration time and never reused after deletion.
type Device struct {
	WebhookID          string         `json:"webhook_id"`
	AppID              string         `json:"app_id"`
	AppName            string         `json:"app_name,omitempty"`
	AppVersion         string         `json:"app_version"`
	AppComponent       string         `json:"app_component,omitempty"`
	AppData            map[string]any `json:"app_data"`
	DeviceName         string         `json:"device_name"`
	Manufacturer       string         `json:"manufacturer"`
	Model              string         `json:"model"`
	OSVersion          string         `json:"os_version,omitempty"`
	SupportsEncryption bool           `json:"supports_encryption"`
	Secret             string         `json:"secret,omitempty"`
	UserID             string         `json:"user_id,omitempty"`
	CloudhookID        string         `json:"cloudhook_id,omitempty"`
	CloudhookURL       string         `json:"cloudhook_url,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// SafeDevice is the projection of a Device that may be shown to untrusted
// readers. It never carries the secret, the webhook ID or cloudhook material.
type SafeDevice struct {
	AppID              string         `json:"app_id"`
	AppName            string         `json:"app_name,omitempty"`
	AppVersion         string         `json:"app_version"`
	AppData            map[string]any `json:"app_data"`
	DeviceName         string         `json:"device_name"`
	Manufacturer       string         `json:"manufacturer"`
	Model              string         `json:"model"`
	OSVersion          string         `json:"os_version,omitempty"`
	SupportsEncryption bool           `json:"supports_encryption"`
}

// Safe strips sensitive values from the device record.
func (d *Device) Safe() SafeDevice {
	return SafeDevice{
		AppID:              d.AppID,
		AppName:            d.AppName,
		AppVersion:         d.AppVersion,
		AppData:            d.AppData,
		DeviceName:         d.DeviceName,
		Manufacturer:       d.Manufacturer,
		Model:              d.Model,
		OSVersion:          d.OSVersion,
		SupportsEncryption: d.SupportsEncryption,
	}
}

// Clone returns a copy the caller can mutate without affecting shared state.
// The app data bag is copied shallowly; values are treated as immutable.
func (d *Device) Clone() *Device {
	copied := *d
	if d.AppData != nil {
		copied.AppData = make(map[string]any, len(d.AppData))
		for k, v := range d.AppData {
			copied.AppData[k] = v
		}
	}
	return &copied
}
