package model

import (
	"fmt"
	"strings"
)

// RegistrationRequest is the payload a mobile app sends to enroll itself.
type RegistrationRequest struct {
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
}

// Validate checks required fields and applies defaults.
func (r *RegistrationRequest) Validate() error {
	for field, value := range map[string]string{
		"app_id":       r.AppID,
		"app_version":  r.AppVersion,
		"device_name":  r.DeviceName,
		"manufacturer": r.Manufacturer,
		"model":        r.Model,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s is required", field)
		}
	}
	if r.AppData == nil {
		r.AppData = map[string]any{}
	}
	return nil
}

// RegistrationUpdate carries the mutable fields of an update_registration
// request. Identity fields (app_id, webhook_id, user) are never replaced.
type RegistrationUpdate struct {
	AppVersion   string         `json:"app_version"`
	AppData      map[string]any `json:"app_data"`
	DeviceName   string         `json:"device_name"`
	Manufacturer string         `json:"manufacturer"`
	Model        string         `json:"model"`
	OSVersion    string         `json:"os_version,omitempty"`
}

// Validate checks required fields and applies defaults.
func (u *RegistrationUpdate) Validate() error {
	for field, value := range map[string]string{
		"app_version":  u.AppVersion,
		"device_name":  u.DeviceName,
		"manufacturer": u.Manufacturer,
		"model":        u.Model,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s is required", field)
		}
	}
	if u.AppData == nil {
		u.AppData = map[string]any{}
	}
	return nil
}

// RegistrationResponse is returned to the device after a successful
// registration. The secret is only present when the device supports
// encryption; cloudhook fields only when a provisioner is configured.
type RegistrationResponse struct {
	SafeDevice
	WebhookID    string `json:"webhook_id"`
	Secret       string `json:"secret,omitempty"`
	CloudhookID  string `json:"cloudhook_id,omitempty"`
	CloudhookURL string `json:"cloudhook_url,omitempty"`
}
