package webhook

import (
	"encoding/json"
	"net/http"

	"github.com/homegrid-labs/mobile-gateway/internal/crypto"
	"github.com/homegrid-labs/mobile-gateway/internal/model"
	"go.uber.org/zap"
)

type encryptedBody struct {
	Encrypted     bool   `json:"encrypted"`
	EncryptedData string `json:"encrypted_data"`
}

// respond serializes payload and, when the device holds a secret, wraps it
// as {encrypted:true, encrypted_data:...} so only that device can read it.
func (d *Dispatcher) respond(device *model.Device, status int, payload any, headers map[string]string) *Result {
	body, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error("marshal webhook response",
			zap.String("device_name", device.DeviceName), zap.Error(err))
		return &Result{Status: http.StatusOK, Body: []byte("{}"), Headers: headers}
	}
	if device.Secret != "" {
		ciphertext, err := crypto.Encrypt(body, crypto.KeyFromSecret(device.Secret))
		if err != nil {
			d.logger.Error("encrypt webhook response",
				zap.String("device_name", device.DeviceName), zap.Error(err))
			return &Result{Status: http.StatusOK, Body: []byte("{}"), Headers: headers}
		}
		body, err = json.Marshal(encryptedBody{Encrypted: true, EncryptedData: ciphertext})
		if err != nil {
			return &Result{Status: http.StatusOK, Body: []byte("{}"), Headers: headers}
		}
	}
	return &Result{Status: status, Body: body, Headers: headers}
}

// emptyOK is the accepted-but-ignored response: success-shaped, no state
// change, no validation detail for the caller.
func (d *Dispatcher) emptyOK(device *model.Device, headers map[string]string) *Result {
	return d.respond(device, http.StatusOK, map[string]any{}, headers)
}
