package mqtt

import "errors"

var (
	// ErrNotConnected is returned when publishing without a broker session.
	ErrNotConnected = errors.New("mqtt: not connected")

	// ErrConnectFailed is returned when the initial broker connection fails.
	ErrConnectFailed = errors.New("mqtt: connect failed")

	// ErrPublishFailed wraps broker-side publish errors and timeouts.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrInvalidTopic is returned for empty topics.
	ErrInvalidTopic = errors.New("mqtt: invalid topic")
)
