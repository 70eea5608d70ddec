// Package mqtt bridges the gateway onto an MQTT broker: fired events,
// service-call commands, location updates and merged sensor states are
// published to namespaced topics for downstream consumers.
package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultPublishTimeout = 5 * time.Second

	// Aligns with typical broker payload limits.
	maxPayloadSize = 1 << 20
)

// Config holds broker connection settings.
type Config struct {
	BrokerURL      string
	ClientID       string
	Username       string
	Password       string
	TopicPrefix    string
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
}

// Client is a thin wrapper around the paho client with timeouts and
// payload limits applied to every publish.
type Client struct {
	client         paho.Client
	topics         Topics
	publishTimeout time.Duration
	logger         *zap.Logger
}

// New connects to the broker and returns a ready client.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	publishTimeout := cfg.PublishTimeout
	if publishTimeout <= 0 {
		publishTimeout = defaultPublishTimeout
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warn("mqtt connection lost", zap.Error(err))
		}).
		SetOnConnectHandler(func(paho.Client) {
			logger.Info("mqtt connected", zap.String("broker", cfg.BrokerURL))
		})

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectFailed, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}

	return &Client{
		client:         client,
		topics:         Topics{Prefix: cfg.TopicPrefix},
		publishTimeout: publishTimeout,
		logger:         logger,
	}, nil
}

// Topics returns the topic builders bound to the configured prefix.
func (c *Client) Topics() Topics {
	return c.topics
}

// Publish sends a payload to the topic at QoS 1.
func (c *Client) Publish(topic string, payload []byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.client.IsConnected() {
		return ErrNotConnected
	}
	token := c.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(c.publishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, c.publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// Close disconnects from the broker, allowing in-flight work to finish.
func (c *Client) Close() {
	c.client.Disconnect(250)
}
