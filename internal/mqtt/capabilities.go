package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/homegrid-labs/mobile-gateway/internal/capability"
	"github.com/homegrid-labs/mobile-gateway/internal/model"
	"github.com/homegrid-labs/mobile-gateway/internal/signal"
	"go.uber.org/zap"
)

var (
	_ capability.ServiceCaller = (*ServiceCommander)(nil)
	_ capability.EventBus      = (*EventPublisher)(nil)
	_ capability.Tracker       = (*LocationPublisher)(nil)
)

// ServiceCommander executes service calls by publishing command messages.
// Publish failures surface to the dispatcher as capability failures.
type ServiceCommander struct {
	Client *Client
}

func (s *ServiceCommander) CallService(ctx context.Context, domain, service string, data map[string]any, userID string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	payload, err := json.Marshal(map[string]any{
		"domain":  domain,
		"service": service,
		"data":    data,
		"user_id": userID,
	})
	if err != nil {
		return fmt.Errorf("encode service command: %w", err)
	}
	return s.Client.Publish(s.Client.Topics().ServiceCommand(domain, service), payload)
}

// EventPublisher forwards fired events onto the broker. Failures are logged
// only; firing an event never fails from the dispatcher's perspective.
type EventPublisher struct {
	Client *Client
	Logger *zap.Logger
}

func (e *EventPublisher) FireEvent(_ context.Context, eventType string, data map[string]any, userID string) {
	payload, err := json.Marshal(map[string]any{
		"event_type": eventType,
		"event_data": data,
		"origin":     "remote",
		"user_id":    userID,
	})
	if err != nil {
		e.logger().Error("encode event", zap.String("event_type", eventType), zap.Error(err))
		return
	}
	if err := e.Client.Publish(e.Client.Topics().Event(eventType), payload); err != nil {
		e.logger().Error("publish event", zap.String("event_type", eventType), zap.Error(err))
	}
}

func (e *EventPublisher) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// LocationPublisher forwards tracker sightings onto the broker, keyed by
// the payload's dev_id when present.
type LocationPublisher struct {
	Client *Client
}

func (l *LocationPublisher) See(ctx context.Context, payload map[string]any, userID string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	devID := "unknown"
	if v, ok := payload["dev_id"].(string); ok && v != "" {
		devID = v
	}
	body, err := json.Marshal(map[string]any{
		"see":     payload,
		"user_id": userID,
	})
	if err != nil {
		return fmt.Errorf("encode location: %w", err)
	}
	return l.Client.Publish(l.Client.Topics().Location(devID), body)
}

// ForwardSensorUpdates subscribes the client to the update signal bus so
// every merged sensor entry is republished as retained state would be, one
// topic per composite key. Returns the unsubscribe func.
func ForwardSensorUpdates(bus *signal.Bus, client *Client, logger *zap.Logger) func() {
	if logger == nil {
		logger = zap.NewNop()
	}
	return bus.Subscribe(func(sensor *model.Sensor) {
		payload, err := json.Marshal(sensor)
		if err != nil {
			logger.Error("encode sensor update",
				zap.String("unique_id", sensor.UniqueID), zap.Error(err))
			return
		}
		topic := client.Topics().SensorState(sensor.WebhookID, sensor.UniqueID)
		if err := client.Publish(topic, payload); err != nil {
			logger.Error("publish sensor update",
				zap.String("topic", topic), zap.Error(err))
		}
	})
}
