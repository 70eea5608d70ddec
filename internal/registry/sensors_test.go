package registry

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/homegrid-labs/mobile-gateway/internal/model"
)

func batterySensor(webhookID string) *model.Sensor {
	return &model.Sensor{
		WebhookID:         webhookID,
		UniqueID:          "battery_level",
		Type:              model.SensorTypeSensor,
		Name:              "Battery Level",
		State:             float64(90),
		UnitOfMeasurement: "%",
		Icon:              model.DefaultSensorIcon,
		Attributes:        map[string]any{"charging": false, "voltage": 4.1},
	}
}

func TestRegisterSensorCreateOnce(t *testing.T) {
	reg := New(NewMockStore(), nil)
	ctx := context.Background()

	if err := reg.RegisterSensor(ctx, batterySensor("hook-1")); err != nil {
		t.Fatalf("RegisterSensor: %v", err)
	}

	dup := batterySensor("hook-1")
	dup.Name = "Impostor"
	if err := reg.RegisterSensor(ctx, dup); !errors.Is(err, ErrSensorExists) {
		t.Fatalf("re-register = %v, want ErrSensorExists", err)
	}

	// The stored entry is unchanged by the rejected registration.
	got, err := reg.Sensor("hook-1", "battery_level")
	if err != nil {
		t.Fatalf("Sensor: %v", err)
	}
	if got.Name != "Battery Level" {
		t.Errorf("rejected registration overwrote entry: %q", got.Name)
	}

	// Same unique ID under another device is a distinct composite key.
	if err := reg.RegisterSensor(ctx, batterySensor("hook-2")); err != nil {
		t.Errorf("RegisterSensor other device: %v", err)
	}
}

func TestUpdateSensorShallowMerge(t *testing.T) {
	reg := New(NewMockStore(), nil)
	ctx := context.Background()
	if err := reg.RegisterSensor(ctx, batterySensor("hook-1")); err != nil {
		t.Fatalf("RegisterSensor: %v", err)
	}

	name := "Battery"
	merged, err := reg.UpdateSensor(ctx, "hook-1", model.SensorUpdate{
		UniqueID: "battery_level",
		Type:     model.SensorTypeSensor,
		State:    float64(42),
		HasState: true,
		Name:     &name,
	})
	if err != nil {
		t.Fatalf("UpdateSensor: %v", err)
	}
	if merged.State != float64(42) || merged.Name != "Battery" {
		t.Errorf("merge did not apply present fields: %+v", merged)
	}
	if merged.UnitOfMeasurement != "%" || merged.Icon != model.DefaultSensorIcon {
		t.Errorf("merge clobbered absent fields: %+v", merged)
	}
	if len(merged.Attributes) != 2 {
		t.Errorf("attributes changed without being present: %v", merged.Attributes)
	}
}

func TestUpdateSensorReplacesAttributesWhole(t *testing.T) {
	reg := New(NewMockStore(), nil)
	ctx := context.Background()
	if err := reg.RegisterSensor(ctx, batterySensor("hook-1")); err != nil {
		t.Fatalf("RegisterSensor: %v", err)
	}

	merged, err := reg.UpdateSensor(ctx, "hook-1", model.SensorUpdate{
		UniqueID:      "battery_level",
		Type:          model.SensorTypeSensor,
		Attributes:    map[string]any{"charging": true},
		HasAttributes: true,
	})
	if err != nil {
		t.Fatalf("UpdateSensor: %v", err)
	}
	if len(merged.Attributes) != 1 {
		t.Errorf("attributes bag deep-merged instead of replaced: %v", merged.Attributes)
	}
	if merged.Attributes["charging"] != true {
		t.Errorf("replacement attributes missing: %v", merged.Attributes)
	}
}

func TestUpdateSensorUnknownKey(t *testing.T) {
	reg := New(NewMockStore(), nil)
	_, err := reg.UpdateSensor(context.Background(), "hook-1", model.SensorUpdate{
		UniqueID: "never_registered",
		Type:     model.SensorTypeSensor,
	})
	if !errors.Is(err, ErrSensorNotFound) {
		t.Errorf("UpdateSensor unknown = %v, want ErrSensorNotFound", err)
	}
}

func TestConcurrentSensorUpdatesDisjointKeys(t *testing.T) {
	reg := New(NewMockStore(), nil)
	ctx := context.Background()

	uniqueIDs := []string{"battery", "steps", "brightness", "pressure"}
	for _, id := range uniqueIDs {
		sensor := batterySensor("hook-1")
		sensor.UniqueID = id
		if err := reg.RegisterSensor(ctx, sensor); err != nil {
			t.Fatalf("RegisterSensor %s: %v", id, err)
		}
	}

	var wg sync.WaitGroup
	for i, id := range uniqueIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			for n := 0; n < 25; n++ {
				if _, err := reg.UpdateSensor(ctx, "hook-1", model.SensorUpdate{
					UniqueID: id,
					Type:     model.SensorTypeSensor,
					State:    float64(i*100 + n),
					HasState: true,
				}); err != nil {
					t.Errorf("UpdateSensor %s: %v", id, err)
					return
				}
			}
		}(i, id)
	}
	wg.Wait()

	for i, id := range uniqueIDs {
		got, err := reg.Sensor("hook-1", id)
		if err != nil {
			t.Fatalf("Sensor %s: %v", id, err)
		}
		if got.State != float64(i*100+24) {
			t.Errorf("sensor %s lost updates: state = %v", id, got.State)
		}
	}
}

func TestPruneOrphans(t *testing.T) {
	reg := New(NewMockStore(), nil)
	ctx := context.Background()

	device, err := reg.Register(ctx, registrationRequest(), "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.RegisterSensor(ctx, batterySensor(device.WebhookID)); err != nil {
		t.Fatalf("RegisterSensor: %v", err)
	}
	if err := reg.RegisterSensor(ctx, batterySensor("stale-hook")); err != nil {
		t.Fatalf("RegisterSensor stale: %v", err)
	}

	pruned, err := reg.PruneOrphans(ctx)
	if err != nil {
		t.Fatalf("PruneOrphans: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned = %d, want 1", pruned)
	}
	if _, err := reg.Sensor(device.WebhookID, "battery_level"); err != nil {
		t.Errorf("live sensor pruned: %v", err)
	}
	if _, err := reg.Sensor("stale-hook", "battery_level"); !errors.Is(err, ErrSensorNotFound) {
		t.Error("orphan sensor survived prune")
	}

	if err := reg.Delete(ctx, device.WebhookID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	pruned, err = reg.PruneOrphans(ctx)
	if err != nil {
		t.Fatalf("PruneOrphans after delete: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned after delete = %d, want 1", pruned)
	}
}
