package bolt

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/homegrid-labs/mobile-gateway/internal/model"
	"github.com/homegrid-labs/mobile-gateway/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "gateway.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLoadEmptyStore(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Load(context.Background()); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Load on fresh store = %v, want ErrNotFound", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	snap := model.EmptySnapshot()
	snap.DeletedIDs = []string{"gone-1", "gone-2"}
	snap.Registrations["hook-1"] = &model.Device{
		WebhookID:          "hook-1",
		AppID:              "io.homegrid.companion",
		AppVersion:         "1.2.0",
		DeviceName:         "Pixel 9",
		Manufacturer:       "Google",
		Model:              "GX7A",
		SupportsEncryption: true,
		Secret:             "s3cret",
		AppData:            map[string]any{"push_token": "abc"},
	}
	snap.Sensors[model.SensorKey("hook-1", "battery_level")] = &model.Sensor{
		WebhookID:         "hook-1",
		UniqueID:          "battery_level",
		Type:              model.SensorTypeSensor,
		Name:              "Battery Level",
		State:             float64(88),
		UnitOfMeasurement: "%",
		Icon:              model.DefaultSensorIcon,
		Attributes:        map[string]any{"charging": true},
	}

	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Version != model.SnapshotVersion {
		t.Errorf("version = %d, want %d", loaded.Version, model.SnapshotVersion)
	}
	if len(loaded.DeletedIDs) != 2 {
		t.Errorf("deleted ids = %v, want 2 entries", loaded.DeletedIDs)
	}
	device := loaded.Registrations["hook-1"]
	if device == nil {
		t.Fatal("registration hook-1 missing after reload")
	}
	if device.Secret != "s3cret" || !device.SupportsEncryption {
		t.Errorf("device round trip lost fields: %+v", device)
	}
	sensor := loaded.Sensors[model.SensorKey("hook-1", "battery_level")]
	if sensor == nil {
		t.Fatal("sensor missing after reload")
	}
	if sensor.State != float64(88) {
		t.Errorf("sensor state = %v, want 88", sensor.State)
	}
}

func TestSaveReplacesPreviousSnapshot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := model.EmptySnapshot()
	first.Registrations["old"] = &model.Device{WebhookID: "old", AppID: "app"}
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save first: %v", err)
	}

	second := model.EmptySnapshot()
	second.Registrations["new"] = &model.Device{WebhookID: "new", AppID: "app"}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("Save second: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := loaded.Registrations["old"]; ok {
		t.Error("stale registration survived snapshot replacement")
	}
	if _, ok := loaded.Registrations["new"]; !ok {
		t.Error("new registration missing")
	}
}

func TestSaveHonoursCancelledContext(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.Save(ctx, model.EmptySnapshot()); !errors.Is(err, context.Canceled) {
		t.Errorf("Save with cancelled ctx = %v, want context.Canceled", err)
	}
}
