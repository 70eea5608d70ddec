package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}
	if cfg.HTTP.Addr != ":8123" {
		t.Errorf("http.addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Webhook.RequestTimeout != 30*time.Second {
		t.Errorf("webhook.request_timeout = %v", cfg.Webhook.RequestTimeout)
	}
	if cfg.MQTT.Enabled {
		t.Error("mqtt enabled by default")
	}
	if !cfg.Auth.Enabled {
		t.Error("auth disabled by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
http:
  addr: ":9000"
webhook:
  request_timeout: 5s
mqtt:
  enabled: true
  broker_url: "tcp://broker:1883"
  topic_prefix: "home/gw"
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":9000" {
		t.Errorf("http.addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Webhook.RequestTimeout != 5*time.Second {
		t.Errorf("webhook.request_timeout = %v", cfg.Webhook.RequestTimeout)
	}
	if !cfg.MQTT.Enabled || cfg.MQTT.BrokerURL != "tcp://broker:1883" {
		t.Errorf("mqtt config = %+v", cfg.MQTT)
	}
	// Unset keys keep their defaults.
	if cfg.Storage.Path != "./data/gateway.db" {
		t.Errorf("storage.path = %q", cfg.Storage.Path)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("http: [broken"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}
