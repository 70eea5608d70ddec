package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration knobs for the gateway.
type Config struct {
	HTTP struct {
		Addr         string        `mapstructure:"addr"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
	} `mapstructure:"http"`
	Storage struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"storage"`
	Webhook struct {
		// RequestTimeout bounds one webhook request end to end, including
		// capability invocations and persistence.
		RequestTimeout time.Duration `mapstructure:"request_timeout"`
	} `mapstructure:"webhook"`
	Auth struct {
		Enabled   bool   `mapstructure:"enabled"`
		Username  string `mapstructure:"username"`
		Password  string `mapstructure:"password"`
		JWTSecret string `mapstructure:"jwt_secret"`
	} `mapstructure:"auth"`
	MQTT struct {
		Enabled        bool          `mapstructure:"enabled"`
		BrokerURL      string        `mapstructure:"broker_url"`
		ClientID       string        `mapstructure:"client_id"`
		Username       string        `mapstructure:"username"`
		Password       string        `mapstructure:"password"`
		TopicPrefix    string        `mapstructure:"topic_prefix"`
		ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
		PublishTimeout time.Duration `mapstructure:"publish_timeout"`
	} `mapstructure:"mqtt"`
	Log struct {
		Debug bool `mapstructure:"debug"`
	} `mapstructure:"log"`
}

// Load reads the configuration from disk/environment using Viper.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("mobile_gateway")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; env-only configuration is supported.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8123")
	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.write_timeout", "30s")

	v.SetDefault("storage.path", "./data/gateway.db")

	v.SetDefault("webhook.request_timeout", "30s")

	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.username", "admin")
	v.SetDefault("auth.jwt_secret", "change-me-secret")

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker_url", "tcp://127.0.0.1:1883")
	v.SetDefault("mqtt.client_id", "mobile-gateway")
	v.SetDefault("mqtt.topic_prefix", "mobilegw")
	v.SetDefault("mqtt.connect_timeout", "10s")
	v.SetDefault("mqtt.publish_timeout", "5s")

	v.SetDefault("log.debug", false)
}
