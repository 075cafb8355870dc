// Package config handles configuration loading: defaults, an optional YAML
// file, an optional .env file, environment variables and mounted secret
// files, in that order of precedence (later wins; secrets only fill
// credentials that are still empty).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that decodes from YAML as either a duration
// string ("45s", "2m") or a bare number of seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("invalid duration %q", node.Value)
	}
	if seconds, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// MQTT holds Home Assistant bridge settings.
type MQTT struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`

	// EnergyMeterTopic optionally feeds an external energy meter reading
	// (kWh, plain number payload) into the COP estimate.
	EnergyMeterTopic string `yaml:"energy_meter_topic"`
}

// Config holds all configuration for the hitemp bridge.
type Config struct {
	// Vendor account credentials
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// Vendor endpoint override, normally empty
	BaseURL string `yaml:"base_url"`

	// Product lines to query in the device directory
	ProductIDs []string `yaml:"product_ids"`

	// Poll loop
	PollInterval Duration `yaml:"poll_interval"`

	// Metrics/health server
	ListenAddr string `yaml:"listen_addr"`

	// Local state cache
	StorePath string `yaml:"store_path"`

	MQTT MQTT `yaml:"mqtt"`

	// Logging configuration
	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // text, json
}

// Load builds the configuration. A YAML file is read when HITEMP_CONFIG_FILE
// points at one; a .env file in the working directory is honored when
// present; environment variables override both, and mounted secret files
// backfill credentials.
func Load() (*Config, error) {
	cfg := &Config{
		PollInterval: Duration(30 * time.Second),
		ListenAddr:   ":9809",
		StorePath:    "hitemp.db",
		LogLevel:     "info",
		LogFormat:    "text",
		MQTT: MQTT{
			TopicPrefix: "hitemp",
		},
	}

	if path := os.Getenv("HITEMP_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Best effort: a missing .env is the normal case.
	_ = godotenv.Load()

	applyEnv(cfg)

	// Mounted secrets backfill credentials not set elsewhere.
	if cfg.Username == "" || cfg.Password == "" {
		username, password, err := tryLoadFromSecrets()
		if err == nil {
			if cfg.Username == "" {
				cfg.Username = username
			}
			if cfg.Password == "" {
				cfg.Password = password
			}
		}
	}

	return cfg, nil
}

// applyEnv overlays HITEMP_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("HITEMP_USERNAME"); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv("HITEMP_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("HITEMP_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("HITEMP_PRODUCT_IDS"); v != "" {
		cfg.ProductIDs = splitList(v)
	}
	if v := os.Getenv("HITEMP_POLL_INTERVAL"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
			cfg.PollInterval = Duration(time.Duration(seconds) * time.Second)
		}
	}
	if v := os.Getenv("HITEMP_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("HITEMP_STORE_PATH"); v != "" {
		cfg.StorePath = v
	}
	if v := os.Getenv("HITEMP_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("HITEMP_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	if v := os.Getenv("HITEMP_MQTT_BROKER"); v != "" {
		cfg.MQTT.Broker = v
		cfg.MQTT.Enabled = true
	}
	if v := os.Getenv("HITEMP_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Username = v
	}
	if v := os.Getenv("HITEMP_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Password = v
	}
	if v := os.Getenv("HITEMP_MQTT_PREFIX"); v != "" {
		cfg.MQTT.TopicPrefix = v
	}
	if v := os.Getenv("HITEMP_ENERGY_METER_TOPIC"); v != "" {
		cfg.MQTT.EnergyMeterTopic = v
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Username == "" {
		return errors.New("username is required (set HITEMP_USERNAME or mount a secret)")
	}
	if c.Password == "" {
		return errors.New("password is required (set HITEMP_PASSWORD or mount a secret)")
	}
	if time.Duration(c.PollInterval) < 10*time.Second {
		return errors.New("poll interval must be at least 10 seconds")
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return errors.New("mqtt broker is required when mqtt is enabled")
	}
	if c.MQTT.Enabled && !strings.Contains(c.MQTT.Broker, "://") {
		return fmt.Errorf("mqtt broker %q must be a URL (e.g. tcp://host:1883)", c.MQTT.Broker)
	}
	return nil
}
