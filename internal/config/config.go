package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level sipconsole configuration.
type Config struct {
	Carrier  CarrierConfig  `yaml:"carrier"`
	Server   ServerConfig   `yaml:"server"`
	Poll     PollConfig     `yaml:"poll"`
	Sessions SessionsConfig `yaml:"sessions"`
	Audit    AuditConfig    `yaml:"audit"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

// CarrierConfig points the console at the carrier admin API.
type CarrierConfig struct {
	APIURL        string `yaml:"api_url"`
	DefaultTenant string `yaml:"default_tenant"`
}

// ServerConfig holds console HTTP server settings.
type ServerConfig struct {
	Port     int    `yaml:"port"`
	Bind     string `yaml:"bind"` // Address to bind (default: 127.0.0.1)
	LogLevel string `yaml:"log_level"`
}

// PollConfig controls the snapshot refresh cadence.
type PollConfig struct {
	Interval Duration `yaml:"interval"`
}

// Duration wraps time.Duration so YAML can carry values like "4s".
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// SessionsConfig selects the dashboard session store.
// An empty RedisAddr keeps sessions in memory.
type SessionsConfig struct {
	RedisAddr     string `yaml:"redis_addr,omitempty"`
	RedisPassword string `yaml:"redis_password,omitempty"`
}

// AuditConfig locates the local admin-action audit database.
type AuditConfig struct {
	DBPath string `yaml:"db_path"`
}

// TracingConfig toggles OpenTelemetry tracing.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads and parses a sipconsole config file. Environment overrides
// (SIPCONSOLE_*) are applied on top of the parsed values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyEnv()

	// Apply zero-value defaults after unmarshal
	if cfg.Poll.Interval == 0 {
		cfg.Poll.Interval = Duration(4 * time.Second)
	}
	if cfg.Carrier.DefaultTenant == "" {
		cfg.Carrier.DefaultTenant = "default"
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Carrier: CarrierConfig{
			APIURL:        "http://127.0.0.1:8080",
			DefaultTenant: "default",
		},
		Server: ServerConfig{
			Port:     8090,
			Bind:     "127.0.0.1",
			LogLevel: "info",
		},
		Poll: PollConfig{
			Interval: Duration(4 * time.Second),
		},
		Audit: AuditConfig{
			DBPath: "sipconsole.db",
		},
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SIPCONSOLE_API_URL"); v != "" {
		c.Carrier.APIURL = v
	}
	if v := os.Getenv("SIPCONSOLE_TENANT"); v != "" {
		c.Carrier.DefaultTenant = v
	}
	if v := os.Getenv("SIPCONSOLE_BIND"); v != "" {
		c.Server.Bind = v
	}
	if v := os.Getenv("SIPCONSOLE_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("SIPCONSOLE_REDIS_ADDR"); v != "" {
		c.Sessions.RedisAddr = v
	}
}

// Save writes the config to a YAML file at the given path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks that the config is consistent.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Carrier.APIURL == "" {
		return fmt.Errorf("carrier api_url is required")
	}
	if c.Poll.Interval.Std() < 500*time.Millisecond {
		return fmt.Errorf("poll interval %s is below the 500ms floor", c.Poll.Interval)
	}
	switch c.Server.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.Server.LogLevel)
	}
	return nil
}
