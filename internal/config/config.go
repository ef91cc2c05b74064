package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Records   RecordsConfig   `yaml:"records"`
	Events    EventsConfig    `yaml:"events"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	Timeline  TimelineConfig  `yaml:"timeline"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DBConfig locates the sqlite database holding configurations, field
// metadata, activity and api keys.
type DBConfig struct {
	Path string `yaml:"path"`
}

// RecordsConfig selects where collection records live.
type RecordsConfig struct {
	Driver   string `yaml:"driver"` // sqlite or postgres
	DSN      string `yaml:"dsn"`
	MaxConns int    `yaml:"max_conns"`
}

// EventsConfig enables publishing activity to a Redis stream when Addr is set.
type EventsConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Stream   string `yaml:"stream"`
	MaxLen   int64  `yaml:"max_len"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"` // http or stdio
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
}

type TimelineConfig struct {
	WindowDays    int    `yaml:"window_days"`
	SeedPath      string `yaml:"seed_path"`
	InstallSample bool   `yaml:"install_sample"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "chronos.db",
		},
		Records: RecordsConfig{
			Driver: DriverSQLite,
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Timeline: TimelineConfig{
			WindowDays: 30,
		},
	}

	if path := os.Getenv("CHRONOS_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("CHRONOS_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("CHRONOS_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CHRONOS_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("CHRONOS_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if driver := os.Getenv("CHRONOS_RECORDS_DRIVER"); driver != "" {
		cfg.Records.Driver = driver
	}
	if dsn := os.Getenv("CHRONOS_RECORDS_DSN"); dsn != "" {
		cfg.Records.DSN = dsn
	}
	if addr := os.Getenv("CHRONOS_REDIS_ADDR"); addr != "" {
		cfg.Events.Addr = addr
	}
	if password := os.Getenv("CHRONOS_REDIS_PASSWORD"); password != "" {
		cfg.Events.Password = password
	}
	if level := os.Getenv("CHRONOS_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("CHRONOS_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if mode := os.Getenv("CHRONOS_TRANSPORT"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if authStr := os.Getenv("CHRONOS_AUTH_ENABLED"); authStr != "" {
		enabled, err := strconv.ParseBool(authStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CHRONOS_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = enabled
	}
	if seed := os.Getenv("CHRONOS_SEED_PATH"); seed != "" {
		cfg.Timeline.SeedPath = seed
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch c.Records.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Records.DSN == "" {
			return fmt.Errorf("records.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown records driver %q", c.Records.Driver)
	}
	switch c.Transport.Mode {
	case "http", "stdio":
	default:
		return fmt.Errorf("unknown transport mode %q", c.Transport.Mode)
	}
	if c.Timeline.WindowDays < 0 {
		return fmt.Errorf("timeline.window_days must not be negative")
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
