package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Valkey     ValkeyConfig     `mapstructure:"valkey"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Temporal   TemporalConfig   `mapstructure:"temporal"`
	NDVI       NDVIConfig       `mapstructure:"ndvi"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Client     ClientConfig     `mapstructure:"client"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

// NDVIConfig configures the server side of the analysis endpoint.
type NDVIConfig struct {
	ProcessorURL   string        `mapstructure:"processor_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	CacheTTL       int           `mapstructure:"cache_ttl"` // seconds
	MaxWindowDays  int           `mapstructure:"max_window_days"`
	PointRadiusM   float64       `mapstructure:"point_radius_m"`
}

type ClassifierConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ClientConfig configures ndvictl and other pipeline hosts.
type ClientConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Timezone string        `mapstructure:"timezone"`
}

// Location resolves the display timezone, falling back to UTC.
func (c ClientConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "agrosight")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "agrosight")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "ndvi-analysis")
	v.SetDefault("ndvi.processor_url", "http://127.0.0.1:8000")
	v.SetDefault("ndvi.request_timeout", "45s")
	v.SetDefault("ndvi.cache_ttl", 3600)
	v.SetDefault("ndvi.max_window_days", 366)
	v.SetDefault("ndvi.point_radius_m", 100.0)
	v.SetDefault("classifier.url", "http://127.0.0.1:8501")
	v.SetDefault("classifier.timeout", "20s")
	v.SetDefault("client.endpoint", "http://localhost:8080/v1/ndvi/analyze")
	v.SetDefault("client.timeout", "60s")
	v.SetDefault("client.timezone", "UTC")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: AGROSIGHT_NDVI_PROCESSOR_URL → ndvi.processor_url
	v.SetEnvPrefix("AGROSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Temporal.TaskQueue == "" {
		errs = append(errs, "temporal.task_queue is required")
	}
	if !isHTTPURL(c.NDVI.ProcessorURL) {
		errs = append(errs, fmt.Sprintf("ndvi.processor_url must be an http(s) URL, got %q", c.NDVI.ProcessorURL))
	}
	if c.NDVI.RequestTimeout <= 0 {
		errs = append(errs, "ndvi.request_timeout must be positive")
	}
	if c.NDVI.CacheTTL < 0 {
		errs = append(errs, "ndvi.cache_ttl must not be negative")
	}
	if c.NDVI.MaxWindowDays < 0 {
		errs = append(errs, "ndvi.max_window_days must not be negative")
	}
	if c.NDVI.PointRadiusM <= 0 {
		errs = append(errs, "ndvi.point_radius_m must be positive")
	}
	if !isHTTPURL(c.Classifier.URL) {
		errs = append(errs, fmt.Sprintf("classifier.url must be an http(s) URL, got %q", c.Classifier.URL))
	}
	if !isHTTPURL(c.Client.Endpoint) {
		errs = append(errs, fmt.Sprintf("client.endpoint must be an http(s) URL, got %q", c.Client.Endpoint))
	}
	if c.Client.Timezone != "" {
		if _, err := time.LoadLocation(c.Client.Timezone); err != nil {
			errs = append(errs, fmt.Sprintf("client.timezone: %v", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
