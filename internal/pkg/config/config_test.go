package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Server:     ServerConfig{Port: 8080, ReadTimeout: 10, WriteTimeout: 60},
		Database:   DatabaseConfig{Host: "localhost", Port: 5432, User: "agrosight", DBName: "agrosight", SSLMode: "disable"},
		NATS:       NATSConfig{URL: "nats://localhost:4222"},
		Valkey:     ValkeyConfig{Addr: "localhost:6379"},
		Temporal:   TemporalConfig{HostPort: "localhost:7233", Namespace: "default", TaskQueue: "ndvi-analysis"},
		NDVI:       NDVIConfig{ProcessorURL: "http://127.0.0.1:8000", RequestTimeout: 45 * time.Second, CacheTTL: 3600, MaxWindowDays: 366, PointRadiusM: 100},
		Classifier: ClassifierConfig{URL: "http://127.0.0.1:8501", Timeout: 20 * time.Second},
		Client:     ClientConfig{Endpoint: "http://localhost:8080/v1/ndvi/analyze", Timeout: time.Minute, Timezone: "UTC"},
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.NDVI.ProcessorURL = "local"
	cfg.NDVI.PointRadiusM = 0
	cfg.Client.Timezone = "Mars/Olympus"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "ndvi.processor_url", "ndvi.point_radius_m", "client.timezone"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "x", SSLMode: "require"}
	if got := d.DSN(); got != "postgres://u:p@db:5433/x?sslmode=require" {
		t.Errorf("unexpected DSN %s", got)
	}
}

func TestClientLocation(t *testing.T) {
	if loc := (ClientConfig{}).Location(); loc != time.UTC {
		t.Errorf("expected UTC fallback, got %v", loc)
	}
	if loc := (ClientConfig{Timezone: "Asia/Kolkata"}).Location(); loc.String() != "Asia/Kolkata" {
		t.Errorf("expected Asia/Kolkata, got %v", loc)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("AGROSIGHT_NDVI_MAX_WINDOW_DAYS", "90")
	t.Setenv("AGROSIGHT_CLIENT_TIMEZONE", "Asia/Kolkata")

	cfg, err := Load("agrosight-test")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.NDVI.MaxWindowDays != 90 {
		t.Errorf("expected 90, got %d", cfg.NDVI.MaxWindowDays)
	}
	if cfg.Client.Timezone != "Asia/Kolkata" {
		t.Errorf("expected Asia/Kolkata, got %s", cfg.Client.Timezone)
	}
	if cfg.Telemetry.ServiceName != "agrosight-test" {
		t.Errorf("expected service name default, got %s", cfg.Telemetry.ServiceName)
	}
	if cfg.NDVI.RequestTimeout != 45*time.Second {
		t.Errorf("expected 45s request timeout, got %v", cfg.NDVI.RequestTimeout)
	}
}
