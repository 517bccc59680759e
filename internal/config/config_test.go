package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q", cfg.Server.Host)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q", cfg.Database.Driver)
	}
	if cfg.JWT.ExpireHour != 24 {
		t.Errorf("JWT.ExpireHour = %d", cfg.JWT.ExpireHour)
	}
	if cfg.Admin.Username != "admin" {
		t.Errorf("Admin.Username = %q", cfg.Admin.Username)
	}
	if cfg.Routing.Path != "routing.yaml" {
		t.Errorf("Routing.Path = %q", cfg.Routing.Path)
	}
	if cfg.Providers.Ollama.BaseURL != "http://localhost:11434" {
		t.Errorf("Providers.Ollama.BaseURL = %q", cfg.Providers.Ollama.BaseURL)
	}
	if cfg.Log.RetentionDays != 30 {
		t.Errorf("Log.RetentionDays = %d", cfg.Log.RetentionDays)
	}
}

func TestLoad_FileValuesKeepUnsetDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: "9090"
database:
  driver: postgres
  dsn: "host=localhost user=rw dbname=routewise"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %q, expected file value", cfg.Server.Port)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Database.Driver = %q, expected file value", cfg.Database.Driver)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, expected default", cfg.Server.Host)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("ADMIN_USERNAME", "operator")
	t.Setenv("ROUTING_CONFIG", "/etc/routewise/routing.yaml")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("Server.Port = %q, expected env override", cfg.Server.Port)
	}
	if cfg.Database.Driver != "mysql" {
		t.Errorf("Database.Driver = %q, expected env override", cfg.Database.Driver)
	}
	if cfg.Admin.Username != "operator" {
		t.Errorf("Admin.Username = %q, expected env override", cfg.Admin.Username)
	}
	if cfg.Routing.Path != "/etc/routewise/routing.yaml" {
		t.Errorf("Routing.Path = %q, expected env override", cfg.Routing.Path)
	}
}

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		addr     string
		password string
		db       int
	}{
		{"full form", "redis://:secret@redis.internal:6380/2", "redis.internal:6380", "secret", 2},
		{"no auth no db", "redis://localhost:6379", "localhost:6379", "", 0},
		{"db only", "redis://localhost:6379/1", "localhost:6379", "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.parseRedisURL(tt.url)

			if cfg.Redis.Addr != tt.addr {
				t.Errorf("Addr = %q, expected %q", cfg.Redis.Addr, tt.addr)
			}
			if cfg.Redis.Password != tt.password {
				t.Errorf("Password = %q, expected %q", cfg.Redis.Password, tt.password)
			}
			if cfg.Redis.DB != tt.db {
				t.Errorf("DB = %d, expected %d", cfg.Redis.DB, tt.db)
			}
		})
	}
}

func TestLoad_RedisURLEnablesQueue(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://:pw@queue.internal:6379/0")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Redis.Enabled {
		t.Error("REDIS_URL should enable the async queue")
	}
	if cfg.Redis.Addr != "queue.internal:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
	if cfg.Redis.Password != "pw" {
		t.Errorf("Redis.Password = %q", cfg.Redis.Password)
	}
}
