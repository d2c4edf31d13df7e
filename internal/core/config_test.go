package core

import (
	"testing"
)

func TestConfig_DatabaseURL(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.Name = "testdb"
	cfg.Database.Username = "testuser"
	cfg.Database.Password = "testpassword"
	cfg.Database.SSLMode = "disable"

	url := cfg.DatabaseURL()
	expected := "host=localhost port=5432 dbname=testdb user=testuser password=testpassword sslmode=disable"
	if url != expected {
		t.Errorf("DatabaseURL() want = %s, got = %s", expected, url)
	}
}

func TestConfig_ListenAddress(t *testing.T) {
	cfg := &Config{Hostname: "127.0.0.1", Port: 8081}

	addr := cfg.ListenAddress()
	expected := "127.0.0.1:8081"
	if addr != expected {
		t.Errorf("ListenAddress() want = %s, got = %s", expected, addr)
	}
}

func TestSetDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	if cfg.MaxBodyBytes != 1<<20 {
		t.Errorf("unexpected default body limit: %d", cfg.MaxBodyBytes)
	}
	if cfg.Worker.PoolSize == 0 || cfg.Worker.PollIntervalMs == 0 {
		t.Errorf("worker defaults not applied: %+v", cfg.Worker)
	}
	if cfg.Session.TTLMinutes == 0 {
		t.Error("session ttl default not applied")
	}
}

func TestSetDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{MaxBodyBytes: 512}
	cfg.Worker.PoolSize = 2
	setDefaults(cfg)

	if cfg.MaxBodyBytes != 512 {
		t.Errorf("explicit body limit overwritten: %d", cfg.MaxBodyBytes)
	}
	if cfg.Worker.PoolSize != 2 {
		t.Errorf("explicit pool size overwritten: %d", cfg.Worker.PoolSize)
	}
}
