package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("APP_TIMEZONE", "")
	t.Setenv("TICKET_NUMBERING", "")
	t.Setenv("PERMISSION_CACHE_TTL_SECONDS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	loc, err := cfg.App.Location()
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	if loc.String() != "America/Sao_Paulo" {
		t.Errorf("expected America/Sao_Paulo, got %s", loc)
	}
	if cfg.Access.CacheTTL() != 5*time.Minute {
		t.Errorf("expected 5m cache ttl, got %s", cfg.Access.CacheTTL())
	}
	if cfg.Access.SweepEvery() != time.Minute {
		t.Errorf("expected 1m janitor period, got %s", cfg.Access.SweepEvery())
	}
	if cfg.Tickets.Numbering != NumberingCount {
		t.Errorf("expected count numbering, got %s", cfg.Tickets.Numbering)
	}
	if cfg.Tickets.ClosedResolveAfter() != 24*time.Hour {
		t.Errorf("expected 24h threshold, got %s", cfg.Tickets.ClosedResolveAfter())
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	base := func() *Config {
		return &Config{
			App:      AppConfig{Timezone: "UTC"},
			Database: DatabaseConfig{Driver: DriverSQLite},
			Tickets:  TicketConfig{Numbering: NumberingCount},
		}
	}

	cfg := base()
	cfg.Database.Driver = DriverPostgres
	if err := cfg.Validate(); err == nil {
		t.Error("postgres without DSN should fail")
	}

	cfg = base()
	cfg.Tickets.Numbering = NumberingRedis
	if err := cfg.Validate(); err == nil {
		t.Error("redis numbering without REDIS_ADDR should fail")
	}

	cfg = base()
	cfg.App.Timezone = "Mars/Olympus_Mons"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown timezone should fail")
	}

	if err := base().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}
