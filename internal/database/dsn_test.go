package database

import (
	"strings"
	"testing"
)

func TestBuildPostgresDSNDefaults(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User: "authbase",
		Name: "authbase",
	})
	if err != nil {
		t.Fatalf("build dsn: %v", err)
	}

	expected := "host=localhost port=5432 user=authbase dbname=authbase sslmode=disable"
	if dsn != expected {
		t.Fatalf("expected %q, got %q", expected, dsn)
	}
}

func TestBuildPostgresDSNWithOptions(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User:     "user",
		Name:     "db",
		Host:     "db.example.com",
		Port:     6543,
		Password: "pass",
		Options: map[string]string{
			"sslmode":     "require",
			"search_path": "public",
		},
	})
	if err != nil {
		t.Fatalf("build dsn: %v", err)
	}

	if !containsAll(
		dsn,
		"host=db.example.com",
		"port=6543",
		"user=user",
		"dbname=db",
		"password=pass",
		"sslmode=require",
		"search_path=public",
	) {
		t.Fatalf("dsn missing expected components: %q", dsn)
	}
}

func TestBuildPostgresDSNRequiresUserAndName(t *testing.T) {
	if _, err := buildPostgresDSN(Config{}); err == nil {
		t.Fatalf("expected error for missing credentials")
	}
}

func TestBuildMySQLDSNDefaults(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User: "authbase",
		Name: "authbase",
	})
	if err != nil {
		t.Fatalf("build dsn: %v", err)
	}

	if !strings.HasPrefix(dsn, "authbase@tcp(127.0.0.1:3306)/authbase?") {
		t.Fatalf("unexpected dsn prefix: %q", dsn)
	}
	if !containsAll(dsn, "charset=utf8mb4", "parseTime=True", "loc=Local") {
		t.Fatalf("dsn missing defaults: %q", dsn)
	}
}

func TestBuildMySQLDSNWithPassword(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User:     "user",
		Password: "pass",
		Name:     "db",
		Host:     "db.example.com",
		Port:     3307,
	})
	if err != nil {
		t.Fatalf("build dsn: %v", err)
	}

	if !strings.HasPrefix(dsn, "user:pass@tcp(db.example.com:3307)/db?") {
		t.Fatalf("unexpected dsn prefix: %q", dsn)
	}
}

func TestDSNOverrideWins(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{DSN: "postgres://override"})
	if err != nil {
		t.Fatalf("build dsn: %v", err)
	}
	if dsn != "postgres://override" {
		t.Fatalf("expected override to win, got %q", dsn)
	}
}

func containsAll(value string, parts ...string) bool {
	for _, part := range parts {
		if !strings.Contains(value, part) {
			return false
		}
	}
	return true
}
