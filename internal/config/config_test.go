package config

import (
	"testing"
	"time"
)

// DATABASE_URL未設定の場合にエラーになることを検証
func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when DATABASE_URL is not set")
	}
}

// 必須環境変数のみ設定した場合にデフォルト値が適用されることを検証
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/playdex?sslmode=disable")
	t.Setenv("DIRECTORY_DEFAULT_LIMIT", "")
	t.Setenv("DIRECTORY_MAX_LIMIT", "")
	t.Setenv("ACTIVE_THRESHOLD_MS", "")
	t.Setenv("QUERY_TIMEOUT", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DirectoryDefaultLimit != 50 {
		t.Errorf("DirectoryDefaultLimit = %d, want 50", cfg.DirectoryDefaultLimit)
	}
	if cfg.DirectoryMaxLimit != 500 {
		t.Errorf("DirectoryMaxLimit = %d, want 500", cfg.DirectoryMaxLimit)
	}
	if cfg.ActiveThresholdMs != 2*60*60*1000 {
		t.Errorf("ActiveThresholdMs = %d, want %d", cfg.ActiveThresholdMs, 2*60*60*1000)
	}
	if cfg.QueryTimeout != 15*time.Second {
		t.Errorf("QueryTimeout = %v, want 15s", cfg.QueryTimeout)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "8080")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.RetentionDays != 365 {
		t.Errorf("RetentionDays = %d, want 365", cfg.RetentionDays)
	}
}

// 環境変数で明示した値がデフォルトを上書きすることを検証
func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/playdex?sslmode=disable")
	t.Setenv("DIRECTORY_DEFAULT_LIMIT", "25")
	t.Setenv("ACTIVE_THRESHOLD_MS", "3600000")
	t.Setenv("QUERY_TIMEOUT", "5s")
	t.Setenv("RATE_LIMIT_READ", "30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DirectoryDefaultLimit != 25 {
		t.Errorf("DirectoryDefaultLimit = %d, want 25", cfg.DirectoryDefaultLimit)
	}
	if cfg.ActiveThresholdMs != 3600000 {
		t.Errorf("ActiveThresholdMs = %d, want 3600000", cfg.ActiveThresholdMs)
	}
	if cfg.QueryTimeout != 5*time.Second {
		t.Errorf("QueryTimeout = %v, want 5s", cfg.QueryTimeout)
	}
	if cfg.RateLimitRead != 30 {
		t.Errorf("RateLimitRead = %d, want 30", cfg.RateLimitRead)
	}
}

// 不正な数値はデフォルト値にフォールバックすることを検証
func TestLoad_InvalidNumberFallsBack(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/playdex?sslmode=disable")
	t.Setenv("DIRECTORY_MAX_LIMIT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DirectoryMaxLimit != 500 {
		t.Errorf("DirectoryMaxLimit = %d, want fallback 500", cfg.DirectoryMaxLimit)
	}
}
