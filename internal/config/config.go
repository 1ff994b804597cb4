// Package config は環境変数ベースのアプリケーション設定を提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Directory
	DirectoryDefaultLimit int           // limitパラメータ省略時の件数
	DirectoryMaxLimit     int           // limitパラメータの上限
	ActiveThresholdMs     int64         // アクティビティスコア算出用のプレイ時間しきい値（ms）
	QueryTimeout          time.Duration // ディレクトリクエリ1回あたりのタイムアウト

	// Retention
	RetentionDays int // セッション・位置情報履歴の保持日数

	// Rate Limit
	RateLimitRead  int // 読み取りAPIのレート（req/min/クライアント）
	RateLimitWrite int // 書き込みAPIのレート（req/min/クライアント）

	// Server
	ServerPort string
	LogLevel   string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.DirectoryDefaultLimit = getEnvInt("DIRECTORY_DEFAULT_LIMIT", 50)
	cfg.DirectoryMaxLimit = getEnvInt("DIRECTORY_MAX_LIMIT", 500)
	// デフォルトしきい値: 週あたり2時間のアクティブプレイ
	cfg.ActiveThresholdMs = getEnvInt64("ACTIVE_THRESHOLD_MS", 2*60*60*1000)
	cfg.QueryTimeout = getEnvDuration("QUERY_TIMEOUT", 15*time.Second)
	cfg.RetentionDays = getEnvInt("RETENTION_DAYS", 365)
	cfg.RateLimitRead = getEnvInt("RATE_LIMIT_READ", 120)
	cfg.RateLimitWrite = getEnvInt("RATE_LIMIT_WRITE", 600)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
