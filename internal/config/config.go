package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	Port              string
	DatabasePath      string
	SessionSecret     string
	GinMode           string
	RedisURL          string
	SyncPublishing    bool
	SyncPollTimeout   time.Duration
	SyncSweepInterval time.Duration
	LogLevel          string
	LogFormat         string
	LogFile           string
	SuperRootUserName string
	SuperRootPassword string
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := env("PORT", "8080")

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	return AppConfig{
		ListenAddr:        listenAddr,
		Port:              port,
		DatabasePath:      env("DATABASE_PATH", "draftsync.db"),
		SessionSecret:     env("SESSION_SECRET", "draftsync-dev-secret"),
		GinMode:           env("GIN_MODE", "release"),
		RedisURL:          env("REDIS_URL", ""),
		SyncPublishing:    envBool("SYNC_PUBLISHING", true),
		SyncPollTimeout:   envDuration("SYNC_POLL_TIMEOUT", 5*time.Second),
		SyncSweepInterval: envDuration("SYNC_SWEEP_INTERVAL", time.Minute),
		LogLevel:          env("LOG_LEVEL", "info"),
		LogFormat:         env("LOG_FORMAT", "text"),
		LogFile:           env("LOG_FILE", ""),
		SuperRootUserName: env("SUPER_ROOT_USER_NAME", ""),
		SuperRootPassword: env("SUPER_ROOT_PASSWORD", ""),
	}
}

func env(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

// envBool 解析失败时回退到默认值
func envBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
