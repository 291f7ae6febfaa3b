package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DataPath       string
	ListenAddr     string
	AuthUser       string
	AuthPass       string
	AuthFile       string
	MountTimeout   time.Duration
	ImportMaxBytes int64
	ToastDuration  time.Duration
	HistoryMax     int
}

func Load() Config {
	initEnvFile()

	cfg := Config{
		DataPath:   os.Getenv("DOCK_DATA_PATH"),
		ListenAddr: envOr("DOCK_LISTEN_ADDR", "127.0.0.1:8080"),
		AuthUser:   os.Getenv("DOCK_AUTH_USER"),
		AuthPass:   os.Getenv("DOCK_AUTH_PASS"),
		AuthFile:   os.Getenv("DOCK_AUTH_FILE"),
	}

	cfg.MountTimeout = parseDurationOr("DOCK_MOUNT_TIMEOUT", 10*time.Second)
	cfg.ImportMaxBytes = parseInt64Or("DOCK_IMPORT_MAX_BYTES", 20<<20)
	cfg.ToastDuration = parseDurationOr("DOCK_TOAST_DURATION", 6*time.Second)
	cfg.HistoryMax = parseIntOr("DOCK_HISTORY_MAX", 100)
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func parseIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}

func parseInt64Or(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}
