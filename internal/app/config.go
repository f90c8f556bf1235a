package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr        string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	LogLevel        string
	LogFormat       string

	// TorrentDataDir is where the engine writes payload data; StateDir holds
	// .torrent metadata files written by the core.
	TorrentDataDir string
	StateDir       string

	SyncInterval time.Duration
	SessionTTL   time.Duration

	// Session-wide transfer caps in bytes/s; 0 = unlimited.
	MaxDownloadRate int64
	MaxUploadRate   int64

	// Per-torrent option defaults in KiB/s; -1 = unlimited.
	DefaultMaxDownloadSpeed float64
	DefaultMaxUploadSpeed   float64
	DefaultAddPaused        bool
	DefaultStopRatio        float64
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getEnv("MONGO_DB", "torrentcore"),
		MongoCollection: getEnv("MONGO_COLLECTION", "torrents"),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "text")),

		TorrentDataDir: getEnv("TORRENT_DATA_DIR", "data"),
		StateDir:       getEnv("TORRENT_STATE_DIR", "state"),

		SyncInterval: getEnvDuration("SYNC_INTERVAL", 5*time.Second),
		SessionTTL:   getEnvDuration("SESSION_TTL", 24*time.Hour),

		MaxDownloadRate: getEnvInt64("SESSION_MAX_DOWNLOAD_RATE", 0),
		MaxUploadRate:   getEnvInt64("SESSION_MAX_UPLOAD_RATE", 0),

		DefaultMaxDownloadSpeed: getEnvFloat("TORRENT_MAX_DOWNLOAD_SPEED", -1),
		DefaultMaxUploadSpeed:   getEnvFloat("TORRENT_MAX_UPLOAD_SPEED", -1),
		DefaultAddPaused:        getEnvBool("TORRENT_ADD_PAUSED", false),
		DefaultStopRatio:        getEnvFloat("TORRENT_STOP_RATIO", 2.0),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	if parsed < 0 {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
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
