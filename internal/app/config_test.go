package app

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.MongoDatabase != "torrentcore" {
		t.Errorf("MongoDatabase = %q", cfg.MongoDatabase)
	}
	if cfg.SyncInterval != 5*time.Second {
		t.Errorf("SyncInterval = %v", cfg.SyncInterval)
	}
	if cfg.DefaultMaxDownloadSpeed != -1 {
		t.Errorf("DefaultMaxDownloadSpeed = %v", cfg.DefaultMaxDownloadSpeed)
	}
	if cfg.DefaultStopRatio != 2.0 {
		t.Errorf("DefaultStopRatio = %v", cfg.DefaultStopRatio)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SYNC_INTERVAL", "10s")
	t.Setenv("SESSION_MAX_DOWNLOAD_RATE", "1048576")
	t.Setenv("TORRENT_ADD_PAUSED", "true")
	t.Setenv("TORRENT_MAX_UPLOAD_SPEED", "512.5")

	cfg := LoadConfig()
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.SyncInterval != 10*time.Second {
		t.Errorf("SyncInterval = %v", cfg.SyncInterval)
	}
	if cfg.MaxDownloadRate != 1048576 {
		t.Errorf("MaxDownloadRate = %d", cfg.MaxDownloadRate)
	}
	if !cfg.DefaultAddPaused {
		t.Error("DefaultAddPaused not applied")
	}
	if cfg.DefaultMaxUploadSpeed != 512.5 {
		t.Errorf("DefaultMaxUploadSpeed = %v", cfg.DefaultMaxUploadSpeed)
	}
}

func TestEnvParsersFallBackOnGarbage(t *testing.T) {
	t.Setenv("SYNC_INTERVAL", "soon")
	t.Setenv("SESSION_MAX_UPLOAD_RATE", "-5")
	t.Setenv("TORRENT_ADD_PAUSED", "maybe")

	cfg := LoadConfig()
	if cfg.SyncInterval != 5*time.Second {
		t.Errorf("SyncInterval = %v, want default", cfg.SyncInterval)
	}
	if cfg.MaxUploadRate != 0 {
		t.Errorf("MaxUploadRate = %d, want default", cfg.MaxUploadRate)
	}
	if cfg.DefaultAddPaused {
		t.Error("DefaultAddPaused should fall back to false")
	}
}
