package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8000" {
		t.Errorf("Port = %q, want 8000", cfg.Port)
	}
	if cfg.MongoDatabase != "noxy" {
		t.Errorf("MongoDatabase = %q, want noxy", cfg.MongoDatabase)
	}
	if cfg.FileMatchThreshold != 0.55 {
		t.Errorf("FileMatchThreshold = %f, want 0.55", cfg.FileMatchThreshold)
	}
	if cfg.HistoryWindow != 6 {
		t.Errorf("HistoryWindow = %d, want 6", cfg.HistoryWindow)
	}
	if cfg.BlobCacheTTL != 5*time.Minute {
		t.Errorf("BlobCacheTTL = %v, want 5m", cfg.BlobCacheTTL)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("FILE_MATCH_THRESHOLD", "0.7")
	t.Setenv("HISTORY_WINDOW", "10")
	t.Setenv("STREAM_RESPONSES", "true")
	t.Setenv("BLOB_CACHE_TTL", "30s")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.FileMatchThreshold != 0.7 {
		t.Errorf("FileMatchThreshold = %f, want 0.7", cfg.FileMatchThreshold)
	}
	if cfg.HistoryWindow != 10 {
		t.Errorf("HistoryWindow = %d, want 10", cfg.HistoryWindow)
	}
	if !cfg.StreamResponses {
		t.Error("StreamResponses = false, want true")
	}
	if cfg.BlobCacheTTL != 30*time.Second {
		t.Errorf("BlobCacheTTL = %v, want 30s", cfg.BlobCacheTTL)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("FILE_MATCH_THRESHOLD", "not-a-number")
	t.Setenv("HISTORY_WINDOW", "many")
	t.Setenv("BLOB_CACHE_TTL", "forever")

	cfg := Load()

	if cfg.FileMatchThreshold != 0.55 {
		t.Errorf("FileMatchThreshold = %f, want default", cfg.FileMatchThreshold)
	}
	if cfg.HistoryWindow != 6 {
		t.Errorf("HistoryWindow = %d, want default", cfg.HistoryWindow)
	}
	if cfg.BlobCacheTTL != 5*time.Minute {
		t.Errorf("BlobCacheTTL = %v, want default", cfg.BlobCacheTTL)
	}
}
