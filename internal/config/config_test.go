package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "9250" {
		t.Fatalf("Port = %q, want %q", cfg.Server.Port, "9250")
	}
	if cfg.MongoDB.URI != "" {
		t.Fatalf("MongoDB.URI = %q, want empty for memory mode", cfg.MongoDB.URI)
	}
	if cfg.Redis.LockTTL != 10*time.Second {
		t.Fatalf("LockTTL = %v, want %v", cfg.Redis.LockTTL, 10*time.Second)
	}
	if cfg.Assessment.ExpirySweepInterval != 0 {
		t.Fatalf("ExpirySweepInterval = %v, want disabled", cfg.Assessment.ExpirySweepInterval)
	}
	if len(cfg.Assessment.CORSOrigins) != 2 {
		t.Fatalf("CORSOrigins = %v, want two defaults", cfg.Assessment.CORSOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("EXPIRY_SWEEP_INTERVAL", "30s")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example,https://c.example")
	t.Setenv("HOSTNAME", "replica-2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MongoDB.URI != "mongodb://localhost:27017" {
		t.Fatalf("MongoDB.URI = %q", cfg.MongoDB.URI)
	}
	if cfg.Assessment.ExpirySweepInterval != 30*time.Second {
		t.Fatalf("ExpirySweepInterval = %v, want 30s", cfg.Assessment.ExpirySweepInterval)
	}
	if len(cfg.Assessment.CORSOrigins) != 3 {
		t.Fatalf("CORSOrigins = %v, want three", cfg.Assessment.CORSOrigins)
	}
	if got := cfg.Server.ServiceID(); got != "assessment-service-replica-2" {
		t.Fatalf("ServiceID = %q", got)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("REDIS_LOCK_TTL", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("Expected parse error for invalid duration")
	}
}

func TestLoadRejectsZeroRetry(t *testing.T) {
	t.Setenv("REDIS_LOCK_RETRY", "0s")
	if _, err := Load(); err == nil {
		t.Fatal("Expected error for zero lock retry")
	}
}
