package config

import (
	"testing"
	"time"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("CLAIM_TTL", "5m")
	t.Setenv("RATE_LIMIT_PER_MIN", "30")

	cfg := Load()
	if cfg.HTTPPort != "9090" {
		t.Errorf("HTTPPort = %q, want 9090", cfg.HTTPPort)
	}
	if cfg.ClaimTTL != 5*time.Minute {
		t.Errorf("ClaimTTL = %s, want 5m", cfg.ClaimTTL)
	}
	if cfg.RateLimitPerMin != 30 {
		t.Errorf("RateLimitPerMin = %d, want 30", cfg.RateLimitPerMin)
	}
}

func TestLoadFallsBackOnBadValues(t *testing.T) {
	t.Setenv("CLAIM_TTL", "not-a-duration")
	t.Setenv("RATE_LIMIT_PER_MIN", "lots")

	cfg := Load()
	if cfg.ClaimTTL != 10*time.Minute {
		t.Errorf("ClaimTTL = %s, want the 10m fallback", cfg.ClaimTTL)
	}
	if cfg.RateLimitPerMin != 120 {
		t.Errorf("RateLimitPerMin = %d, want the 120 fallback", cfg.RateLimitPerMin)
	}
}
