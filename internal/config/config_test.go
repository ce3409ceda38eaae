package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CHAPTERHUB_AUTH_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.AuthIssuer != "chapterhub" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RateBurst != 20 || cfg.RatePerSecond != 10 || cfg.MaxBodyBytes != 1<<20 {
		t.Fatalf("unexpected limits: %+v", cfg)
	}
	if cfg.ShutdownTimeout != 10*time.Second || cfg.MembershipGrace != 0 {
		t.Fatalf("unexpected durations: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CHAPTERHUB_AUTH_SECRET", "s3cret")
	t.Setenv("CHAPTERHUB_MEMBERSHIP_GRACE", "72h")
	t.Setenv("CHAPTERHUB_GRPC_ADDR", ":9090")
	t.Setenv("CHAPTERHUB_DEV_SEED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MembershipGrace != 72*time.Hour || cfg.GRPCAddr != ":9090" || !cfg.DevSeed {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("CHAPTERHUB_AUTH_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected missing secret to fail")
	}

	t.Setenv("CHAPTERHUB_AUTH_SECRET", "s3cret")
	t.Setenv("CHAPTERHUB_RATE_BURST", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected invalid rate burst to fail")
	}
}
