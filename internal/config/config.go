package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds process settings read from CHAPTERHUB_* environment variables.
type Config struct {
	HTTPAddr        string        `env:"CHAPTERHUB_HTTP_ADDR"         envDefault:":8080"`
	GRPCAddr        string        `env:"CHAPTERHUB_GRPC_ADDR"         envDefault:""`
	PGDSN           string        `env:"CHAPTERHUB_PG_DSN"`
	AuthSecret      string        `env:"CHAPTERHUB_AUTH_SECRET"`
	AuthIssuer      string        `env:"CHAPTERHUB_AUTH_ISSUER"       envDefault:"chapterhub"`
	MembershipGrace time.Duration `env:"CHAPTERHUB_MEMBERSHIP_GRACE"  envDefault:"0s"`
	RateBurst       int           `env:"CHAPTERHUB_RATE_BURST"        envDefault:"20"`
	RatePerSecond   int           `env:"CHAPTERHUB_RATE_PER_SECOND"   envDefault:"10"`
	MaxBodyBytes    int64         `env:"CHAPTERHUB_MAX_BODY_BYTES"    envDefault:"1048576"`
	ShutdownTimeout time.Duration `env:"CHAPTERHUB_SHUTDOWN_TIMEOUT"  envDefault:"10s"`
	OTelEndpoint    string        `env:"CHAPTERHUB_OTEL_ENDPOINT"`
	DevSeed         bool          `env:"CHAPTERHUB_DEV_SEED"          envDefault:"false"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that have no safe default.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.AuthSecret) == "" {
		errs = append(errs, errors.New("CHAPTERHUB_AUTH_SECRET is required"))
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, errors.New("CHAPTERHUB_HTTP_ADDR must not be empty"))
	}
	if c.MembershipGrace < 0 {
		errs = append(errs, errors.New("CHAPTERHUB_MEMBERSHIP_GRACE must not be negative"))
	}
	if c.RateBurst <= 0 || c.RatePerSecond <= 0 {
		errs = append(errs, errors.New("rate limit settings must be positive"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("CHAPTERHUB_MAX_BODY_BYTES must be positive"))
	}
	return errors.Join(errs...)
}
