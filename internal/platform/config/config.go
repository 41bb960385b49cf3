// Package config loads the service configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full service configuration.
type Config struct {
	Addr            string        `env:"TALENTMATCH_ADDR" envDefault:":8080"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	SeedDemoData    bool          `env:"SEED_DEMO_DATA" envDefault:"true"`

	Verifier Verifier
	Issuer   Issuer
	Poll     Poll
}

// Verifier configures the presentation verifier client.
type Verifier struct {
	BaseURL     string        `env:"VERIFIER_BASE_URL" envDefault:"https://verifier-sandbox.wallet.gov.tw"`
	AccessToken string        `env:"VP_API_KEY"`
	Ref         string        `env:"VERIFIER_REF" envDefault:"00000000_demovp"`
	Timeout     time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`
}

// Issuer configures the credential issuer client.
type Issuer struct {
	BaseURL     string        `env:"ISSUER_BASE_URL" envDefault:"https://issuer-sandbox.wallet.gov.tw"`
	AccessToken string        `env:"VC_API_KEY"`
	Path        string        `env:"ISSUER_QRCODE_PATH" envDefault:"/api/qrcode/data"`
	Timeout     time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`
	MaxRetries  int           `env:"ISSUER_MAX_RETRIES" envDefault:"2"`
}

// Poll bounds the verification poll loop.
type Poll struct {
	Interval    time.Duration `env:"POLL_INTERVAL" envDefault:"1s"`
	MaxAttempts int           `env:"POLL_MAX_ATTEMPTS" envDefault:"300"`
	Timeout     time.Duration `env:"POLL_TIMEOUT" envDefault:"5m"`
}

// Load reads envFiles (missing files are skipped) and then the process
// environment. Variables already set in the environment win over the files.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the poller or clients cannot run with.
func (c Config) Validate() error {
	var errs []error
	if err := validateBaseURL("VERIFIER_BASE_URL", c.Verifier.BaseURL); err != nil {
		errs = append(errs, err)
	}
	if err := validateBaseURL("ISSUER_BASE_URL", c.Issuer.BaseURL); err != nil {
		errs = append(errs, err)
	}
	if c.Poll.Interval <= 0 {
		errs = append(errs, errors.New("POLL_INTERVAL must be positive"))
	}
	if c.Poll.Timeout <= 0 {
		errs = append(errs, errors.New("POLL_TIMEOUT must be positive"))
	}
	if c.Poll.MaxAttempts < 0 {
		errs = append(errs, errors.New("POLL_MAX_ATTEMPTS cannot be negative"))
	}
	if c.Verifier.Timeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT must be positive"))
	}
	if c.Issuer.MaxRetries < 0 {
		errs = append(errs, errors.New("ISSUER_MAX_RETRIES cannot be negative"))
	}
	return errors.Join(errs...)
}

func validateBaseURL(key, raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", key, raw)
	}
	return nil
}
