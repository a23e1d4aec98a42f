package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/arthur-debert/pidminter/internal/config"
)

func validConfig() *config.Config {
	return &config.Config{
		Store:   "minter.json",
		Backend: "json",
		Format:  "yaml",
		Log:     config.LogConfig{Level: "warn"},
		Notify: config.NotifyConfig{
			SuppressionWindow: time.Hour,
			ErrorLifetime:     24 * time.Hour,
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*config.Config) {}},
		{name: "leveldb backend", mutate: func(c *config.Config) { c.Backend = "leveldb" }},
		{name: "upper case level", mutate: func(c *config.Config) { c.Log.Level = "DEBUG" }},
		{name: "unknown backend", mutate: func(c *config.Config) { c.Backend = "bdb" }, wantErr: "invalid backend"},
		{name: "unknown format", mutate: func(c *config.Config) { c.Format = "csv" }, wantErr: "invalid format"},
		{name: "unknown level", mutate: func(c *config.Config) { c.Log.Level = "loud" }, wantErr: "invalid log level"},
		{name: "negative rotation", mutate: func(c *config.Config) { c.Log.MaxBackups = -1 }, wantErr: "cannot be negative"},
		{name: "lifetime shorter than window", mutate: func(c *config.Config) {
			c.Notify.ErrorLifetime = time.Minute
		}, wantErr: "must not be shorter"},
		{name: "notify without smtp", mutate: func(c *config.Config) {
			c.Notify.Enabled = true
		}, wantErr: "smtp-addr is required"},
		{name: "notify bad from", mutate: func(c *config.Config) {
			c.Notify.Enabled = true
			c.Notify.SMTPAddr = "localhost:25"
			c.Notify.From = "not an address"
			c.Notify.To = []string{"admin@example.org"}
		}, wantErr: "invalid notify from address"},
		{name: "notify without recipients", mutate: func(c *config.Config) {
			c.Notify.Enabled = true
			c.Notify.SMTPAddr = "localhost:25"
			c.Notify.From = "ezid@example.org"
		}, wantErr: "at least one notify recipient"},
		{name: "notify complete", mutate: func(c *config.Config) {
			c.Notify.Enabled = true
			c.Notify.SMTPAddr = "localhost:25"
			c.Notify.From = "ezid@example.org"
			c.Notify.To = []string{"Admin <admin@example.org>"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateStore(t *testing.T) {
	cfg := validConfig()
	if err := ValidateStore(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.Store = "  "
	if err := ValidateStore(cfg); err == nil {
		t.Error("expected error for empty store path")
	}
}
