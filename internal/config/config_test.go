package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvPrefix+"_CONFIG", "")

	v := NewViper()
	v.SetConfigName("does-not-exist")

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Backend != DefaultBackend || cfg.Format != DefaultFormat {
		t.Errorf("unexpected defaults: backend=%q format=%q", cfg.Backend, cfg.Format)
	}
	if cfg.Log.Level != DefaultLogLevel || cfg.Log.MaxSizeMB != DefaultMaxSizeMB {
		t.Errorf("unexpected log defaults: %+v", cfg.Log)
	}
	if cfg.Notify.SuppressionWindow != time.Hour || cfg.Notify.ErrorLifetime != 24*time.Hour {
		t.Errorf("unexpected notify defaults: %+v", cfg.Notify)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pidminter.yaml")
	content := `store: /var/lib/minters/b5060.json
backend: leveldb
log:
  level: debug
  max-backups: 3
notify:
  enabled: true
  suppression-window: 30m
  error-lifetime: 2h
  smtp-addr: localhost:25
  from: ezid@example.org
  to:
    - admin@example.org
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv(EnvPrefix+"_CONFIG", path)
	t.Setenv(EnvPrefix+"_DRY_RUN", "true")
	t.Setenv(EnvPrefix+"_FORMAT", "json")

	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := &Config{
		Store:   "/var/lib/minters/b5060.json",
		Backend: "leveldb",
		DryRun:  true,
		Format:  "json",
		Log: LogConfig{
			Level:      "debug",
			MaxSizeMB:  DefaultMaxSizeMB,
			MaxBackups: 3,
		},
		Notify: NotifyConfig{
			Enabled:           true,
			SuppressionWindow: 30 * time.Minute,
			ErrorLifetime:     2 * time.Hour,
			SMTPAddr:          "localhost:25",
			From:              "ezid@example.org",
			To:                []string{"admin@example.org"},
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pidminter.yaml")
	if err := os.WriteFile(path, []byte("store: [unterminated"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv(EnvPrefix+"_CONFIG", path)

	if _, err := Load(NewViper()); err == nil {
		t.Error("expected error for malformed config")
	}
}
