// Package validation checks a pidminter configuration for consistency
// before any minter is opened.
package validation

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/arthur-debert/pidminter/internal/config"
	"github.com/arthur-debert/pidminter/storage"
)

var (
	validBackends = []string{string(storage.JSONKind), string(storage.LevelDBKind)}
	validFormats  = []string{"yaml", "json"}
	validLevels   = []string{"debug", "info", "warn", "error"}
)

// Validate checks the settings every command depends on.
func Validate(cfg *config.Config) error {
	if !contains(validBackends, cfg.Backend) {
		return fmt.Errorf("invalid backend %q (must be one of: %s)", cfg.Backend, strings.Join(validBackends, ", "))
	}
	if !contains(validFormats, cfg.Format) {
		return fmt.Errorf("invalid format %q (must be one of: %s)", cfg.Format, strings.Join(validFormats, ", "))
	}
	if !contains(validLevels, strings.ToLower(cfg.Log.Level)) {
		return fmt.Errorf("invalid log level %q (must be one of: %s)", cfg.Log.Level, strings.Join(validLevels, ", "))
	}
	if err := validateLog(&cfg.Log); err != nil {
		return err
	}
	return validateNotify(&cfg.Notify)
}

// ValidateStore additionally requires a minter store path.
func ValidateStore(cfg *config.Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Store) == "" {
		return fmt.Errorf("store path is required")
	}
	return nil
}

func validateLog(l *config.LogConfig) error {
	if l.MaxSizeMB < 0 || l.MaxBackups < 0 || l.MaxAgeDays < 0 {
		return fmt.Errorf("log rotation settings cannot be negative")
	}
	return nil
}

func validateNotify(n *config.NotifyConfig) error {
	if n.SuppressionWindow < 0 {
		return fmt.Errorf("notify suppression window cannot be negative")
	}
	if n.ErrorLifetime < n.SuppressionWindow {
		return fmt.Errorf("notify error lifetime (%s) must not be shorter than the suppression window (%s)",
			n.ErrorLifetime, n.SuppressionWindow)
	}
	if !n.Enabled {
		return nil
	}

	if n.SMTPAddr == "" {
		return fmt.Errorf("notify smtp-addr is required when notification is enabled")
	}
	if _, err := mail.ParseAddress(n.From); err != nil {
		return fmt.Errorf("invalid notify from address %q: %w", n.From, err)
	}
	if len(n.To) == 0 {
		return fmt.Errorf("at least one notify recipient is required")
	}
	for _, to := range n.To {
		if _, err := mail.ParseAddress(to); err != nil {
			return fmt.Errorf("invalid notify recipient %q: %w", to, err)
		}
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, item := range slice {
		if item == s {
			return true
		}
	}
	return false
}
