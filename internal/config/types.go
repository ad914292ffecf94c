package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// Config is the full on-disk configuration.
//
// Duration-like options are strings ("30s", "2m") parsed with ParseDurationField
// so a bad value is rejected at load time instead of silently defaulting.
type Config struct {
	Source    SourceConfig   `json:"source"`
	Telegram  TelegramConfig `json:"telegram"`
	Storage   StorageConfig  `json:"storage"`
	Languages LangConfig     `json:"languages"`
	Notify    NotifyConfig   `json:"notify"`
	Catalog   CatalogConfig  `json:"catalog"`
	Logging   LoggingConfig  `json:"logging"`
}

type SourceConfig struct {
	URL          string `json:"url"`
	PollInterval string `json:"poll_interval"`
	StatusTTL    string `json:"status_ttl"`
	HTTPTimeout  string `json:"http_timeout"`
}

type TelegramConfig struct {
	Token       string `json:"token"`
	PollTimeout string `json:"poll_timeout"`
	SupportURL  string `json:"support_url"`
	// SessionTTL bounds how long a pending /sub selection stays live.
	SessionTTL string `json:"session_ttl"`
}

type StorageConfig struct {
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout"`
}

type LangConfig struct {
	Default   string   `json:"default"`
	Supported []string `json:"supported"`
}

type NotifyConfig struct {
	RatePerSec int `json:"rate_per_sec"`
}

type CatalogConfig struct {
	// RefreshSchedule is a standard 5-field cron spec. Empty disables the
	// periodic refresh (the startup sync still runs).
	RefreshSchedule string `json:"refresh_schedule"`
}

type LoggingConfig struct {
	Level   string            `json:"level"`
	Console bool              `json:"console"`
	File    LoggingFileConfig `json:"file"`
}

type LoggingFileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// Validate rejects configs that cannot be applied. It is called on initial
// load and again on every hot reload before the new config is published.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Source.URL) == "" {
		return fmt.Errorf("source.url is required")
	}
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		return fmt.Errorf("storage.path is required")
	}
	for _, f := range []struct{ key, raw string }{
		{"source.poll_interval", c.Source.PollInterval},
		{"source.status_ttl", c.Source.StatusTTL},
		{"source.http_timeout", c.Source.HTTPTimeout},
		{"telegram.poll_timeout", c.Telegram.PollTimeout},
		{"telegram.session_ttl", c.Telegram.SessionTTL},
		{"storage.busy_timeout", c.Storage.BusyTimeout},
	} {
		if _, err := ParseDurationField(f.key, f.raw); err != nil {
			return err
		}
	}
	if c.Notify.RatePerSec < 0 {
		return fmt.Errorf("notify.rate_per_sec must be >= 0")
	}
	if spec := strings.TrimSpace(c.Catalog.RefreshSchedule); spec != "" {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("catalog.refresh_schedule: invalid %q: %w", spec, err)
		}
	}
	def := strings.TrimSpace(c.Languages.Default)
	if def == "" {
		return fmt.Errorf("languages.default is required")
	}
	found := false
	for _, l := range c.Languages.Supported {
		if l == def {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("languages.default %q is not in languages.supported", def)
	}
	return nil
}
