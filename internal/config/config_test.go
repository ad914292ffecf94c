package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validYAML = `source:
  url: https://wash.example/machines
  poll_interval: 30s
  status_ttl: 10s
  http_timeout: 15s
telegram:
  token: "123:abc"
  poll_timeout: 10s
  support_url: https://t.me/support
  session_ttl: 15m
storage:
  path: ./data/bot.db
  busy_timeout: 5s
languages:
  default: ru
  supported: [ru, en]
notify:
  rate_per_sec: 20
catalog:
  refresh_schedule: "0 */6 * * *"
logging:
  level: info
  console: true
  file:
    enabled: false
    path: ""
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	t.Parallel()
	m := NewManager(writeConfig(t, validYAML))

	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source.URL != "https://wash.example/machines" {
		t.Errorf("source.url = %q", cfg.Source.URL)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("telegram.token = %q", cfg.Telegram.Token)
	}
	if cfg.Telegram.SessionTTL != "15m" {
		t.Errorf("telegram.session_ttl = %q", cfg.Telegram.SessionTTL)
	}
	if cfg.Languages.Default != "ru" || len(cfg.Languages.Supported) != 2 {
		t.Errorf("languages = %+v", cfg.Languages)
	}
	if cfg.Notify.RatePerSec != 20 {
		t.Errorf("notify.rate_per_sec = %d", cfg.Notify.RatePerSec)
	}
	if got := m.Get(); got != cfg {
		t.Error("Get() did not return the committed config")
	}
}

func TestLoadRejectsUnknownField(t *testing.T) {
	t.Parallel()
	m := NewManager(writeConfig(t, validYAML+"unknown_section:\n  x: 1\n"))
	if _, err := m.Load(); err == nil {
		t.Fatal("config with unknown field accepted")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "missing source url",
			mutate:  func(c *Config) { c.Source.URL = " " },
			wantErr: "source.url",
		},
		{
			name:    "missing token",
			mutate:  func(c *Config) { c.Telegram.Token = "" },
			wantErr: "telegram.token",
		},
		{
			name:    "missing storage path",
			mutate:  func(c *Config) { c.Storage.Path = "" },
			wantErr: "storage.path",
		},
		{
			name:    "bad poll interval",
			mutate:  func(c *Config) { c.Source.PollInterval = "soonish" },
			wantErr: "source.poll_interval",
		},
		{
			name:    "bad session ttl",
			mutate:  func(c *Config) { c.Telegram.SessionTTL = "long" },
			wantErr: "telegram.session_ttl",
		},
		{
			name:    "negative duration",
			mutate:  func(c *Config) { c.Storage.BusyTimeout = "-3s" },
			wantErr: "storage.busy_timeout",
		},
		{
			name:    "negative rate",
			mutate:  func(c *Config) { c.Notify.RatePerSec = -1 },
			wantErr: "notify.rate_per_sec",
		},
		{
			name:    "bad cron spec",
			mutate:  func(c *Config) { c.Catalog.RefreshSchedule = "every tuesday" },
			wantErr: "catalog.refresh_schedule",
		},
		{
			name:    "default not supported",
			mutate:  func(c *Config) { c.Languages.Default = "de" },
			wantErr: "languages.default",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := baseConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate accepted a bad config")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAcceptsEmptyOptionalFields(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.Source.PollInterval = ""
	cfg.Catalog.RefreshSchedule = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{"30s", 30 * time.Second, false},
		{" 2m ", 2 * time.Minute, false},
		{"", 0, false},
		{"fast", 0, true},
		{"-1s", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDurationField("x", tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDurationField(%q) err = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseDurationField(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestParseDurationOrDefault(t *testing.T) {
	t.Parallel()
	if got, err := ParseDurationOrDefault("x", "", time.Minute); err != nil || got != time.Minute {
		t.Fatalf("empty = %v, %v; want default", got, err)
	}
	if got, err := ParseDurationOrDefault("x", "5s", time.Minute); err != nil || got != 5*time.Second {
		t.Fatalf("explicit = %v, %v; want 5s", got, err)
	}
	if _, err := ParseDurationOrDefault("x", "nope", time.Minute); err == nil {
		t.Fatal("bad duration accepted")
	}
}

func TestSubscribePublishUnsubscribe(t *testing.T) {
	t.Parallel()
	m := NewManager(writeConfig(t, validYAML))
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	ch := m.Subscribe(1)
	next := baseConfig()
	next.Source.PollInterval = "45s"
	m.Commit(next)
	m.publish(next)

	select {
	case got := <-ch:
		if got.Source.PollInterval != "45s" {
			t.Fatalf("published poll_interval = %q", got.Source.PollInterval)
		}
	default:
		t.Fatal("no config published to subscriber")
	}

	m.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Fatal("channel still open after Unsubscribe")
	}
}

func TestPublishDropsOldestWhenBufferFull(t *testing.T) {
	t.Parallel()
	m := NewManager(writeConfig(t, validYAML))

	ch := m.Subscribe(1)
	first := baseConfig()
	second := baseConfig()
	second.Source.PollInterval = "99s"
	m.publish(first)
	m.publish(second)

	select {
	case got := <-ch:
		if got.Source.PollInterval != "99s" {
			t.Fatalf("subscriber saw stale config %q, want the newest", got.Source.PollInterval)
		}
	default:
		t.Fatal("no config delivered")
	}
}

func baseConfig() *Config {
	return &Config{
		Source: SourceConfig{
			URL:          "https://wash.example/machines",
			PollInterval: "30s",
			StatusTTL:    "10s",
			HTTPTimeout:  "15s",
		},
		Telegram: TelegramConfig{Token: "123:abc", PollTimeout: "10s"},
		Storage:  StorageConfig{Path: "./bot.db", BusyTimeout: "5s"},
		Languages: LangConfig{
			Default:   "ru",
			Supported: []string{"ru", "en"},
		},
		Notify:  NotifyConfig{RatePerSec: 20},
		Catalog: CatalogConfig{RefreshSchedule: "0 */6 * * *"},
	}
}
