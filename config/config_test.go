package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		StoreDriver:         "memory",
		RequestTTL:          30 * time.Minute,
		AutoBookWindow:      5 * time.Minute,
		ClientConfirmWindow: 15 * time.Minute,
		SweepInterval:       15 * time.Second,
		RiskPollInterval:    30 * time.Second,
		WorkAlertInterval:   30 * time.Second,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"mongo driver", func(c *Config) { c.StoreDriver = "mongo" }, ""},
		{"auto-book window equals ttl", func(c *Config) { c.AutoBookWindow = c.RequestTTL }, "AUTO_BOOK_WINDOW"},
		{"zero auto-book window", func(c *Config) { c.AutoBookWindow = 0 }, "must be positive"},
		{"zero confirm window", func(c *Config) { c.ClientConfirmWindow = 0 }, "CLIENT_CONFIRM_WINDOW"},
		{"zero sweep interval", func(c *Config) { c.SweepInterval = 0 }, "SWEEP_INTERVAL"},
		{"unknown driver", func(c *Config) { c.StoreDriver = "postgres" }, "STORE_DRIVER"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig()
			tc.mutate(&c)
			err := c.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tc.wantErr)
			}
		})
	}
}
