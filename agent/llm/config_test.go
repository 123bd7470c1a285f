package llm

import (
	"errors"
	"testing"
	"time"

	contractx "github.com/apexfin/account-agent/agent/contract"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := Config{APIKey: "sk-test", Model: "gpt-4o", Timeout: 30 * time.Second}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing api key", func(c *Config) { c.APIKey = "  " }},
		{"missing model", func(c *Config) { c.Model = "" }},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, contractx.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestNewClientRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{}); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
