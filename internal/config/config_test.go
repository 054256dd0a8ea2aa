package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 20, cfg.Pipeline.MaxBatchSize)
	assert.Equal(t, "mock", cfg.Ledger.Source)
	assert.Equal(t, 2000, cfg.LLM.ClassifyTokens)
	assert.Equal(t, 3000, cfg.LLM.GuideTokens)
	assert.Equal(t, time.Duration(0), cfg.Pipeline.Timeout)
	assert.Empty(t, cfg.ConfigPath)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "receipts.yaml")
	content := []byte(`
llm:
  provider: anthropic
  model: claude-sonnet-4-20250514
pipeline:
  max_batch_size: 10
  timeout: 90s
ledger:
  source: catacloud
  account: 1920
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("RECEIPTS_LEDGER_BANK_ACCOUNT_ID", "77")
	t.Setenv("RECEIPTS_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.LLM.Model)
	assert.Equal(t, 10, cfg.Pipeline.MaxBatchSize)
	assert.Equal(t, 90*time.Second, cfg.Pipeline.Timeout)
	assert.Equal(t, "catacloud", cfg.Ledger.Source)
	assert.Equal(t, int64(1920), cfg.Ledger.Account)
	assert.Equal(t, int64(77), cfg.Ledger.BankAccountID)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, path, cfg.ConfigPath)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "bedrock" }, true},
		{"unknown source", func(c *Config) { c.Ledger.Source = "csv" }, true},
		{"warehouse without project", func(c *Config) { c.Ledger.Source = "warehouse" }, true},
		{"warehouse with project", func(c *Config) {
			c.Ledger.Source = "warehouse"
			c.Ledger.BQProject = "acme-ledger"
		}, false},
		{"zero batch size", func(c *Config) { c.Pipeline.MaxBatchSize = 0 }, true},
		{"negative timeout", func(c *Config) { c.Pipeline.Timeout = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefault()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNotionConfig_Enabled(t *testing.T) {
	assert.False(t, NotionConfig{}.Enabled())
	assert.False(t, NotionConfig{Token: "secret"}.Enabled())
	assert.True(t, NotionConfig{Token: "secret", DatabaseID: "db"}.Enabled())
}
