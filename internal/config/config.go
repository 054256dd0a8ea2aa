package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// RECEIPTS_LLM_PROVIDER or RECEIPTS_LEDGER_SOURCE.
const EnvPrefix = "RECEIPTS"

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Notion   NotionConfig   `mapstructure:"notion"`
	Log      LogConfig      `mapstructure:"log"`

	ConfigPath string `mapstructure:"-"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	QueueSize    int           `mapstructure:"queue_size"`
	Workers      int           `mapstructure:"workers"`
}

// LLMConfig selects and configures the language model provider.
type LLMConfig struct {
	Provider       string `mapstructure:"provider"` // "gemini" or "anthropic"
	Model          string `mapstructure:"model"`
	APIKey         string `mapstructure:"api_key"`
	GeminiBackend  string `mapstructure:"gemini_backend"` // "gemini" or "vertex"
	GCPProject     string `mapstructure:"gcp_project"`
	GCPLocation    string `mapstructure:"gcp_location"`
	ClassifyTokens int    `mapstructure:"classify_max_tokens"`
	GuideTokens    int    `mapstructure:"guide_max_tokens"`
	EmailTokens    int    `mapstructure:"email_max_tokens"`
}

// PipelineConfig holds caller policy for one pipeline invocation.
type PipelineConfig struct {
	MaxBatchSize int           `mapstructure:"max_batch_size"`
	Timeout      time.Duration `mapstructure:"timeout"` // 0 disables the deadline
}

// LedgerConfig selects where raw transactions come from.
type LedgerConfig struct {
	Source        string `mapstructure:"source"` // "mock", "catacloud" or "warehouse"
	Endpoint      string `mapstructure:"endpoint"`
	Account       int64  `mapstructure:"account"`
	BankAccountID int64  `mapstructure:"bank_account_id"`
	From          string `mapstructure:"from"`
	To            string `mapstructure:"to"`
	MockPath      string `mapstructure:"mock_path"` // local path or gs:// URI
	BQProject     string `mapstructure:"bq_project"`
	BQDataset     string `mapstructure:"bq_dataset"`
	BQTable       string `mapstructure:"bq_table"`
}

type StorageConfig struct {
	Bucket string `mapstructure:"bucket"`
}

// NotionConfig enables the draft outbox when both fields are set.
type NotionConfig struct {
	Token      string `mapstructure:"token"`
	DatabaseID string `mapstructure:"database_id"`
}

// Enabled reports whether drafts should be published to Notion.
func (n NotionConfig) Enabled() bool {
	return n.Token != "" && n.DatabaseID != ""
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "console" or "json"
}

// NewDefault returns the configuration used when nothing is overridden.
func NewDefault() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 3 * time.Minute,
			IdleTimeout:  60 * time.Second,
			QueueSize:    100,
			Workers:      2,
		},
		LLM: LLMConfig{
			Provider:       "gemini",
			Model:          "gemini-2.5-flash",
			GeminiBackend:  "gemini",
			GCPLocation:    "europe-west1",
			ClassifyTokens: 2000,
			GuideTokens:    3000,
			EmailTokens:    2000,
		},
		Pipeline: PipelineConfig{
			MaxBatchSize: 20,
		},
		Ledger: LedgerConfig{
			Source:    "mock",
			Endpoint:  "https://api.catacloud.com/graphql",
			BQDataset: "finance",
			BQTable:   "bank_transactions",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the optional config file at path (or ./config.yaml when path is
// empty), applies RECEIPTS_* environment overrides and returns the result on top
// of NewDefault. A missing default config file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, NewDefault())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if path != "" {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	cfg := NewDefault()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that are
// absent from the config file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", d.Server.IdleTimeout)
	v.SetDefault("server.queue_size", d.Server.QueueSize)
	v.SetDefault("server.workers", d.Server.Workers)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.gemini_backend", d.LLM.GeminiBackend)
	v.SetDefault("llm.gcp_project", d.LLM.GCPProject)
	v.SetDefault("llm.gcp_location", d.LLM.GCPLocation)
	v.SetDefault("llm.classify_max_tokens", d.LLM.ClassifyTokens)
	v.SetDefault("llm.guide_max_tokens", d.LLM.GuideTokens)
	v.SetDefault("llm.email_max_tokens", d.LLM.EmailTokens)

	v.SetDefault("pipeline.max_batch_size", d.Pipeline.MaxBatchSize)
	v.SetDefault("pipeline.timeout", d.Pipeline.Timeout)

	v.SetDefault("ledger.source", d.Ledger.Source)
	v.SetDefault("ledger.endpoint", d.Ledger.Endpoint)
	v.SetDefault("ledger.account", d.Ledger.Account)
	v.SetDefault("ledger.bank_account_id", d.Ledger.BankAccountID)
	v.SetDefault("ledger.from", d.Ledger.From)
	v.SetDefault("ledger.to", d.Ledger.To)
	v.SetDefault("ledger.mock_path", d.Ledger.MockPath)
	v.SetDefault("ledger.bq_project", d.Ledger.BQProject)
	v.SetDefault("ledger.bq_dataset", d.Ledger.BQDataset)
	v.SetDefault("ledger.bq_table", d.Ledger.BQTable)

	v.SetDefault("storage.bucket", d.Storage.Bucket)

	v.SetDefault("notion.token", d.Notion.Token)
	v.SetDefault("notion.database_id", d.Notion.DatabaseID)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "gemini", "anthropic":
	default:
		return fmt.Errorf("config: unknown llm.provider %q", c.LLM.Provider)
	}

	switch c.Ledger.Source {
	case "mock", "catacloud":
	case "warehouse":
		if c.Ledger.BQProject == "" {
			return fmt.Errorf("config: ledger.bq_project is required for the warehouse source")
		}
	default:
		return fmt.Errorf("config: unknown ledger.source %q", c.Ledger.Source)
	}

	if c.Pipeline.MaxBatchSize < 1 {
		return fmt.Errorf("config: pipeline.max_batch_size must be positive, got %d", c.Pipeline.MaxBatchSize)
	}
	if c.Pipeline.Timeout < 0 {
		return fmt.Errorf("config: pipeline.timeout must not be negative")
	}
	return nil
}
