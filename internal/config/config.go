package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Crawler   CrawlerConfig   `yaml:"crawler" mapstructure:"crawler"`
	Ingest    IngestConfig    `yaml:"ingest" mapstructure:"ingest"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Respond   RespondConfig   `yaml:"respond" mapstructure:"respond"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// CrawlerConfig configures the external crawler process. The crawler is a
// black-box command with a stdout contract; everything about how it is
// launched lives here rather than in scattered environment lookups.
type CrawlerConfig struct {
	RuntimePath        string            `yaml:"runtime_path" mapstructure:"runtime_path"`
	ScriptDir          string            `yaml:"script_dir" mapstructure:"script_dir"`
	WorkDir            string            `yaml:"work_dir" mapstructure:"work_dir"`
	QnAScript          string            `yaml:"qna_script" mapstructure:"qna_script"`
	ReviewScript       string            `yaml:"review_script" mapstructure:"review_script"`
	QnATimeoutSecs     int               `yaml:"qna_timeout_secs" mapstructure:"qna_timeout_secs"`
	ReviewTimeoutSecs  int               `yaml:"review_timeout_secs" mapstructure:"review_timeout_secs"`
	MaxOutputBytes     int               `yaml:"max_output_bytes" mapstructure:"max_output_bytes"`
	ReviewPages        int               `yaml:"review_pages" mapstructure:"review_pages"`
	Env                map[string]string `yaml:"env" mapstructure:"env"`
	BenignStderrMarker string            `yaml:"benign_stderr_marker" mapstructure:"benign_stderr_marker"`
}

// IngestConfig configures normalization and classification behavior.
type IngestConfig struct {
	// AnsweredTokens are the substrings that mark a QnA status string as
	// "answered". The upstream contract exposes free text, not an enum,
	// so the vocabulary is configurable.
	AnsweredTokens []string `yaml:"answered_tokens" mapstructure:"answered_tokens"`
	EmailDomain    string   `yaml:"email_domain" mapstructure:"email_domain"`
	ReviewSource   string   `yaml:"review_source" mapstructure:"review_source"`
}

// AnthropicConfig holds Anthropic API settings for response drafting.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// RespondConfig configures the sequential batch response generator.
type RespondConfig struct {
	DelayMs int `yaml:"delay_ms" mapstructure:"delay_ms"`
	Limit   int `yaml:"limit" mapstructure:"limit"`
}

// ServerConfig configures the dashboard-facing HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FEEDSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "feedsync.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("crawler.runtime_path", "python")
	v.SetDefault("crawler.script_dir", "scripts")
	v.SetDefault("crawler.qna_script", "qna_crawler.py")
	v.SetDefault("crawler.review_script", "review_crawler.py")
	v.SetDefault("crawler.qna_timeout_secs", 90)
	v.SetDefault("crawler.review_timeout_secs", 180)
	v.SetDefault("crawler.max_output_bytes", 10*1024*1024)
	v.SetDefault("crawler.review_pages", 3)
	v.SetDefault("crawler.benign_stderr_marker", "DevTools")
	v.SetDefault("ingest.answered_tokens", []string{"answered", "답변완료"})
	v.SetDefault("ingest.email_domain", "customer.invalid")
	v.SetDefault("ingest.review_source", "NAVER")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("respond.delay_ms", 1000)
	v.SetDefault("respond.limit", 20)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
