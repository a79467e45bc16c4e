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
	Source   SourceConfig   `yaml:"source" mapstructure:"source"`
	Paths    PathsConfig    `yaml:"paths" mapstructure:"paths"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	HTTP     HTTPConfig     `yaml:"http" mapstructure:"http"`
	Extract  ExtractConfig  `yaml:"extract" mapstructure:"extract"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// SourceConfig identifies the publisher page that lists circulars.
type SourceConfig struct {
	PageURL string `yaml:"page_url" mapstructure:"page_url"`
}

// PathsConfig holds the local file locations the pipeline reads and writes.
type PathsConfig struct {
	PDFDir        string `yaml:"pdf_dir" mapstructure:"pdf_dir"`
	DailyFile     string `yaml:"daily_file" mapstructure:"daily_file"`
	OverridesFile string `yaml:"overrides_file" mapstructure:"overrides_file"`
	StateDB       string `yaml:"state_db" mapstructure:"state_db"`
}

// PipelineConfig holds reconciliation behavior knobs.
type PipelineConfig struct {
	// Cutoff is "today" or "yesterday".
	Cutoff string `yaml:"cutoff" mapstructure:"cutoff"`
	// DateFallback is "today" or "skip": what to do with a circular whose
	// effective date cannot be resolved.
	DateFallback string `yaml:"date_fallback" mapstructure:"date_fallback"`
	// ReingestMissing re-extracts processed documents whose event has gone
	// missing from the stored table.
	ReingestMissing bool `yaml:"reingest_missing" mapstructure:"reingest_missing"`
}

// HTTPConfig configures outbound requests to the publisher's site.
type HTTPConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// ExtractConfig configures PDF text extraction.
type ExtractConfig struct {
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
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
	v.SetEnvPrefix("PRICEFEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("source.page_url", "https://www.hindalco.com/businesses/aluminium/primary-aluminium")
	v.SetDefault("paths.pdf_dir", "hindalco_pdfs")
	v.SetDefault("paths.daily_file", "data/hindalco_prices.xlsx")
	v.SetDefault("paths.overrides_file", "data/manual_overrides.xlsx")
	v.SetDefault("paths.state_db", "data/pricefeed.db")
	v.SetDefault("pipeline.cutoff", "today")
	v.SetDefault("pipeline.date_fallback", "today")
	v.SetDefault("pipeline.reingest_missing", true)
	v.SetDefault("http.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	v.SetDefault("http.timeout_secs", 60)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("extract.pdftotext_path", "pdftotext")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks for values no run mode can work with.
func (c *Config) Validate() error {
	var problems []string

	if c.Source.PageURL == "" {
		problems = append(problems, "source.page_url is required")
	}
	if c.Paths.DailyFile == "" {
		problems = append(problems, "paths.daily_file is required")
	}
	if c.Paths.StateDB == "" {
		problems = append(problems, "paths.state_db is required")
	}
	switch c.Pipeline.Cutoff {
	case "today", "yesterday":
	default:
		problems = append(problems, `pipeline.cutoff must be "today" or "yesterday"`)
	}
	switch c.Pipeline.DateFallback {
	case "today", "skip":
	default:
		problems = append(problems, `pipeline.date_fallback must be "today" or "skip"`)
	}
	if c.HTTP.TimeoutSecs <= 0 {
		problems = append(problems, "http.timeout_secs must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		problems = append(problems, "http.max_retries must be >= 0")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
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
