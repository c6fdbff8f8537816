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
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Vision   VisionConfig   `yaml:"vision" mapstructure:"vision"`
	Verifier VerifierConfig `yaml:"verifier" mapstructure:"verifier"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the results database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// VisionConfig configures the label image extraction service.
type VisionConfig struct {
	Key            string  `yaml:"key" mapstructure:"key"`
	Model          string  `yaml:"model" mapstructure:"model"`
	MaxTokens      int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	RequestsPerMin float64 `yaml:"requests_per_min" mapstructure:"requests_per_min"`
	MaxRetries     int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// VerifierConfig holds the decision-engine thresholds. Defaults live in the
// verifier package; all values are confidences or similarities in [0,1]
// unless noted.
type VerifierConfig struct {
	AutoApproveConfidence float64 `yaml:"auto_approve_confidence" mapstructure:"auto_approve_confidence"`
	MediumConfidence      float64 `yaml:"medium_confidence" mapstructure:"medium_confidence"`
	LowConfidence         float64 `yaml:"low_confidence" mapstructure:"low_confidence"`
	WarningConfidence     float64 `yaml:"warning_confidence" mapstructure:"warning_confidence"`

	ClassTypeThreshold   float64 `yaml:"class_type_threshold" mapstructure:"class_type_threshold"`
	ProducerThreshold    float64 `yaml:"producer_threshold" mapstructure:"producer_threshold"`
	CountryThreshold     float64 `yaml:"country_threshold" mapstructure:"country_threshold"`
	AppellationThreshold float64 `yaml:"appellation_threshold" mapstructure:"appellation_threshold"`

	ImageQualityFloor float64 `yaml:"image_quality_floor" mapstructure:"image_quality_floor"`
	MatchedFieldRatio float64 `yaml:"matched_field_ratio" mapstructure:"matched_field_ratio"`
	TargetTimeMs      int64   `yaml:"target_time_ms" mapstructure:"target_time_ms"`
}

// BatchConfig configures batch verification.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	MaxItems      int `yaml:"max_items" mapstructure:"max_items"`
}

// ServerConfig configures the verification HTTP server.
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
	v.SetEnvPrefix("LABELPROOF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "labelproof.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.max_concurrent", 5)
	v.SetDefault("batch.max_items", 300)
	v.SetDefault("vision.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("vision.max_tokens", 4096)
	v.SetDefault("vision.requests_per_min", 50)
	v.SetDefault("vision.max_retries", 3)
	v.SetDefault("verifier.auto_approve_confidence", 0.85)
	v.SetDefault("verifier.medium_confidence", 0.70)
	v.SetDefault("verifier.low_confidence", 0.75)
	v.SetDefault("verifier.warning_confidence", 0.85)
	v.SetDefault("verifier.class_type_threshold", 0.85)
	v.SetDefault("verifier.producer_threshold", 0.80)
	v.SetDefault("verifier.country_threshold", 0.90)
	v.SetDefault("verifier.appellation_threshold", 0.85)
	v.SetDefault("verifier.image_quality_floor", 0.70)
	v.SetDefault("verifier.matched_field_ratio", 0.8)
	v.SetDefault("verifier.target_time_ms", 5000)

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
