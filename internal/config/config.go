package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pdf-compressor-go/internal/batch"
	"pdf-compressor-go/internal/compressor"
	"pdf-compressor-go/internal/engine"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. PDF_COMPRESSOR_ENGINE_TIMEOUT.
const EnvPrefix = "PDF_COMPRESSOR"

// Config represents the main configuration structure
type Config struct {
	Compression CompressionConfig `mapstructure:"compression"`
	Engine      EngineConfig      `mapstructure:"engine"`
	Performance PerformanceConfig `mapstructure:"performance"`
	Replace     ReplaceConfig     `mapstructure:"replace"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Resize      ResizeConfig      `mapstructure:"resize"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// CompressionConfig holds the batch defaults the CLI flags override
type CompressionConfig struct {
	InputDir  string `mapstructure:"input_dir"`
	OutputDir string `mapstructure:"output_dir"`
	Quality   string `mapstructure:"quality"`
	Overwrite bool   `mapstructure:"overwrite"`
}

// EngineConfig controls how Ghostscript is located and invoked
type EngineConfig struct {
	Command      string        `mapstructure:"command"` // empty means probe platform candidates
	Timeout      time.Duration `mapstructure:"timeout"`
	ProbeEachJob bool          `mapstructure:"probe_each_job"`
}

// PerformanceConfig contains performance tuning settings
type PerformanceConfig struct {
	Workers        int  `mapstructure:"workers"` // 0 means auto
	MaxAutoWorkers int  `mapstructure:"max_auto_workers"`
	ShowProgress   bool `mapstructure:"show_progress"`
}

// ReplaceConfig contains in-place replacement safety settings
type ReplaceConfig struct {
	MinOutputSize int64 `mapstructure:"min_output_size"`
}

// HTTPConfig contains API server settings
type HTTPConfig struct {
	Port          int     `mapstructure:"port"`
	MaxUploadSize int64   `mapstructure:"max_upload_size"`
	MinReduction  float64 `mapstructure:"min_reduction"` // percent
	TempDir       string  `mapstructure:"temp_dir"`
}

// ResizeConfig contains image resize defaults
type ResizeConfig struct {
	Scale   float64 `mapstructure:"scale"`
	Filter  string  `mapstructure:"filter"`
	Quality int     `mapstructure:"quality"` // JPEG quality
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
	Console    bool   `mapstructure:"console"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Compression: CompressionConfig{
			InputDir:  filepath.Join("data", "input", "pdfs_originais"),
			OutputDir: filepath.Join("data", "output", "pdfs_compactados"),
			Quality:   string(engine.QualityPrepress),
			Overwrite: false,
		},
		Engine: EngineConfig{
			Timeout:      compressor.DefaultTimeout,
			ProbeEachJob: true,
		},
		Performance: PerformanceConfig{
			Workers:        0,
			MaxAutoWorkers: batch.DefaultMaxAutoWorkers,
			ShowProgress:   true,
		},
		Replace: ReplaceConfig{
			MinOutputSize: compressor.DefaultMinOutputSize,
		},
		HTTP: HTTPConfig{
			Port:          8080,
			MaxUploadSize: 500 * 1024 * 1024,
			MinReduction:  20,
		},
		Resize: ResizeConfig{
			Scale:   0.5,
			Filter:  "nearest",
			Quality: 90,
		},
		Logging: LoggingConfig{
			Level:      "info",
			FilePath:   filepath.Join("logs", "pdf_compression.log"),
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     30,
			Compress:   true,
			Console:    true,
		},
	}
}

// LoadConfig loads configuration from file and environment variables.
// Each call uses its own viper instance so repeated loads do not leak state.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.pdf-compressor")
		v.AddConfigPath("/etc/pdf-compressor")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	registerDefaults(v, config)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// registerDefaults makes every key known to viper, otherwise AutomaticEnv
// never consults the environment for keys absent from the file.
func registerDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("compression.input_dir", c.Compression.InputDir)
	v.SetDefault("compression.output_dir", c.Compression.OutputDir)
	v.SetDefault("compression.quality", c.Compression.Quality)
	v.SetDefault("compression.overwrite", c.Compression.Overwrite)

	v.SetDefault("engine.command", c.Engine.Command)
	v.SetDefault("engine.timeout", c.Engine.Timeout)
	v.SetDefault("engine.probe_each_job", c.Engine.ProbeEachJob)

	v.SetDefault("performance.workers", c.Performance.Workers)
	v.SetDefault("performance.max_auto_workers", c.Performance.MaxAutoWorkers)
	v.SetDefault("performance.show_progress", c.Performance.ShowProgress)

	v.SetDefault("replace.min_output_size", c.Replace.MinOutputSize)

	v.SetDefault("http.port", c.HTTP.Port)
	v.SetDefault("http.max_upload_size", c.HTTP.MaxUploadSize)
	v.SetDefault("http.min_reduction", c.HTTP.MinReduction)
	v.SetDefault("http.temp_dir", c.HTTP.TempDir)

	v.SetDefault("resize.scale", c.Resize.Scale)
	v.SetDefault("resize.filter", c.Resize.Filter)
	v.SetDefault("resize.quality", c.Resize.Quality)

	v.SetDefault("logging.level", c.Logging.Level)
	v.SetDefault("logging.file_path", c.Logging.FilePath)
	v.SetDefault("logging.max_size", c.Logging.MaxSize)
	v.SetDefault("logging.max_backups", c.Logging.MaxBackups)
	v.SetDefault("logging.max_age", c.Logging.MaxAge)
	v.SetDefault("logging.compress", c.Logging.Compress)
	v.SetDefault("logging.console", c.Logging.Console)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	quality, err := engine.ParseQuality(c.Compression.Quality)
	if err != nil {
		return err
	}
	c.Compression.Quality = string(quality)

	if c.Engine.Timeout <= 0 {
		return fmt.Errorf("engine.timeout must be positive, got %s", c.Engine.Timeout)
	}

	if c.Performance.Workers < 0 {
		return fmt.Errorf("performance.workers must not be negative, got %d", c.Performance.Workers)
	}
	if c.Performance.MaxAutoWorkers <= 0 {
		c.Performance.MaxAutoWorkers = batch.DefaultMaxAutoWorkers
	}

	if c.Replace.MinOutputSize <= 0 {
		return fmt.Errorf("replace.min_output_size must be positive, got %d", c.Replace.MinOutputSize)
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http.port: %d", c.HTTP.Port)
	}
	if c.HTTP.MaxUploadSize <= 0 {
		return fmt.Errorf("http.max_upload_size must be positive, got %d", c.HTTP.MaxUploadSize)
	}
	if c.HTTP.MinReduction < 0 || c.HTTP.MinReduction >= 100 {
		return fmt.Errorf("http.min_reduction must be in [0, 100), got %g", c.HTTP.MinReduction)
	}
	c.HTTP.TempDir = expandPath(c.HTTP.TempDir)

	if c.Resize.Scale <= 0 {
		return fmt.Errorf("resize.scale must be positive, got %g", c.Resize.Scale)
	}
	if c.Resize.Quality < 1 || c.Resize.Quality > 100 {
		return fmt.Errorf("resize.quality must be between 1 and 100, got %d", c.Resize.Quality)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}
	c.Logging.FilePath = expandPath(c.Logging.FilePath)

	c.Compression.InputDir = expandPath(c.Compression.InputDir)
	c.Compression.OutputDir = expandPath(c.Compression.OutputDir)

	return nil
}

// Quality returns the parsed default quality. Valid only after Validate.
func (c *Config) Quality() engine.Quality {
	return engine.Quality(c.Compression.Quality)
}

// CompressorOptions maps the engine and replace sections onto compressor options.
func (c *Config) CompressorOptions() compressor.Options {
	return compressor.Options{
		Timeout:       c.Engine.Timeout,
		ProbeEachJob:  c.Engine.ProbeEachJob,
		MinOutputSize: c.Replace.MinOutputSize,
	}
}

// expandPath resolves environment variables and a leading ~.
func expandPath(path string) string {
	if path == "" {
		return ""
	}

	expandedPath := os.ExpandEnv(path)
	if strings.HasPrefix(expandedPath, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return expandedPath
		}
		expandedPath = filepath.Join(home, expandedPath[1:])
	}
	return expandedPath
}
