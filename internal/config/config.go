// Package config loads charsetcop settings through Viper from a config file,
// CHARSETCOP_ environment variables and command-line flags.
//
// Load unmarshals whatever Viper holds, fills in defaults for keys nobody set
// and validates the result. Encoding names are only checked for presence
// here; resolving them is left to the caller's charset registry.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/viper"

	"github.com/conneroisu/charsetcop/internal/errors"
	"github.com/conneroisu/charsetcop/internal/logging"
)

// Defaults.
const (
	DefaultEncoding  = "UTF-8"
	DefaultFilter    = "*"
	DefaultFormat    = "text"
	DefaultListLimit = 10
	DefaultDebounce  = 300 * time.Millisecond
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// EnvPrefix prefixes every environment variable read by Viper.
const EnvPrefix = "CHARSETCOP"

// Keys lists every configuration key. Binding them lets AutomaticEnv values
// reach Unmarshal.
var Keys = []string{
	"scan.encoding",
	"scan.filter",
	"scan.skip_symlinks",
	"scan.workers",
	"scan.strict_roots",
	"detect.candidates",
	"output.format",
	"output.list_limit",
	"watch.enabled",
	"watch.debounce",
	"log.level",
	"log.format",
	"log.file",
	"debug",
}

// DefaultCandidates is the ordered list tried by the detect command.
var DefaultCandidates = []string{"US-ASCII", "UTF-8", "ISO-8859-1"}

type Config struct {
	Scan   ScanConfig   `mapstructure:"scan" yaml:"scan"`
	Detect DetectConfig `mapstructure:"detect" yaml:"detect"`
	Output OutputConfig `mapstructure:"output" yaml:"output"`
	Watch  WatchConfig  `mapstructure:"watch" yaml:"watch"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
	Debug  bool         `mapstructure:"debug" yaml:"debug"`
	Paths  []string     `mapstructure:"-" yaml:"-"` // CLI arguments, not from config file
}

type ScanConfig struct {
	Encoding     string `mapstructure:"encoding" yaml:"encoding"`
	Filter       string `mapstructure:"filter" yaml:"filter"`
	SkipSymlinks bool   `mapstructure:"skip_symlinks" yaml:"skip_symlinks"`
	Workers      int    `mapstructure:"workers" yaml:"workers"`
	StrictRoots  bool   `mapstructure:"strict_roots" yaml:"strict_roots"`
}

type DetectConfig struct {
	Candidates []string `mapstructure:"candidates" yaml:"candidates"`
}

type OutputConfig struct {
	Format    string `mapstructure:"format" yaml:"format"`
	ListLimit int    `mapstructure:"list_limit" yaml:"list_limit"`
}

type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// NewEnvKeyReplacer maps "scan.skip_symlinks" to SCAN_SKIP_SYMLINKS.
func NewEnvKeyReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_", "-", "_")
}

// BindEnv binds every key in Keys to its CHARSETCOP_ variable.
func BindEnv(v *viper.Viper) error {
	for _, key := range Keys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}

	return nil
}

// LoadFrom reads the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "cannot decode configuration")
	}

	// A comma separated env var arrives as a single string
	if v.IsSet("detect.candidates") {
		config.Detect.Candidates = splitList(v.GetStringSlice("detect.candidates"))
	}

	if config.Scan.Encoding == "" {
		config.Scan.Encoding = DefaultEncoding
	}
	if config.Scan.Filter == "" {
		config.Scan.Filter = DefaultFilter
	}
	if !v.IsSet("scan.strict_roots") {
		config.Scan.StrictRoots = true
	}

	if len(config.Detect.Candidates) == 0 {
		config.Detect.Candidates = append([]string(nil), DefaultCandidates...)
	}

	if config.Output.Format == "" {
		config.Output.Format = DefaultFormat
	}
	config.Output.Format = strings.ToLower(config.Output.Format)
	if !v.IsSet("output.list_limit") {
		config.Output.ListLimit = DefaultListLimit
	}

	if !v.IsSet("watch.debounce") {
		config.Watch.Debounce = DefaultDebounce
	}

	if config.Log.Level == "" {
		config.Log.Level = DefaultLogLevel
	}
	if config.Log.Format == "" {
		config.Log.Format = DefaultLogFormat
	}
	if config.Debug {
		config.Log.Level = "debug"
	}

	if err := validateConfig(&config); err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "invalid configuration")
	}

	return &config, nil
}

// LoggerConfig translates the log section into a logging.LoggerConfig.
func (c *Config) LoggerConfig() *logging.LoggerConfig {
	lc := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.Log.Level); err == nil {
		lc.Level = level
	}
	lc.Format = c.Log.Format
	lc.File = c.Log.File

	return lc
}

// validateConfig validates configuration values
func validateConfig(config *Config) error {
	if err := validateScanConfig(&config.Scan); err != nil {
		return fmt.Errorf("scan config: %w", err)
	}

	if err := validateDetectConfig(&config.Detect); err != nil {
		return fmt.Errorf("detect config: %w", err)
	}

	if err := validateOutputConfig(&config.Output); err != nil {
		return fmt.Errorf("output config: %w", err)
	}

	if config.Watch.Debounce < 0 {
		return fmt.Errorf("watch config: debounce must not be negative, got %s", config.Watch.Debounce)
	}

	if err := validateLogConfig(&config.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}

	return nil
}

func validateScanConfig(config *ScanConfig) error {
	if strings.TrimSpace(config.Encoding) == "" {
		return fmt.Errorf("encoding must not be empty")
	}

	if !doublestar.ValidatePattern(config.Filter) {
		return fmt.Errorf("invalid filter pattern '%s'", config.Filter)
	}

	if config.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", config.Workers)
	}

	return nil
}

func validateDetectConfig(config *DetectConfig) error {
	for _, name := range config.Candidates {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("empty candidate encoding")
		}
	}

	return nil
}

func validateOutputConfig(config *OutputConfig) error {
	switch config.Format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unsupported format '%s' (valid: text, json, yaml)", config.Format)
	}

	if config.ListLimit < 1 {
		return fmt.Errorf("list_limit must be at least 1, got %d", config.ListLimit)
	}

	return nil
}

func validateLogConfig(config *LogConfig) error {
	if _, err := logging.ParseLevel(config.Level); err != nil {
		return err
	}

	switch config.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format '%s' (valid: text, json)", config.Format)
	}

	return nil
}

func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}
