// Package config loads and validates todoscope configuration from defaults,
// an optional YAML file, TODOSCOPE_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/todoscope/pkg/aggregate"
	"github.com/Sumatoshi-tech/todoscope/pkg/report"
)

// Sentinel validation errors.
var (
	ErrInvalidMode        = errors.New("scan mode must be tree or diff")
	ErrMissingBranch      = errors.New("diff mode needs a base branch")
	ErrInvalidWorkers     = errors.New("workers must be positive")
	ErrInvalidSniffBytes  = errors.New("sniff bytes must be positive")
	ErrInvalidFileSize    = errors.New("invalid max file size")
	ErrInvalidExclude     = errors.New("invalid exclude pattern")
	ErrInvalidFormat      = errors.New("invalid report format")
	ErrInvalidOrder       = errors.New("report order must be oldest or newest")
	ErrInvalidLogFormat   = errors.New("log format must be text or json")
	ErrInvalidConfigFile  = errors.New("invalid config file")
	ErrInvalidConfigValue = errors.New("invalid config value")
)

// Config holds all configuration for a todoscope run.
type Config struct {
	Scan      ScanConfig      `mapstructure:"scan"`
	Report    ReportConfig    `mapstructure:"report"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ScanConfig selects and filters the files to scan.
type ScanConfig struct {
	Mode         string   `mapstructure:"mode"`
	BaseBranch   string   `mapstructure:"base_branch"`
	MaxFileSize  string   `mapstructure:"max_file_size"`
	Exclude      []string `mapstructure:"exclude"`
	Workers      int      `mapstructure:"workers"`
	SniffBytes   int      `mapstructure:"sniff_bytes"`
	SkipVendor   bool     `mapstructure:"skip_vendor"`
	CommentsOnly bool     `mapstructure:"comments_only"`
}

// ReportConfig controls output.
type ReportConfig struct {
	Format  string `mapstructure:"format"`
	Order   string `mapstructure:"order"`
	NoColor bool   `mapstructure:"no_color"`
	Summary bool   `mapstructure:"summary"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig controls OpenTelemetry export and the metrics textfile.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string `mapstructure:"otlp_headers"`
	MetricsFile  string `mapstructure:"metrics_file"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	TraceVerbose bool   `mapstructure:"trace_verbose"`
}

// MaxFileSizeBytes returns the parsed size limit, zero for unlimited.
func (s ScanConfig) MaxFileSizeBytes() int64 {
	if s.MaxFileSize == "" {
		return 0
	}

	n, err := humanize.ParseBytes(s.MaxFileSize)
	if err != nil {
		return 0
	}

	return int64(n) //nolint:gosec // validated on load
}

// LoadOptions configures Load.
type LoadOptions struct {
	// Path is an explicit config file. Empty searches SearchDirs for .todoscope.yaml.
	Path       string
	SearchDirs []string
	// Flags and Bindings map config keys to command-line flags.
	Flags    *pflag.FlagSet
	Bindings map[string]string
}

// Load reads configuration. Precedence, highest first: changed flags,
// environment, config file, defaults.
func Load(opts LoadOptions) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if opts.Path != "" {
		viperCfg.SetConfigFile(opts.Path)
	} else {
		viperCfg.SetConfigName(DefaultConfigName)
		viperCfg.SetConfigType(DefaultConfigType)

		for _, dir := range opts.SearchDirs {
			viperCfg.AddConfigPath(dir)
		}

		if home, err := os.UserHomeDir(); err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	viperCfg.SetEnvPrefix(DefaultEnvPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if opts.Flags != nil {
		for key, name := range opts.Bindings {
			flag := opts.Flags.Lookup(name)
			if flag == nil {
				continue
			}

			if err := viperCfg.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if opts.Path != "" || !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfigFile, readErr)
		}
	}

	var cfg Config

	if err := viperCfg.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfigValue, err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration with every default applied.
func Default() *Config {
	viperCfg := viper.New()
	setDefaults(viperCfg)

	var cfg Config

	_ = viperCfg.Unmarshal(&cfg)

	return &cfg
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("scan.mode", DefaultMode)
	viperCfg.SetDefault("scan.base_branch", DefaultBaseBranch)
	viperCfg.SetDefault("scan.workers", DefaultWorkers)
	viperCfg.SetDefault("scan.sniff_bytes", DefaultSniffBytes)
	viperCfg.SetDefault("scan.max_file_size", DefaultMaxFileSize)
	viperCfg.SetDefault("scan.skip_vendor", false)
	viperCfg.SetDefault("scan.comments_only", false)
	viperCfg.SetDefault("scan.exclude", []string{})

	viperCfg.SetDefault("report.format", DefaultFormat)
	viperCfg.SetDefault("report.order", DefaultOrder)
	viperCfg.SetDefault("report.no_color", false)
	viperCfg.SetDefault("report.summary", false)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.metrics_file", "")
	viperCfg.SetDefault("telemetry.trace_verbose", false)
}

// Validate checks cross-field constraints.
func Validate(cfg *Config) error {
	switch cfg.Scan.Mode {
	case ModeTree:
	case ModeDiff:
		if strings.TrimSpace(cfg.Scan.BaseBranch) == "" {
			return ErrMissingBranch
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, cfg.Scan.Mode)
	}

	if cfg.Scan.Workers <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, cfg.Scan.Workers)
	}

	if cfg.Scan.SniffBytes <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSniffBytes, cfg.Scan.SniffBytes)
	}

	if cfg.Scan.MaxFileSize != "" {
		if _, err := humanize.ParseBytes(cfg.Scan.MaxFileSize); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidFileSize, cfg.Scan.MaxFileSize)
		}
	}

	for _, glob := range cfg.Scan.Exclude {
		if _, err := path.Match(glob, ""); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidExclude, glob)
		}
	}

	if _, err := report.ParseFormat(cfg.Report.Format); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, cfg.Report.Format)
	}

	if _, err := aggregate.ParseOrder(cfg.Report.Order); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidOrder, cfg.Report.Order)
	}

	if cfg.Logging.Format != LogFormatText && cfg.Logging.Format != LogFormatJSON {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, cfg.Logging.Format)
	}

	return nil
}
