package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete pipeline configuration
type Config struct {
	Data    DataConfig    `yaml:"data" envconfig:"DATA"`
	Split   SplitConfig   `yaml:"split" envconfig:"SPLIT"`
	Models  ModelsConfig  `yaml:"models" envconfig:"MODELS"`
	Eval    EvalConfig    `yaml:"eval" envconfig:"EVAL"`
	Paths   PathsConfig   `yaml:"paths" envconfig:"PATHS"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Tracing TracingConfig `yaml:"tracing" envconfig:"TRACING"`
}

// DataConfig locates the two input tables. Both loaders accept .csv or
// .xlsx files, detected by extension.
type DataConfig struct {
	PolicyFile string `yaml:"policy_file" envconfig:"POLICY_FILE"`
	ClaimFile  string `yaml:"claim_file" envconfig:"CLAIM_FILE"`
}

// SplitConfig controls the train/test split and the repeated k-fold
// cross-validation plan. Seed is the single root seed; every randomized
// operation derives its own sub-seed from it.
type SplitConfig struct {
	Seed       int64   `yaml:"seed" envconfig:"SEED" default:"2021"`
	Proportion float64 `yaml:"proportion" envconfig:"PROPORTION" default:"0.80" validate:"gt=0,lt=1"`
	Folds      int     `yaml:"folds" envconfig:"FOLDS" default:"10" validate:"gte=2"`
	Repeats    int     `yaml:"repeats" envconfig:"REPEATS" default:"5" validate:"gte=1"`
	StrataBins int     `yaml:"strata_bins" envconfig:"STRATA_BINS" default:"4" validate:"gte=1"`
}

// ModelsConfig selects which registry units to fit. An empty list means
// the full registry.
type ModelsConfig struct {
	Units []string `yaml:"units" envconfig:"UNITS"`
}

// EvalConfig controls fold fitting
type EvalConfig struct {
	MaxConcurrency int  `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY" default:"4" validate:"gte=1"`
	KeepModels     bool `yaml:"keep_models" envconfig:"KEEP_MODELS" default:"true"`
}

// PathsConfig contains output locations
type PathsConfig struct {
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"output"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"text" validate:"oneof=text json"`
}

// TracingConfig toggles OpenTelemetry span export for pipeline stages
type TracingConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"ENABLED" default:"false"`
}

// Load loads configuration from environment variables and an optional
// YAML config file. Environment values (CLAIMSEV_* prefix) and defaults
// are applied first; non-empty file values then override them.
func Load(configFile string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process("CLAIMSEV", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return nil, fmt.Errorf("config file not readable: %w", err)
		}
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(cfg, *fileCfg)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration against the struct validation tags
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// fileConfig mirrors Config for the YAML overlay. Scalars are pointers
// so an explicit file value is distinguishable from an absent key; a
// file can therefore set keep_models: false or seed: 0 and still
// override the env-derived base.
type fileConfig struct {
	Data struct {
		PolicyFile string `yaml:"policy_file"`
		ClaimFile  string `yaml:"claim_file"`
	} `yaml:"data"`
	Split struct {
		Seed       *int64   `yaml:"seed"`
		Proportion *float64 `yaml:"proportion"`
		Folds      *int     `yaml:"folds"`
		Repeats    *int     `yaml:"repeats"`
		StrataBins *int     `yaml:"strata_bins"`
	} `yaml:"split"`
	Models struct {
		Units []string `yaml:"units"`
	} `yaml:"models"`
	Eval struct {
		MaxConcurrency *int  `yaml:"max_concurrency"`
		KeepModels     *bool `yaml:"keep_models"`
	} `yaml:"eval"`
	Paths struct {
		OutputDir string `yaml:"output_dir"`
	} `yaml:"paths"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Tracing struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"tracing"`
}

func loadFromFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &cfg, nil
}

// mergeConfigs overlays the file values present in the overlay onto the
// env-derived base
func mergeConfigs(base Config, file fileConfig) Config {
	out := base

	if file.Data.PolicyFile != "" {
		out.Data.PolicyFile = file.Data.PolicyFile
	}
	if file.Data.ClaimFile != "" {
		out.Data.ClaimFile = file.Data.ClaimFile
	}
	if file.Split.Seed != nil {
		out.Split.Seed = *file.Split.Seed
	}
	if file.Split.Proportion != nil {
		out.Split.Proportion = *file.Split.Proportion
	}
	if file.Split.Folds != nil {
		out.Split.Folds = *file.Split.Folds
	}
	if file.Split.Repeats != nil {
		out.Split.Repeats = *file.Split.Repeats
	}
	if file.Split.StrataBins != nil {
		out.Split.StrataBins = *file.Split.StrataBins
	}
	if len(file.Models.Units) > 0 {
		out.Models.Units = file.Models.Units
	}
	if file.Eval.MaxConcurrency != nil {
		out.Eval.MaxConcurrency = *file.Eval.MaxConcurrency
	}
	if file.Eval.KeepModels != nil {
		out.Eval.KeepModels = *file.Eval.KeepModels
	}
	if file.Paths.OutputDir != "" {
		out.Paths.OutputDir = file.Paths.OutputDir
	}
	if file.Logging.Level != "" {
		out.Logging.Level = file.Logging.Level
	}
	if file.Logging.Format != "" {
		out.Logging.Format = file.Logging.Format
	}
	if file.Tracing.Enabled != nil {
		out.Tracing.Enabled = *file.Tracing.Enabled
	}

	return out
}

func (c *Config) resolvePaths() error {
	abs, err := filepath.Abs(c.Paths.OutputDir)
	if err != nil {
		return fmt.Errorf("resolve output dir: %w", err)
	}
	c.Paths.OutputDir = abs
	return nil
}
