package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brettbedarf/stagefs/internal/util"
	"gopkg.in/yaml.v3"
)

// Config contains runtime configuration values for the staged file system.
type Config struct {
	LogLvl util.LogLevel // Internal log level (Default info)
	Store  StoreConfig

	LibFolderPath       string // Folder the built-in library files appear under (Default /node_modules/typescript/lib)
	SkipLoadingLibFiles bool   // Do not expose the library file overlay at all (Default false)
}

// StoreConfig selects and configures the backing store.
type StoreConfig struct {
	Type             string // Registered store type, i.e. "memory" or "disk" (Default memory)
	Root             string // Host directory the disk store maps "/" onto (Default current working directory)
	CaseSensitive    *bool  // nil lets the store decide
	CurrentDirectory string // Base for relative paths (Default /)
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
type ConfigOverride struct {
	// LogLvl is the CLI verbosity between 1 (error) and 5 (trace); it is
	// clamped and converted to [util.LogLevel] on merge
	LogLvl              *int    `yaml:"verbose,omitempty" json:"verbose,omitempty"`
	StoreType           *string `yaml:"store_type,omitempty" json:"store_type,omitempty"`
	StoreRoot           *string `yaml:"store_root,omitempty" json:"store_root,omitempty"`
	CaseSensitive       *bool   `yaml:"case_sensitive,omitempty" json:"case_sensitive,omitempty"`
	CurrentDirectory    *string `yaml:"current_directory,omitempty" json:"current_directory,omitempty"`
	LibFolderPath       *string `yaml:"lib_folder_path,omitempty" json:"lib_folder_path,omitempty"`
	SkipLoadingLibFiles *bool   `yaml:"skip_loading_lib_files,omitempty" json:"skip_loading_lib_files,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		LogLvl: DefaultLogLvl,
		Store: StoreConfig{
			Type:             DefaultStoreType,
			Root:             DefaultStoreRoot,
			CurrentDirectory: DefaultCurrentDirectory,
		},
		LibFolderPath:       DefaultLibFolderPath,
		SkipLoadingLibFiles: DefaultSkipLoadingLibFiles,
	}
}

// NewConfig creates a default Config and merges override onto it.
// A nil override yields the defaults.
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.LogLvl != nil {
		c.LogLvl = VerboseToLogLevel(*override.LogLvl)
	}
	if override.StoreType != nil {
		c.Store.Type = *override.StoreType
	}
	if override.StoreRoot != nil {
		c.Store.Root = *override.StoreRoot
	}
	if override.CaseSensitive != nil {
		v := *override.CaseSensitive
		c.Store.CaseSensitive = &v
	}
	if override.CurrentDirectory != nil {
		c.Store.CurrentDirectory = *override.CurrentDirectory
	}
	if override.LibFolderPath != nil {
		c.LibFolderPath = *override.LibFolderPath
	}
	if override.SkipLoadingLibFiles != nil {
		c.SkipLoadingLibFiles = *override.SkipLoadingLibFiles
	}
}

// VerboseToLogLevel converts CLI verbosity (1 error .. 5 trace) into a
// [util.LogLevel]. Out of range values are clamped.
func VerboseToLogLevel(verbose int) util.LogLevel {
	verbose = min(max(verbose, ErrorVerbose), TraceVerbose)
	logLvls := [5]util.LogLevel{util.ErrorLevel, util.WarnLevel, util.InfoLevel, util.DebugLevel, util.TraceLevel}
	return logLvls[verbose-1]
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
// This is a convenience function that combines NewDefaultConfig, LoadConfigOverrideFile, and Merge.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	cfg.Merge(override)
	return cfg, nil
}
