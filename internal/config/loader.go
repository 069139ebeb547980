package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Norgate-AV/protogen/internal/repository"
	"github.com/Norgate-AV/protogen/internal/sourceroot"
)

// Loader handles configuration loading from various sources
type Loader struct{}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadForGenerate loads configuration for a generate run of the given kind
func (l *Loader) LoadForGenerate(cmd *cobra.Command, kind sourceroot.Kind) (*Config, error) {
	l.setupViperDefaults()

	if err := l.loadGlobalConfig(); err != nil {
		return nil, err
	}

	if err := l.loadLocalConfig(l.baseDir(cmd)); err != nil {
		return nil, err
	}

	l.bindCommandFlags(cmd, kind)

	return Load()
}

// LoadForCache loads configuration for the cache commands
func (l *Loader) LoadForCache(cmd *cobra.Command) (*Config, error) {
	return l.LoadForGenerate(cmd, sourceroot.Main)
}

// setupViperDefaults sets up default values for viper
func (l *Loader) setupViperDefaults() {
	viper.SetDefault("protoc_version", DefaultProtocVersion)
	viper.SetDefault("timeout", DefaultTimeout)
	viper.SetDefault("repository.remote", repository.DefaultRemote)
	viper.SetDefault("repository.metadata_ttl", repository.DefaultMetadataTTL)
	viper.SetDefault("silent", DefaultSilent)
	viper.SetDefault("verbose", DefaultVerbose)
}

// loadGlobalConfig loads global configuration from the user config directory
func (l *Loader) loadGlobalConfig() error {
	path := FindGlobalConfig()
	if path == "" {
		return nil
	}

	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read global config %s: %w", path, err)
	}

	return nil
}

// loadLocalConfig merges the nearest .protogen file at or above dir
func (l *Loader) loadLocalConfig(dir string) error {
	path := FindLocalConfig(dir)
	if path == "" {
		return nil
	}

	viper.SetConfigFile(path)
	if err := viper.MergeInConfig(); err != nil {
		return fmt.Errorf("failed to read local config %s: %w", path, err)
	}

	// relative paths in a project file are relative to that project
	viper.SetDefault("base_dir", filepath.Dir(path))

	return nil
}

// baseDir is where local config discovery starts
func (l *Loader) baseDir(cmd *cobra.Command) string {
	if f := cmd.Flags().Lookup("base-dir"); f != nil && f.Value.String() != "" {
		if abs, err := filepath.Abs(f.Value.String()); err == nil {
			return abs
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return "."
	}

	return wd
}

// bindCommandFlags binds command flags to viper
func (l *Loader) bindCommandFlags(cmd *cobra.Command, kind sourceroot.Kind) {
	sourceKey, outputKey := "source_directories", "output_directory"
	if kind == sourceroot.Test {
		sourceKey, outputKey = "test_source_directories", "test_output_directory"
	}

	bind := func(key, name string) {
		if f := lookupFlag(cmd, name); f != nil {
			_ = viper.BindPFlag(key, f)
		}
	}

	bind("protoc_version", "protoc-version")
	bind(sourceKey, "source-dir")
	bind(outputKey, "output-dir")
	bind("import_paths", "import-path")
	bind("lite_only", "lite")
	bind("kotlin_enabled", "kotlin")
	bind("fatal_warnings", "fatal-warnings")
	bind("base_dir", "base-dir")
	bind("timeout", "timeout")
	bind("repository.offline", "offline")
	bind("silent", "silent")
	bind("verbose", "verbose")
}

func lookupFlag(cmd *cobra.Command, name string) *pflag.Flag {
	if f := cmd.Flags().Lookup(name); f != nil {
		return f
	}

	return cmd.InheritedFlags().Lookup(name)
}
