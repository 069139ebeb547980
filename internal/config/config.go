package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/Norgate-AV/protogen/internal/artifact"
	"github.com/Norgate-AV/protogen/internal/generate"
	"github.com/Norgate-AV/protogen/internal/plugins"
	"github.com/Norgate-AV/protogen/internal/repository"
	"github.com/Norgate-AV/protogen/internal/sourceroot"
	"github.com/Norgate-AV/protogen/internal/versions"
)

// Default configuration values
const (
	DefaultProtocVersion = versions.PathLiteral
	DefaultTimeout       = 10 * time.Minute
	DefaultSilent        = false
	DefaultVerbose       = false
)

// RepositoryConfig selects where protoc and plugin artifacts come from
type RepositoryConfig struct {
	Remote      string
	Local       string
	Offline     bool
	MetadataTTL time.Duration
}

// Holds the configuration options for protogen
type Config struct {
	// protoc version: "PATH", an exact version or a Maven range
	ProtocVersion string

	// Schema roots and output for main sources
	SourceDirs []string
	OutputDir  string

	// Schema roots and output for test sources
	TestSourceDirs []string
	TestOutputDir  string

	// Import-only directories
	ImportPaths []string

	// Archives whose .proto entries are importable, such as jars of shared schemas
	ImportDependencies []artifact.Coordinates

	Plugins []plugins.Bean

	LiteOnly      bool
	KotlinEnabled bool
	FatalWarnings bool

	// Build root; relative paths are resolved against it
	BaseDir string

	// Kill protoc after this long; zero disables the limit
	Timeout time.Duration

	Repository RepositoryConfig

	// Suppress protoc output on the console
	Silent bool

	// Enable verbose output
	Verbose bool
}

func Load() (*Config, error) {
	cfg := &Config{
		ProtocVersion:  viper.GetString("protoc_version"),
		SourceDirs:     viper.GetStringSlice("source_directories"),
		OutputDir:      viper.GetString("output_directory"),
		TestSourceDirs: viper.GetStringSlice("test_source_directories"),
		TestOutputDir:  viper.GetString("test_output_directory"),
		ImportPaths:    viper.GetStringSlice("import_paths"),
		LiteOnly:       viper.GetBool("lite_only"),
		KotlinEnabled:  viper.GetBool("kotlin_enabled"),
		FatalWarnings:  viper.GetBool("fatal_warnings"),
		BaseDir:        viper.GetString("base_dir"),
		Timeout:        viper.GetDuration("timeout"),
		Repository: RepositoryConfig{
			Remote:      viper.GetString("repository.remote"),
			Local:       viper.GetString("repository.local"),
			Offline:     viper.GetBool("repository.offline"),
			MetadataTTL: viper.GetDuration("repository.metadata_ttl"),
		},
		Silent:  viper.GetBool("silent"),
		Verbose: viper.GetBool("verbose"),
	}

	if err := viper.UnmarshalKey("plugins", &cfg.Plugins); err != nil {
		return nil, fmt.Errorf("invalid plugins configuration: %w", err)
	}

	if err := viper.UnmarshalKey("import_dependencies", &cfg.ImportDependencies); err != nil {
		return nil, fmt.Errorf("invalid import dependencies configuration: %w", err)
	}

	if cfg.ProtocVersion == "" {
		cfg.ProtocVersion = DefaultProtocVersion
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.BaseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to determine working directory: %w", err)
		}

		c.BaseDir = wd
	}

	abs, err := filepath.Abs(c.BaseDir)
	if err != nil {
		return fmt.Errorf("invalid base directory: %w", err)
	}

	c.BaseDir = abs

	if _, err := versions.ParseSpecifier(c.ProtocVersion); err != nil {
		return fmt.Errorf("invalid protoc version: %w", err)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout: %s", c.Timeout)
	}

	if c.Repository.MetadataTTL < 0 {
		return fmt.Errorf("invalid repository metadata ttl: %s", c.Repository.MetadataTTL)
	}

	c.SourceDirs = c.resolveAll(c.SourceDirs)
	c.TestSourceDirs = c.resolveAll(c.TestSourceDirs)
	c.ImportPaths = c.resolveAll(c.ImportPaths)
	c.OutputDir = c.resolve(c.OutputDir)
	c.TestOutputDir = c.resolve(c.TestOutputDir)

	if c.Repository.Local != "" {
		c.Repository.Local = c.resolve(c.Repository.Local)
	}

	if err := plugins.CheckUnique(c.Plugins); err != nil {
		return err
	}

	for _, p := range c.Plugins {
		if err := p.Validate(); err != nil {
			return err
		}
	}

	for _, dep := range c.ImportDependencies {
		if err := dep.Validate(); err != nil {
			return fmt.Errorf("invalid import dependency: %w", err)
		}
	}

	return nil
}

// Request builds the generation request for one kind of source root
func (c *Config) Request(kind sourceroot.Kind) (generate.Request, error) {
	sourceDirs, outputDir := c.SourceDirs, c.OutputDir
	if kind == sourceroot.Test {
		sourceDirs, outputDir = c.TestSourceDirs, c.TestOutputDir
	}

	return generate.NewRequestBuilder(kind).
		ProtocVersion(c.ProtocVersion).
		BaseDir(c.BaseDir).
		SourceDirs(sourceDirs...).
		ImportDirs(c.ImportPaths...).
		ImportDependencies(c.ImportDependencies...).
		OutputDir(outputDir).
		Plugins(c.Plugins...).
		Lite(c.LiteOnly).
		Kotlin(c.KotlinEnabled).
		FatalWarnings(c.FatalWarnings).
		Timeout(c.Timeout).
		Build()
}

// RepositoryOptions converts the repository settings
func (c *Config) RepositoryOptions() repository.Options {
	return repository.Options{
		Remote:      c.Repository.Remote,
		Local:       c.Repository.Local,
		Offline:     c.Repository.Offline,
		MetadataTTL: c.Repository.MetadataTTL,
	}
}

// ManifestPath is where generated source roots are recorded
func (c *Config) ManifestPath() string {
	return filepath.Join(c.BaseDir, "target", sourceroot.ManifestFile)
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(c.BaseDir, path)
}

func (c *Config) resolveAll(paths []string) []string {
	var out []string
	for _, p := range paths {
		if p != "" {
			out = append(out, c.resolve(p))
		}
	}

	return out
}
