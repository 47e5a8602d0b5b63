package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrEnvironmentRequired = errors.New("blog config: environment is required")
var ErrContentProviderUnknown = errors.New("blog config: content provider is invalid")
var ErrPostsDirRequired = errors.New("blog config: posts directory is required for the file provider")
var ErrStorageDSNRequired = errors.New("blog config: storage dsn is required for the database provider")
var ErrStorageDriverUnknown = errors.New("blog config: storage driver is invalid")
var ErrAssetDirRequired = errors.New("blog config: markdown asset directory is required")
var ErrGeneratorOutputDirRequired = errors.New("blog config: generator output directory is required")
var ErrGeneratorRoutePrefixInvalid = errors.New("blog config: generator route prefix is invalid")
var ErrGeneratorWorkersInvalid = errors.New("blog config: generator workers must be zero or positive")
var ErrLoggingProviderRequired = errors.New("blog config: logging provider is required")
var ErrLoggingProviderUnknown = errors.New("blog config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("blog config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("blog config: logging format is invalid")

const (
	EnvironmentProduction  = "production"
	EnvironmentDevelopment = "development"

	ContentProviderFile     = "file"
	ContentProviderDatabase = "database"
)

// Config holds every setting the blog build reads. It is loaded once per
// process and treated as read-only afterwards.
type Config struct {
	// Environment selects build behaviour. Only "production" changes
	// anything: draft posts are left out of the generated paths.
	Environment string          `yaml:"environment"`
	Content     ContentConfig   `yaml:"content"`
	Storage     StorageConfig   `yaml:"storage"`
	Markdown    MarkdownConfig  `yaml:"markdown"`
	Generator   GeneratorConfig `yaml:"generator"`
	Logging     LoggingConfig   `yaml:"logging"`
}

// ContentConfig selects where posts are read from.
type ContentConfig struct {
	Provider       string `yaml:"provider"`
	PostsDir       string `yaml:"posts_dir"`
	Pattern        string `yaml:"pattern"`
	Recursive      bool   `yaml:"recursive"`
	ValidateSchema bool   `yaml:"validate_schema"`
}

// StorageConfig configures the database post store.
type StorageConfig struct {
	Driver   string        `yaml:"driver"`
	DSN      string        `yaml:"dsn"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// AutoMigrate creates the posts table on startup.
	AutoMigrate bool `yaml:"auto_migrate"`
}

// MarkdownConfig configures the content compiler.
type MarkdownConfig struct {
	AssetDir       string   `yaml:"asset_dir"`
	HighlightStyle string   `yaml:"highlight_style"`
	Extensions     []string `yaml:"extensions"`
	HardWraps      bool     `yaml:"hard_wraps"`
	Unsafe         bool     `yaml:"unsafe"`
}

// GeneratorConfig configures the site build.
type GeneratorConfig struct {
	OutputDir   string        `yaml:"output_dir"`
	RoutePrefix string        `yaml:"route_prefix"`
	SiteTitle   string        `yaml:"site_title"`
	BaseURL     string        `yaml:"base_url"`
	Language    string        `yaml:"language"`
	Workers     int           `yaml:"workers"`
	CleanBuild  bool          `yaml:"clean_build"`
	CopyAssets  bool          `yaml:"copy_assets"`
	Timeout     time.Duration `yaml:"timeout"`

	GenerateSitemap bool `yaml:"generate_sitemap"`
	GenerateRobots  bool `yaml:"generate_robots"`
	GenerateFeed    bool `yaml:"generate_feed"`
}

// LoggingConfig selects the logging provider.
type LoggingConfig struct {
	Provider  string   `yaml:"provider"`
	Level     string   `yaml:"level"`
	Format    string   `yaml:"format"`
	AddSource bool     `yaml:"add_source"`
	Focus     []string `yaml:"focus"`
}

// DefaultConfig returns the settings used when no file or environment
// override is present.
func DefaultConfig() Config {
	return Config{
		Environment: EnvironmentDevelopment,
		Content: ContentConfig{
			Provider:       ContentProviderFile,
			PostsDir:       "posts",
			Pattern:        "*.md,*.mdx",
			Recursive:      true,
			ValidateSchema: true,
		},
		Storage: StorageConfig{
			Driver:      "sqlite",
			CacheTTL:    time.Minute,
			AutoMigrate: true,
		},
		Markdown: MarkdownConfig{
			AssetDir:       "public",
			HighlightStyle: "github",
			Unsafe:         true,
		},
		Generator: GeneratorConfig{
			OutputDir:   "out",
			RoutePrefix: "blog",
			SiteTitle:   "Blog",
			Language:    "en",
			Workers:     0,
			CleanBuild:  true,
			CopyAssets:  true,

			GenerateSitemap: true,
			GenerateRobots:  true,
			GenerateFeed:    true,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// IsProduction reports whether draft posts must be excluded.
func (cfg Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(cfg.Environment), EnvironmentProduction)
}

// Validate performs consistency checks across sections.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.Environment) == "" {
		return ErrEnvironmentRequired
	}

	switch normalize(cfg.Content.Provider) {
	case ContentProviderFile:
		if strings.TrimSpace(cfg.Content.PostsDir) == "" {
			return ErrPostsDirRequired
		}
	case ContentProviderDatabase:
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return ErrStorageDSNRequired
		}
		if !isSupportedDriver(normalize(cfg.Storage.Driver)) {
			return fmt.Errorf("%w: %s", ErrStorageDriverUnknown, cfg.Storage.Driver)
		}
	default:
		return fmt.Errorf("%w: %s", ErrContentProviderUnknown, cfg.Content.Provider)
	}

	if strings.TrimSpace(cfg.Markdown.AssetDir) == "" {
		return ErrAssetDirRequired
	}
	if strings.TrimSpace(cfg.Generator.OutputDir) == "" {
		return ErrGeneratorOutputDirRequired
	}
	if prefix := cfg.Generator.RoutePrefix; strings.Contains(prefix, "..") || strings.ContainsAny(prefix, "?#\\") {
		return fmt.Errorf("%w: %s", ErrGeneratorRoutePrefixInvalid, prefix)
	}
	if cfg.Generator.Workers < 0 {
		return ErrGeneratorWorkersInvalid
	}

	provider := normalize(cfg.Logging.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedDriver(driver string) bool {
	switch driver {
	case "", "sqlite", "sqlite3", "postgres", "postgresql", "pg":
		return true
	default:
		return false
	}
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch normalize(level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch normalize(format) {
	case "json", "console", "text", "pretty":
		return true
	default:
		return false
	}
}
