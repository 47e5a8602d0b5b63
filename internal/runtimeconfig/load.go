package runtimeconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BLOG_"

// LoadOptions controls where Load looks for settings.
type LoadOptions struct {
	// Path is the YAML file. A missing file is not an error.
	Path string
	// DotEnv lists .env files read before environment overrides. Missing
	// files are skipped.
	DotEnv []string
	// Lookup replaces os.LookupEnv. Used by tests.
	Lookup func(string) (string, bool)
}

// Load builds a Config from defaults, then the YAML file, then .env files,
// then BLOG_* environment variables. The result is validated.
func Load(opts LoadOptions) (Config, error) {
	cfg := DefaultConfig()

	if path := strings.TrimSpace(opts.Path); path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("blog config: parse %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("blog config: read %s: %w", path, err)
		}
	}

	for _, file := range opts.DotEnv {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("blog config: load %s: %w", file, err)
		}
	}

	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if value, ok := lookup(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(value)
		}
	}
	boolean := func(key string, dst *bool) error {
		value, ok := lookup(EnvPrefix + key)
		if !ok {
			return nil
		}
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("blog config: %s%s: %w", EnvPrefix, key, err)
		}
		*dst = parsed
		return nil
	}

	str("ENV", &cfg.Environment)
	str("CONTENT_PROVIDER", &cfg.Content.Provider)
	str("POSTS_DIR", &cfg.Content.PostsDir)
	str("STORAGE_DRIVER", &cfg.Storage.Driver)
	str("DATABASE_DSN", &cfg.Storage.DSN)
	str("ASSET_DIR", &cfg.Markdown.AssetDir)
	str("HIGHLIGHT_STYLE", &cfg.Markdown.HighlightStyle)
	str("OUTPUT_DIR", &cfg.Generator.OutputDir)
	str("ROUTE_PREFIX", &cfg.Generator.RoutePrefix)
	str("SITE_TITLE", &cfg.Generator.SiteTitle)
	str("BASE_URL", &cfg.Generator.BaseURL)
	str("LOG_PROVIDER", &cfg.Logging.Provider)
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FORMAT", &cfg.Logging.Format)

	if err := boolean("CLEAN_BUILD", &cfg.Generator.CleanBuild); err != nil {
		return err
	}
	if err := boolean("COPY_ASSETS", &cfg.Generator.CopyAssets); err != nil {
		return err
	}
	if err := boolean("GENERATE_SITEMAP", &cfg.Generator.GenerateSitemap); err != nil {
		return err
	}
	if err := boolean("GENERATE_ROBOTS", &cfg.Generator.GenerateRobots); err != nil {
		return err
	}
	if err := boolean("GENERATE_FEED", &cfg.Generator.GenerateFeed); err != nil {
		return err
	}
	if value, ok := lookup(EnvPrefix + "WORKERS"); ok {
		workers, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("blog config: %sWORKERS: %w", EnvPrefix, err)
		}
		cfg.Generator.Workers = workers
	}
	if value, ok := lookup(EnvPrefix + "CACHE_TTL"); ok {
		ttl, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("blog config: %sCACHE_TTL: %w", EnvPrefix, err)
		}
		cfg.Storage.CacheTTL = ttl
	}
	return nil
}
