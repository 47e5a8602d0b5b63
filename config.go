package blog

import "github.com/goliatone/go-blog/internal/runtimeconfig"

var (
	ErrEnvironmentRequired         = runtimeconfig.ErrEnvironmentRequired
	ErrContentProviderUnknown      = runtimeconfig.ErrContentProviderUnknown
	ErrPostsDirRequired            = runtimeconfig.ErrPostsDirRequired
	ErrStorageDSNRequired          = runtimeconfig.ErrStorageDSNRequired
	ErrStorageDriverUnknown        = runtimeconfig.ErrStorageDriverUnknown
	ErrAssetDirRequired            = runtimeconfig.ErrAssetDirRequired
	ErrGeneratorOutputDirRequired  = runtimeconfig.ErrGeneratorOutputDirRequired
	ErrGeneratorRoutePrefixInvalid = runtimeconfig.ErrGeneratorRoutePrefixInvalid
	ErrGeneratorWorkersInvalid     = runtimeconfig.ErrGeneratorWorkersInvalid
	ErrLoggingProviderRequired     = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown      = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid         = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid        = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config          = runtimeconfig.Config
	ContentConfig   = runtimeconfig.ContentConfig
	StorageConfig   = runtimeconfig.StorageConfig
	MarkdownConfig  = runtimeconfig.MarkdownConfig
	GeneratorConfig = runtimeconfig.GeneratorConfig
	LoggingConfig   = runtimeconfig.LoggingConfig
	LoadOptions     = runtimeconfig.LoadOptions
)

const (
	EnvironmentProduction  = runtimeconfig.EnvironmentProduction
	EnvironmentDevelopment = runtimeconfig.EnvironmentDevelopment

	ContentProviderFile     = runtimeconfig.ContentProviderFile
	ContentProviderDatabase = runtimeconfig.ContentProviderDatabase
)

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a YAML file, .env files and BLOG_* environment variables
// on top of DefaultConfig.
func LoadConfig(opts LoadOptions) (Config, error) {
	return runtimeconfig.Load(opts)
}
