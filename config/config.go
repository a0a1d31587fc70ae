package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/storefront/database"
	storefronthttp "github.com/sagarc03/storefront/http"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for storefront.
type Config struct {
	Env      string                    `mapstructure:"env" yaml:"env" validate:"required,oneof=dev prod"`
	Server   ServerConfig              `mapstructure:"server" yaml:"server"`
	Service  ServiceConfig             `mapstructure:"service" yaml:"service"`
	Database database.Config           `mapstructure:"database" yaml:"database"`
	Storage  StorageConfig             `mapstructure:"storage" yaml:"storage"`
	Upload   UploadConfig              `mapstructure:"upload" yaml:"upload"`
	Auth     AuthConfig                `mapstructure:"auth" yaml:"auth"`
	CORS     storefronthttp.CORSConfig `mapstructure:"cors" yaml:"cors"`
	Log      LogConfig                 `mapstructure:"log" yaml:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int `mapstructure:"port" yaml:"port" validate:"required,min=1,max=65535"`
	// PublicURL prefixes the URLs of locally stored files.
	PublicURL     string `mapstructure:"public_url" yaml:"public_url" validate:"required,url"`
	MaxUploadSize int64  `mapstructure:"max_upload_size" yaml:"max_upload_size" validate:"min=0"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	CleanupTimeout     int `mapstructure:"cleanup_timeout" yaml:"cleanup_timeout" validate:"min=1"`
	CleanupConcurrency int `mapstructure:"cleanup_concurrency" yaml:"cleanup_concurrency" validate:"min=1,max=64"`
}

// StorageConfig holds the local and remote image destinations.
type StorageConfig struct {
	Local  LocalStorageConfig  `mapstructure:"local" yaml:"local"`
	Remote RemoteStorageConfig `mapstructure:"remote" yaml:"remote"`
}

type LocalStorageConfig struct {
	Path string `mapstructure:"path" yaml:"path" validate:"required"`
}

// RemoteStorageConfig configures the S3 compatible bucket tried before the
// local directory. Credentials come from the default AWS chain.
type RemoteStorageConfig struct {
	Enabled      bool   `mapstructure:"enabled" yaml:"enabled"`
	Bucket       string `mapstructure:"bucket" yaml:"bucket" validate:"required_if=Enabled true"`
	Region       string `mapstructure:"region" yaml:"region" validate:"required_if=Enabled true"`
	Endpoint     string `mapstructure:"endpoint" yaml:"endpoint" validate:"omitempty,url"`
	UsePathStyle bool   `mapstructure:"use_path_style" yaml:"use_path_style"`
	PublicURL    string `mapstructure:"public_url" yaml:"public_url" validate:"omitempty,url"`
	Prefix       string `mapstructure:"prefix" yaml:"prefix"`
	MaxDimension int    `mapstructure:"max_dimension" yaml:"max_dimension" validate:"min=0"`
}

// UploadConfig holds per-file limits.
type UploadConfig struct {
	PictureMaxSize int64 `mapstructure:"picture_max_size" yaml:"picture_max_size" validate:"min=1"`
	ProductMaxSize int64 `mapstructure:"product_max_size" yaml:"product_max_size" validate:"min=1"`
	MaxAdditional  int   `mapstructure:"max_additional" yaml:"max_additional" validate:"min=0,max=32"`
}

// AuthConfig holds bearer token configuration.
type AuthConfig struct {
	// JWTSecret signs tokens. Required in prod; dev generates one per process.
	JWTSecret string        `mapstructure:"jwt_secret" yaml:"jwt_secret" validate:"omitempty,min=16"`
	Issuer    string        `mapstructure:"issuer" yaml:"issuer" validate:"required"`
	TokenTTL  time.Duration `mapstructure:"token_ttl" yaml:"token_ttl" validate:"min=0"`
	CacheSize int           `mapstructure:"cache_size" yaml:"cache_size" validate:"min=1"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl" validate:"min=0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-type":      "database.type",
	"db-dsn":       "database.dsn",
	"storage-path": "storage.local.path",
	"port":         "server.port",
	"public-url":   "server.public_url",
	"env":          "env",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("server.port", 5000)
	v.SetDefault("server.public_url", "http://localhost:5000")
	v.SetDefault("server.max_upload_size", 0) // 0 means sized for a full product upload

	v.SetDefault("service.cleanup_timeout", 30) // seconds
	v.SetDefault("service.cleanup_concurrency", 4)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "storefront.db")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.tables.admins", "admins")
	v.SetDefault("database.tables.products", "products")

	v.SetDefault("storage.local.path", "./uploads")
	v.SetDefault("storage.remote.enabled", false)
	v.SetDefault("storage.remote.bucket", "")
	v.SetDefault("storage.remote.endpoint", "")
	v.SetDefault("storage.remote.use_path_style", false)
	v.SetDefault("storage.remote.public_url", "")
	v.SetDefault("storage.remote.region", "us-east-1")
	v.SetDefault("storage.remote.prefix", "clothing-store")
	v.SetDefault("storage.remote.max_dimension", 1200)

	v.SetDefault("upload.picture_max_size", 5<<20)
	v.SetDefault("upload.product_max_size", 10<<20)
	v.SetDefault("upload.max_additional", 8)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "storefront")
	v.SetDefault("auth.token_ttl", "168h")
	v.SetDefault("auth.cache_size", 1024)
	v.SetDefault("auth.cache_ttl", "30s")

	v.SetDefault("cors.enabled", false)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Authorization", "Content-Type"})
	v.SetDefault("cors.exposed_headers", []string{})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if cfg.Env == "prod" && cfg.Auth.JWTSecret == "" {
		return nil, errors.New("validate config: auth.jwt_secret is required when env is prod")
	}

	return &cfg, nil
}

// Redacted returns a copy of cfg that is safe to print.
func (c Config) Redacted() Config {
	if c.Auth.JWTSecret != "" {
		c.Auth.JWTSecret = "********"
	}
	return c
}
