package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/mediagate"
	"github.com/sagarc03/mediagate/database"
	mghttp "github.com/sagarc03/mediagate/http"
	"github.com/sagarc03/mediagate/keybackend"
	"github.com/sagarc03/mediagate/s3"
)

// EnvPrefix is the prefix of environment variables that override config keys.
const EnvPrefix = "MEDIAGATE"

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

// Config is the root configuration struct for mediagate.
type Config struct {
	Server   ServerConfig      `mapstructure:"server"`
	Service  ServiceConfig     `mapstructure:"service"`
	Database database.Config   `mapstructure:"database"`
	Storage  StorageConfig     `mapstructure:"storage"`
	Auth     AuthConfig        `mapstructure:"auth"`
	CORS     mghttp.CORSConfig `mapstructure:"cors"`
	Log      LogConfig         `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration. Timeouts are in seconds.
type ServerConfig struct {
	Port              int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	APIPrefix         string `mapstructure:"api_prefix" validate:"required,startswith=/"`
	MaxUploadSize     int64  `mapstructure:"max_upload_size" validate:"min=0"`
	CacheMaxAge       int    `mapstructure:"cache_max_age" validate:"min=0"`
	MediaRanges       bool   `mapstructure:"media_ranges"`
	SpoolDir          string `mapstructure:"spool_dir"`
	ReadHeaderTimeout int    `mapstructure:"read_header_timeout" validate:"min=1"`
	IdleTimeout       int    `mapstructure:"idle_timeout" validate:"min=1"`
	ShutdownTimeout   int    `mapstructure:"shutdown_timeout" validate:"min=1"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	CleanupTimeout int `mapstructure:"cleanup_timeout" validate:"min=1"`
}

// Options converts the seconds-based config into mediagate.ServiceConfig.
func (c ServiceConfig) Options() mediagate.ServiceConfig {
	return mediagate.ServiceConfig{CleanupTimeout: time.Duration(c.CleanupTimeout) * time.Second}
}

// StorageConfig selects and configures the blob backend. S3 settings are
// only validated when the type is s3.
type StorageConfig struct {
	Type string    `mapstructure:"type" validate:"required,oneof=filesystem s3"`
	Path string    `mapstructure:"path" validate:"required_if=Type filesystem"`
	S3   s3.Config `mapstructure:"s3" validate:"-"`
}

// AuthConfig holds the upload credentials. SecretFile is read when Secret is
// empty. Tokens adds further named tokens; the shared secret, when set, joins
// them under the name "default".
type AuthConfig struct {
	Secret     string                  `mapstructure:"secret"`
	SecretFile string                  `mapstructure:"secret_file"`
	Tokens     keybackend.TokensConfig `mapstructure:"tokens"`
}

func (a AuthConfig) resolveSecret() (string, error) {
	if a.Secret != "" || a.SecretFile == "" {
		return a.Secret, nil
	}
	data, err := os.ReadFile(a.SecretFile)
	if err != nil {
		return "", fmt.Errorf("read secret file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// UploadSecret resolves the configured shared secret. An empty result means
// uploads are rejected.
func (a AuthConfig) UploadSecret() (*mediagate.SharedSecret, error) {
	secret, err := a.resolveSecret()
	if err != nil {
		return nil, err
	}
	return mediagate.NewSharedSecret(secret), nil
}

// UploadVerifier returns the verifier guarding uploads and whether it can
// accept any token at all. Without named tokens this is the shared secret.
func (a AuthConfig) UploadVerifier() (mghttp.TokenVerifier, bool, error) {
	if !a.Tokens.Configured() {
		secret, err := a.UploadSecret()
		if err != nil {
			return nil, false, err
		}
		return secret, secret.Enabled(), nil
	}

	ring, err := keybackend.New(a.Tokens)
	if err != nil {
		return nil, false, fmt.Errorf("load upload tokens: %w", err)
	}

	secret, err := a.resolveSecret()
	if err != nil {
		return nil, false, err
	}
	ring.Add(keybackend.TokenEntry{Name: "default", Token: secret})

	return ring, ring.Len() > 0, nil
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Env   string `mapstructure:"env" validate:"required,oneof=development production"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-type":      "database.type",
	"db-dsn":       "database.dsn",
	"storage-type": "storage.type",
	"storage-path": "storage.path",
	"port":         "server.port",
	"api-prefix":   "server.api_prefix",
	"log-level":    "log.level",
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

// setDefaults configures default values on the viper instance. Every key that
// should be overridable from the environment needs a default here.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5708)
	v.SetDefault("server.api_prefix", mghttp.DefaultAPIPrefix)
	v.SetDefault("server.max_upload_size", 0) // 0 means no limit
	v.SetDefault("server.cache_max_age", 31536000)
	v.SetDefault("server.media_ranges", false)
	v.SetDefault("server.spool_dir", "")
	v.SetDefault("server.read_header_timeout", 10)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("server.shutdown_timeout", 30)

	v.SetDefault("service.cleanup_timeout", 30) // seconds

	tables := mediagate.DefaultTables()
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "mediagate.db")
	v.SetDefault("database.tables.meta_data", tables.MetaData)
	v.SetDefault("database.tables.users", tables.Users)
	v.SetDefault("database.tables.todos", tables.Todos)
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("storage.type", "filesystem")
	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")
	v.SetDefault("storage.s3.use_ssl", true)
	v.SetDefault("storage.s3.path_style", false)

	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.secret_file", "")
	v.SetDefault("auth.tokens.file", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.env", "development")
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
	v.SetEnvPrefix(EnvPrefix)
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
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags, the S3 settings when S3 storage is selected,
// and the table names.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	if c.Storage.Type == "s3" {
		if err := validate.Struct(&c.Storage.S3); err != nil {
			return fmt.Errorf("validate config: storage.s3: %w", err)
		}
	}

	if err := c.Database.Tables.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	return nil
}
