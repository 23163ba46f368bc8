package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Environment    string         `mapstructure:"environment"`
	MetricsEnabled bool           `mapstructure:"metrics_enabled"`
	Server         ServerConfig   `mapstructure:"server"`
	Logging        LoggingConfig  `mapstructure:"logging"`
	DB             DatabaseConfig `mapstructure:"database"`
	Reports        ReportsConfig  `mapstructure:"reports"`
	Import         ImportConfig   `mapstructure:"import"`
	Redis          RedisConfig    `mapstructure:"redis"`
	Azure          AzureConfig    `mapstructure:"azure"`
	Elastic        ElasticConfig  `mapstructure:"elastic"`
	Tracing        TracingConfig  `mapstructure:"tracing"`
	Storage        StorageConfig  `mapstructure:"storage"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	Timeout         time.Duration `mapstructure:"timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CorsEnabled     bool          `mapstructure:"cors_enabled"`
	CorsOrigins     []string      `mapstructure:"cors_origins"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig holds database configuration. An empty URL selects the
// embedded single-file store at Path.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	ReadOnlyURL     string        `mapstructure:"read_only_url"`
	Path            string        `mapstructure:"path"`
	Debug           bool          `mapstructure:"debug"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	SlowThreshold   time.Duration `mapstructure:"slow_threshold"`
}

// ReportsConfig holds report engine configuration
type ReportsConfig struct {
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	NearExpiryDays int           `mapstructure:"near_expiry_days"`
}

// ImportConfig holds bulk loader configuration
type ImportConfig struct {
	Workers   int `mapstructure:"workers"`
	BatchSize int `mapstructure:"batch_size"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

// AzureConfig holds Azure Service Bus configuration
type AzureConfig struct {
	QueueConnStr string `mapstructure:"queue_conn_str"`
	QueueName    string `mapstructure:"queue_name"`
}

// ElasticConfig holds Elasticsearch configuration
type ElasticConfig struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Prefix   string `mapstructure:"prefix"`
	Index    string `mapstructure:"index"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	LicenseKey     string `mapstructure:"license_key"`
	AppName        string `mapstructure:"app_name"`
	LogEnabled     bool   `mapstructure:"log_enabled"`
	DistribTracing bool   `mapstructure:"distributed_tracing_enabled"`
}

// StorageConfig holds object storage configuration for archived uploads
type StorageConfig struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Prefix          string `mapstructure:"prefix"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Endpoint        string `mapstructure:"endpoint"`
}

// LoadConfig reads configuration from file or environment variables.
// When file is empty the working directory and ./config are searched.
func LoadConfig(file string) (Config, error) {
	v := viper.New()

	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "error reading config file %s", file)
		}
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, errors.Wrap(err, "error reading config file")
			}
			// Fall back to an env file, then to ENV vars and defaults
			v.SetConfigName("app")
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				log.Debug().Err(err).Msg("No configuration file found, using defaults and environment")
			}
		}
	}

	v.SetEnvPrefix("FOODSHARE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, errors.Wrap(err, "unable to unmarshal config")
	}

	return config, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("metrics_enabled", true)

	v.SetDefault("server.address", "0.0.0.0:8080")
	v.SetDefault("server.timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("server.cors_enabled", true)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.max_upload_bytes", 32<<20)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// Database settings
	v.SetDefault("database.url", "")
	v.SetDefault("database.read_only_url", "")
	v.SetDefault("database.path", "food.db")
	v.SetDefault("database.debug", false)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.slow_threshold", "1s")

	v.SetDefault("reports.cache_ttl", "5m")
	v.SetDefault("reports.near_expiry_days", 2)

	v.SetDefault("import.workers", 4)
	v.SetDefault("import.batch_size", 500)

	// Redis settings
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enabled", false)

	v.SetDefault("azure.queue_conn_str", "")
	v.SetDefault("azure.queue_name", "foodshare-events")

	// Elasticsearch settings
	v.SetDefault("elastic.url", "")
	v.SetDefault("elastic.username", "")
	v.SetDefault("elastic.password", "")
	v.SetDefault("elastic.prefix", "foodshare")
	v.SetDefault("elastic.index", "listings")

	// Tracing settings
	v.SetDefault("tracing.license_key", "")
	v.SetDefault("tracing.app_name", "Foodshare Dashboard")
	v.SetDefault("tracing.log_enabled", true)
	v.SetDefault("tracing.distributed_tracing_enabled", true)

	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.prefix", "imports")
	v.SetDefault("storage.access_key_id", "")
	v.SetDefault("storage.secret_access_key", "")
	v.SetDefault("storage.endpoint", "")
}

// FormatIndex formats an Elasticsearch index name with the configured prefix
func FormatIndex(cfg ElasticConfig, index string) string {
	return cfg.Prefix + "-" + index
}

// UsesEmbeddedStore reports whether the configuration selects the
// single-file store rather than a connection URL.
func (c DatabaseConfig) UsesEmbeddedStore() bool {
	return c.URL == "" || strings.HasPrefix(c.URL, "sqlite://")
}
