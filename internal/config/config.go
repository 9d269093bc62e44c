package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// EnvConfigFile names an optional TOML file whose values seed the configuration.
// Environment variables always take precedence over file values.
const EnvConfigFile = "VIDLIB_CONFIG"

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
	Database DatabaseConfig `toml:"database"`
	Storage  StorageConfig  `toml:"storage"`
	Stream   StreamConfig   `toml:"stream"`
	CORS     CORSConfig     `toml:"cors"`
	Redis    RedisConfig    `toml:"redis"`
	RabbitMQ RabbitMQConfig `toml:"rabbitmq"`
}

type ServerConfig struct {
	Port              int           `toml:"port" envconfig:"API_PORT" default:"3000"`
	ReadHeaderTimeout time.Duration `toml:"read_header_timeout" envconfig:"API_READ_HEADER_TIMEOUT" default:"10s"`
	// ReadTimeout bounds a whole request including upload bodies.
	ReadTimeout       time.Duration `toml:"read_timeout" envconfig:"API_READ_TIMEOUT" default:"15m"`
	WriteTimeout      time.Duration `toml:"write_timeout" envconfig:"API_WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout   time.Duration `toml:"shutdown_timeout" envconfig:"API_SHUTDOWN_TIMEOUT" default:"10s"`
}

type LogConfig struct {
	Level  string `toml:"level" envconfig:"LOG_LEVEL" default:"info"`
	Format string `toml:"format" envconfig:"LOG_FORMAT" default:"json"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DatabaseConfig struct {
	Driver      string `toml:"driver" envconfig:"DATABASE_DRIVER" default:"postgres"`
	Host        string `toml:"host" envconfig:"POSTGRES_HOST" default:"localhost"`
	Port        int    `toml:"port" envconfig:"POSTGRES_PORT" default:"5432"`
	User        string `toml:"user" envconfig:"POSTGRES_USER" default:"vidlib"`
	Password    string `toml:"password" envconfig:"POSTGRES_PASSWORD" default:"vidlib"`
	DBName      string `toml:"dbname" envconfig:"POSTGRES_DB" default:"vidlib"`
	SSLMode     string `toml:"sslmode" envconfig:"POSTGRES_SSLMODE" default:"disable"`
	MaxConns    int32  `toml:"max_conns" envconfig:"POSTGRES_MAX_CONNS" default:"25"`
	SQLitePath  string `toml:"sqlite_path" envconfig:"SQLITE_PATH" default:".data/vidlib.db"`
	AutoMigrate bool   `toml:"auto_migrate" envconfig:"DATABASE_AUTO_MIGRATE" default:"true"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

type StorageConfig struct {
	Dir           string `toml:"dir" envconfig:"STORAGE_DIR" default:"media/videos"`
	MaxUploadSize string `toml:"max_upload_size" envconfig:"STORAGE_MAX_UPLOAD_SIZE" default:"500MiB"`

	maxUploadBytes int64
}

// MaxUploadBytes returns MaxUploadSize in bytes. Valid after Load.
func (c StorageConfig) MaxUploadBytes() int64 {
	return c.maxUploadBytes
}

type StreamConfig struct {
	BufferSize   int           `toml:"buffer_size" envconfig:"STREAM_BUFFER_SIZE" default:"262144"`
	StallTimeout time.Duration `toml:"stall_timeout" envconfig:"STREAM_STALL_TIMEOUT" default:"30s"`
}

type CORSConfig struct {
	Enabled        bool     `toml:"enabled" envconfig:"CORS_ENABLED" default:"true"`
	Origins        []string `toml:"origins" envconfig:"CORS_ORIGINS" default:"*"`
	AllowedMethods []string `toml:"allowed_methods" envconfig:"CORS_ALLOWED_METHODS" default:"GET,HEAD,POST,PATCH,DELETE,OPTIONS"`
	AllowedHeaders []string `toml:"allowed_headers" envconfig:"CORS_ALLOWED_HEADERS" default:"Content-Type,Range"`
	ExposedHeaders []string `toml:"exposed_headers" envconfig:"CORS_EXPOSED_HEADERS" default:"Content-Length,Content-Range,Accept-Ranges,X-Request-Id"`
	MaxAge         int      `toml:"max_age" envconfig:"CORS_MAX_AGE" default:"3600"`
}

type RedisConfig struct {
	Enabled  bool          `toml:"enabled" envconfig:"REDIS_ENABLED" default:"false"`
	Host     string        `toml:"host" envconfig:"REDIS_HOST" default:"localhost"`
	Port     int           `toml:"port" envconfig:"REDIS_PORT" default:"6379"`
	Password string        `toml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int           `toml:"db" envconfig:"REDIS_DB" default:"0"`
	CacheTTL time.Duration `toml:"cache_ttl" envconfig:"REDIS_CACHE_TTL" default:"5m"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type RabbitMQConfig struct {
	Enabled  bool   `toml:"enabled" envconfig:"RABBITMQ_ENABLED" default:"false"`
	Host     string `toml:"host" envconfig:"RABBITMQ_HOST" default:"localhost"`
	Port     int    `toml:"port" envconfig:"RABBITMQ_PORT" default:"5672"`
	User     string `toml:"user" envconfig:"RABBITMQ_USER" default:"vidlib"`
	Password string `toml:"password" envconfig:"RABBITMQ_PASSWORD" default:"vidlib"`
	VHost    string `toml:"vhost" envconfig:"RABBITMQ_VHOST" default:"/"`
	Exchange string `toml:"exchange" envconfig:"RABBITMQ_EXCHANGE" default:"video_events"`
}

func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%d%s",
		c.User, c.Password, c.Host, c.Port, c.VHost,
	)
}

// Load builds the configuration from defaults, the optional TOML file named
// by VIDLIB_CONFIG, and the environment, in increasing order of precedence.
func Load() (*Config, error) {
	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := applyFile(path); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyFile exports each value in the TOML file under its envconfig key unless
// that variable is already set, so envconfig remains the only decoder.
func applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var sections map[string]map[string]any
	if err := toml.Unmarshal(data, &sections); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	root := reflect.TypeOf(Config{})
	for i := 0; i < root.NumField(); i++ {
		section := root.Field(i)
		values, ok := sections[tomlName(section)]
		if !ok {
			continue
		}
		for j := 0; j < section.Type.NumField(); j++ {
			field := section.Type.Field(j)
			key := field.Tag.Get("envconfig")
			value, ok := values[tomlName(field)]
			if key == "" || !ok {
				continue
			}
			if _, set := os.LookupEnv(key); set {
				continue
			}
			if err := os.Setenv(key, envValue(value)); err != nil {
				return fmt.Errorf("failed to apply %s: %w", key, err)
			}
		}
	}
	return nil
}

func envValue(v any) string {
	list, ok := v.([]any)
	if !ok {
		return fmt.Sprint(v)
	}
	parts := make([]string, len(list))
	for i, item := range list {
		parts[i] = fmt.Sprint(item)
	}
	return strings.Join(parts, ",")
}

func tomlName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
	return name
}

func (c *Config) validate() error {
	var errs []error

	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.Database.Driver))
	}

	if c.Storage.Dir == "" {
		errs = append(errs, errors.New("storage dir is required"))
	}

	size, err := units.RAMInBytes(c.Storage.MaxUploadSize)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("invalid max upload size: %w", err))
	case size <= 0:
		errs = append(errs, errors.New("max upload size must be positive"))
	default:
		c.Storage.maxUploadBytes = size
	}

	if c.Stream.BufferSize <= 0 {
		errs = append(errs, errors.New("stream buffer size must be positive"))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Log.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
