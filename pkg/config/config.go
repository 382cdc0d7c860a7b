// Package config loads server configuration from YAML and INKWELL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"inkwell/pkg/database"
	"inkwell/pkg/logger"
	"inkwell/pkg/thread"
)

// EnvPrefix is prepended to every environment override, e.g. INKWELL_DATABASE_HOST
const EnvPrefix = "INKWELL"

// DefaultPath is used when neither an explicit path nor INKWELL_CONFIG is given
const DefaultPath = "./configs/development.yaml"

const insecureSecret = "change-me-in-production"

type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	NATS        NATSConfig      `mapstructure:"nats"`
	JWT         JWTConfig       `mapstructure:"jwt"`
	Logging     logger.Config   `mapstructure:"logging"`
	GRPC        GRPCConfig      `mapstructure:"grpc"`
	Comments    CommentsConfig  `mapstructure:"comments"`
	WebSocket   WebSocketConfig `mapstructure:"websocket"`
	Disclosure  thread.Policy   `mapstructure:"disclosure"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // gin mode: debug, release, test
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// Addr is host:port for the HTTP listener
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timeout         time.Duration `mapstructure:"timeout"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// Options converts to the settings pkg/database connects with
func (d DatabaseConfig) Options() database.Config {
	return database.Config{
		Host:            d.Host,
		Port:            d.Port,
		User:            d.User,
		Password:        d.Password,
		Database:        d.Database,
		SSLMode:         d.SSLMode,
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
		ConnMaxIdleTime: d.ConnMaxIdleTime,
		Timeout:         d.Timeout,
	}
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type NATSConfig struct {
	// URL empty means comment events stay in-process.
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
	ClientName    string `mapstructure:"client_name"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Issuer     string        `mapstructure:"issuer"`
	Expiration time.Duration `mapstructure:"expiration"`
}

type GRPCConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// Addr is host:port for the gRPC listener
func (g GRPCConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.Host, g.Port)
}

type CommentsConfig struct {
	MaxLength int `mapstructure:"max_length"`
	// RateLimit is sustained writes per second per user, Burst the bucket size.
	RateLimit float64 `mapstructure:"rate_limit"`
	Burst     int     `mapstructure:"burst"`
}

type WebSocketConfig struct {
	MaxClientsPerRoom int      `mapstructure:"max_clients_per_room"`
	AllowedOrigins    []string `mapstructure:"allowed_origins"`
}

// IsDevelopment reports whether relaxed defaults are acceptable
func (c *Config) IsDevelopment() bool {
	return c.Environment == "" || c.Environment == "development" || c.Environment == "test"
}

// Validate rejects configurations that must not reach production
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.JWT.Expiration <= 0 {
		return errors.New("jwt.expiration must be positive")
	}
	if c.Comments.MaxLength <= 0 {
		return errors.New("comments.max_length must be positive")
	}
	if !c.IsDevelopment() && (c.JWT.Secret == "" || c.JWT.Secret == insecureSecret) {
		return fmt.Errorf("jwt.secret must be set in %s", c.Environment)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "inkwell")
	v.SetDefault("database.password", "inkwell_dev_password")
	v.SetDefault("database.database", "inkwell_dev")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.conn_max_idle_time", "5m")
	v.SetDefault("database.timeout", "5s")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "2m")

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject_prefix", "inkwell.comments")
	v.SetDefault("nats.client_name", "inkwell-server")

	v.SetDefault("jwt.secret", insecureSecret)
	v.SetDefault("jwt.issuer", "inkwell")
	v.SetDefault("jwt.expiration", "24h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.time_format", time.RFC3339)

	v.SetDefault("grpc.enabled", true)
	v.SetDefault("grpc.host", "0.0.0.0")
	v.SetDefault("grpc.port", 50051)

	v.SetDefault("comments.max_length", 5000)
	v.SetDefault("comments.rate_limit", 0.5)
	v.SetDefault("comments.burst", 5)

	v.SetDefault("websocket.max_clients_per_room", 500)
	v.SetDefault("websocket.allowed_origins", []string{"*"})

	p := thread.DefaultPolicy()
	v.SetDefault("disclosure.initial_replies", p.InitialReplies)
	v.SetDefault("disclosure.deep_replies", p.DeepReplies)
	v.SetDefault("disclosure.deep_level", p.DeepLevel)
	v.SetDefault("disclosure.max_depth", p.MaxDepth)
	v.SetDefault("disclosure.page_size", p.PageSize)
}

// Load reads the YAML file at path (or $INKWELL_CONFIG, or DefaultPath) on top
// of built-in defaults, then applies environment overrides. A missing file is
// not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Disclosure = cfg.Disclosure.Validate()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
