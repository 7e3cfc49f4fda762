package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Env       string          `mapstructure:"env"`
	Server    ServerConfig    `mapstructure:"server"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Events    EventsConfig    `mapstructure:"events"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         string   `mapstructure:"port"`
	ReadTimeout  int      `mapstructure:"read_timeout_seconds"`
	WriteTimeout int      `mapstructure:"write_timeout_seconds"`
	IdleTimeout  int      `mapstructure:"idle_timeout_seconds"`
	CORSOrigins  []string `mapstructure:"cors_origins"`
}

type RegistryConfig struct {
	IDPrefix       string `mapstructure:"id_prefix"`
	IDWidth        int    `mapstructure:"id_width"`
	Store          string `mapstructure:"store"` // memory | postgres
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
}

type AuthConfig struct {
	Mode      string `mapstructure:"mode"` // presence | jwt
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            string `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time_seconds"`
}

type EventsConfig struct {
	Driver string `mapstructure:"driver"` // none | nats | kafka
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	AuthPresence = "presence"
	AuthJWT      = "jwt"

	EventsNone  = "none"
	EventsNATS  = "nats"
	EventsKafka = "kafka"
)

// Load reads config.<ENV>.yaml (ENV defaults to "local") and applies
// environment overrides.
func Load() (*Config, error) {
	env := os.Getenv("ENV")
	if env == "" {
		env = "local"
	}
	return LoadFrom(env, "/configs", "./configs", "../configs")
}

// LoadFrom is Load with explicit search paths. A missing file is not an error.
func LoadFrom(env string, paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.Set("env", env)

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// server.port -> SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("auth.jwt_secret", "AUTH_JWT_SECRET", "JWT_SECRET")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("server.port", "SERVER_PORT", "PORT")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3001")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 15)
	v.SetDefault("server.idle_timeout_seconds", 60)
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173", "http://localhost:8080"})

	v.SetDefault("registry.id_prefix", "COL")
	v.SetDefault("registry.id_width", 3)
	v.SetDefault("registry.store", StoreMemory)
	v.SetDefault("registry.max_upload_bytes", 2*1024*1024)

	v.SetDefault("auth.mode", AuthPresence)
	v.SetDefault("auth.issuer", "lifeboat-college")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "lifeboat")
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("events.driver", EventsNone)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject", "college.events")
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "college-events")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "localhost:4317")
}

func (c *Config) validate() error {
	switch c.Registry.Store {
	case StoreMemory, StorePostgres:
	default:
		return fmt.Errorf("unknown registry store %q", c.Registry.Store)
	}
	switch c.Auth.Mode {
	case AuthPresence:
	case AuthJWT:
		if c.Auth.JWTSecret == "" {
			return errors.New("auth.jwt_secret is required when auth.mode is jwt")
		}
	default:
		return fmt.Errorf("unknown auth mode %q", c.Auth.Mode)
	}
	switch c.Events.Driver {
	case EventsNone, EventsNATS, EventsKafka:
	default:
		return fmt.Errorf("unknown events driver %q", c.Events.Driver)
	}
	if c.Registry.IDWidth <= 0 {
		return errors.New("registry.id_width must be positive")
	}
	if c.Registry.MaxUploadBytes <= 0 {
		return errors.New("registry.max_upload_bytes must be positive")
	}
	return nil
}
