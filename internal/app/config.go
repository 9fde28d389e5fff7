package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/neurobridge-lessons/internal/data/db"
	"github.com/yungbote/neurobridge-lessons/internal/platform/envutil"
)

const DriverDynamo = "dynamodb"

type StoreConfig struct {
	Driver  string        `yaml:"driver"`
	Timeout time.Duration `yaml:"timeout"`

	PostgresDSN      string `yaml:"postgres_dsn"`
	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     string `yaml:"postgres_port"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresName     string `yaml:"postgres_name"`
	SQLitePath       string `yaml:"sqlite_path"`

	DynamoTable    string `yaml:"dynamo_table"`
	DynamoEndpoint string `yaml:"dynamo_endpoint"`
	AWSRegion      string `yaml:"aws_region"`
}

type RedisConfig struct {
	Addr        string `yaml:"addr"`
	ChatChannel string `yaml:"chat_channel"`
}

type ActivityConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

type OtelConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Version     string  `yaml:"version"`
	Endpoint    string  `yaml:"endpoint"`
	Headers     string  `yaml:"headers"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type Config struct {
	HTTPAddr       string   `yaml:"http_addr"`
	LogMode        string   `yaml:"log_mode"`
	Stage          string   `yaml:"stage"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	AuthUserHeader string   `yaml:"auth_user_header"`

	// ProgressCASAttempts bounds the progress transaction retries after a lost race.
	ProgressCASAttempts int `yaml:"progress_cas_attempts"`

	Store    StoreConfig    `yaml:"store"`
	Redis    RedisConfig    `yaml:"redis"`
	Activity ActivityConfig `yaml:"activity"`
	Otel     OtelConfig     `yaml:"otel"`
}

func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":8080",
		LogMode:             "development",
		Stage:               "dev",
		AllowedOrigins:      []string{"*"},
		AuthUserHeader:      "X-User-Id",
		ProgressCASAttempts: 3,
		Store: StoreConfig{
			Driver:       db.DriverSQLite,
			Timeout:      5 * time.Second,
			PostgresPort: "5432",
			SQLitePath:   "lessons.db",
		},
		Redis:    RedisConfig{ChatChannel: "lesson_chat"},
		Activity: ActivityConfig{Workers: 2, QueueSize: 256},
		Otel:     OtelConfig{ServiceName: "neurobridge-lessons", SampleRatio: 0.1},
	}
}

// LoadConfig layers defaults, the optional YAML file at path, and the
// environment, in that order.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.HTTPAddr = envutil.String("HTTP_ADDR", c.HTTPAddr)
	c.LogMode = envutil.String("LOG_MODE", c.LogMode)
	c.Stage = envutil.String("STAGE", c.Stage)
	c.AllowedOrigins = envutil.List("ALLOWED_ORIGINS", c.AllowedOrigins)
	c.AuthUserHeader = envutil.String("AUTH_USER_HEADER", c.AuthUserHeader)
	c.ProgressCASAttempts = envutil.Int("PROGRESS_CAS_ATTEMPTS", c.ProgressCASAttempts)

	s := &c.Store
	s.Driver = strings.ToLower(envutil.String("STORE_DRIVER", s.Driver))
	s.Timeout = envutil.Duration("STORE_TIMEOUT", s.Timeout)
	s.PostgresDSN = envutil.String("POSTGRES_DSN", s.PostgresDSN)
	s.PostgresHost = envutil.String("POSTGRES_HOST", s.PostgresHost)
	s.PostgresPort = envutil.String("POSTGRES_PORT", s.PostgresPort)
	s.PostgresUser = envutil.String("POSTGRES_USER", s.PostgresUser)
	s.PostgresPassword = envutil.String("POSTGRES_PASSWORD", s.PostgresPassword)
	s.PostgresName = envutil.String("POSTGRES_NAME", s.PostgresName)
	s.SQLitePath = envutil.String("SQLITE_PATH", s.SQLitePath)
	s.DynamoTable = envutil.String("DYNAMO_TABLE", envutil.String("COURSES_TABLE_NAME", s.DynamoTable))
	s.DynamoEndpoint = envutil.String("DYNAMO_ENDPOINT", s.DynamoEndpoint)
	s.AWSRegion = envutil.String("AWS_REGION", s.AWSRegion)

	c.Redis.Addr = envutil.String("REDIS_ADDR", c.Redis.Addr)
	c.Redis.ChatChannel = envutil.String("REDIS_CHAT_CHANNEL", c.Redis.ChatChannel)

	c.Activity.Workers = envutil.Int("ACTIVITY_WORKERS", c.Activity.Workers)
	c.Activity.QueueSize = envutil.Int("ACTIVITY_QUEUE_SIZE", c.Activity.QueueSize)

	o := &c.Otel
	o.Enabled = envutil.Bool("OTEL_ENABLED", o.Enabled)
	o.ServiceName = envutil.String("OTEL_SERVICE_NAME", o.ServiceName)
	o.Version = envutil.String("SERVICE_VERSION", o.Version)
	o.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", o.Endpoint)
	o.Headers = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", o.Headers)
	o.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", o.Insecure)
	if raw := envutil.String("OTEL_TRACES_SAMPLER_ARG", ""); raw != "" {
		if ratio, err := strconv.ParseFloat(raw, 64); err == nil {
			o.SampleRatio = ratio
		}
	}
}

func (c Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case db.DriverPostgres, db.DriverSQLite:
	case DriverDynamo:
		if strings.TrimSpace(c.Store.DynamoTable) == "" {
			errs = append(errs, errors.New("store: DYNAMO_TABLE is required for the dynamodb driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("store: unknown driver %q", c.Store.Driver))
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, errors.New("http_addr is required"))
	}
	if c.ProgressCASAttempts < 1 {
		errs = append(errs, errors.New("progress_cas_attempts must be >= 1"))
	}
	if c.Activity.Workers < 1 || c.Activity.QueueSize < 1 {
		errs = append(errs, errors.New("activity workers and queue_size must be >= 1"))
	}
	return errors.Join(errs...)
}

func (s StoreConfig) DBOptions() db.Options {
	return db.Options{
		Driver:           s.Driver,
		DSN:              s.PostgresDSN,
		PostgresHost:     s.PostgresHost,
		PostgresPort:     s.PostgresPort,
		PostgresUser:     s.PostgresUser,
		PostgresPassword: s.PostgresPassword,
		PostgresName:     s.PostgresName,
		SQLitePath:       s.SQLitePath,
	}
}
