package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/aretw0/storyline/pkg/domain"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no --config is given.
const DefaultFile = "storyline.yaml"

// EnvPrefix prefixes every environment override, e.g. STORYLINE_STORE_DRIVER.
const EnvPrefix = "STORYLINE_"

// Supported progress store drivers.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverFile     = "file"
)

// Config is the whole runtime configuration.
type Config struct {
	StoryFile string        `yaml:"story_file" env:"STORY_FILE"`
	Timeout   time.Duration `yaml:"timeout" env:"TIMEOUT"`
	Log       LogConfig     `yaml:"log" envPrefix:"LOG_"`
	Store     StoreConfig   `yaml:"store" envPrefix:"STORE_"`
	HTTP      HTTPConfig    `yaml:"http" envPrefix:"HTTP_"`
	MQTT      MQTTConfig    `yaml:"mqtt" envPrefix:"MQTT_"`
	// Locking serializes progress reads and writes per reader. With the redis
	// driver the lock is shared across processes.
	Locking bool `yaml:"locking" env:"LOCKING"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

type StoreConfig struct {
	Driver   string         `yaml:"driver" env:"DRIVER"`
	Redis    RedisConfig    `yaml:"redis" envPrefix:"REDIS_"`
	Postgres PostgresConfig `yaml:"postgres" envPrefix:"POSTGRES_"`
	SQLite   SQLiteConfig   `yaml:"sqlite" envPrefix:"SQLITE_"`
	File     FileConfig     `yaml:"file" envPrefix:"FILE_"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"ADDR"`
	Password string        `yaml:"password" env:"PASSWORD"`
	DB       int           `yaml:"db" env:"DB"`
	Prefix   string        `yaml:"prefix" env:"PREFIX"`
	TTL      time.Duration `yaml:"ttl" env:"TTL"`
}

// PostgresConfig mirrors the database block of the bot config. Port is
// optional; zero lets libpq use its default.
type PostgresConfig struct {
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	Username string `yaml:"username" env:"USERNAME"`
	Password string `yaml:"password" env:"PASSWORD"`
	Database string `yaml:"database" env:"DATABASE"`
	SSLMode  string `yaml:"sslmode" env:"SSLMODE"`
}

type SQLiteConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

type FileConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr" env:"ADDR"`
}

// MQTTConfig enables lifecycle event publishing when Broker is set.
type MQTTConfig struct {
	Broker   string `yaml:"broker" env:"BROKER"`
	Topic    string `yaml:"topic" env:"TOPIC"`
	ClientID string `yaml:"client_id" env:"CLIENT_ID"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Timeout: domain.DefaultChoiceTimeout,
		Log:     LogConfig{Level: "info", Format: "text"},
		Store: StoreConfig{
			Driver: DriverMemory,
			Redis:  RedisConfig{Addr: "localhost:6379", Prefix: "storyline:progress:"},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Database: "storyline",
				SSLMode:  "disable",
			},
			SQLite: SQLiteConfig{Path: "storyline.db"},
			File:   FileConfig{Path: "progress.json"},
		},
		HTTP: HTTPConfig{Addr: ":8080"},
		MQTT: MQTTConfig{Topic: "storyline/events", ClientID: "storyline"},
	}
}

// Load builds the configuration in layers: defaults, then the YAML file, then
// .env and STORYLINE_* environment variables.
//
// An empty path means DefaultFile, which may be absent. An explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// loadDotEnv loads a .env file when present. Variables already set win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Validate rejects settings the program cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	switch c.Store.Driver {
	case DriverMemory, DriverRedis, DriverPostgres, DriverSQLite, DriverFile:
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	if c.Store.Driver == DriverPostgres && c.Store.Postgres.Database == "" {
		errs = append(errs, errors.New("store.postgres.database is required"))
	}
	if c.Store.Postgres.Port < 0 || c.Store.Postgres.Port > 65535 {
		errs = append(errs, fmt.Errorf("store.postgres.port out of range: %d", c.Store.Postgres.Port))
	}
	return errors.Join(errs...)
}
