package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	pkglogger "github.com/quillforum/quill-backend/pkg/logger"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration, loaded from a YAML file
// with environment variable overrides on secrets and connection settings.
type Config struct {
	App         AppConfig         `yaml:"app"`
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Storage     StorageConfig     `yaml:"storage"`
	JWT         JWTConfig         `yaml:"jwt"`
	CORS        CORSConfig        `yaml:"cors"`
	SideEffects SideEffectsConfig `yaml:"side_effects"`
}

type AppConfig struct {
	Env string `yaml:"env"` // local, development, production
	// SiteHost is the public host the frontend is served from. Links to
	// documents on this host count as internal for pingback extraction.
	SiteHost string `yaml:"site_host"`
}

type ServerConfig struct {
	Port         int `yaml:"port"`
	ReadTimeout  int `yaml:"read_timeout"`  // seconds
	WriteTimeout int `yaml:"write_timeout"` // seconds
}

type DatabaseConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Name            string `yaml:"name"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // seconds
}

// GetDSN builds the MySQL DSN
func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type StorageConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	CDNURL          string `yaml:"cdn_url"`
	BasePath        string `yaml:"base_path"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
}

type JWTConfig struct {
	Secret    string        `yaml:"secret"`
	ExpiresIn time.Duration `yaml:"expires_in"`
}

type CORSConfig struct {
	AllowOrigins string `yaml:"allow_origins"` // comma separated
}

type SideEffectsConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

// Load reads the YAML config file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// No file is fine; env vars and defaults carry the config.
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		App:    AppConfig{Env: "local", SiteHost: "localhost:3000"},
		Server: ServerConfig{Port: 8082, ReadTimeout: 15, WriteTimeout: 30},
		Database: DatabaseConfig{
			Host: "127.0.0.1", Port: 3306, User: "quill", Name: "quill",
			MaxIdleConns: 10, MaxOpenConns: 50, ConnMaxLifetime: 300,
		},
		Redis:       RedisConfig{Host: "127.0.0.1", Port: 6379, PoolSize: 10},
		JWT:         JWTConfig{ExpiresIn: 24 * time.Hour},
		SideEffects: SideEffectsConfig{Workers: 4, QueueSize: 256},
	}
}

func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.App.Env, "APP_ENV")
	setStr(&cfg.App.SiteHost, "SITE_HOST")
	setInt(&cfg.Server.Port, "PORT")
	setStr(&cfg.Database.Host, "DB_HOST")
	setInt(&cfg.Database.Port, "DB_PORT")
	setStr(&cfg.Database.User, "DB_USER")
	setStr(&cfg.Database.Password, "DB_PASSWORD")
	setStr(&cfg.Database.Name, "DB_NAME")
	setStr(&cfg.Redis.Host, "REDIS_HOST")
	setInt(&cfg.Redis.Port, "REDIS_PORT")
	setStr(&cfg.Redis.Password, "REDIS_PASSWORD")
	setStr(&cfg.JWT.Secret, "JWT_SECRET")
	setStr(&cfg.Storage.Endpoint, "S3_ENDPOINT")
	setStr(&cfg.Storage.AccessKeyID, "S3_ACCESS_KEY_ID")
	setStr(&cfg.Storage.SecretAccessKey, "S3_SECRET_ACCESS_KEY")
	setStr(&cfg.Storage.Bucket, "S3_BUCKET")
	setStr(&cfg.Storage.CDNURL, "S3_CDN_URL")
	setStr(&cfg.CORS.AllowOrigins, "CORS_ALLOW_ORIGINS")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// IsDevelopment reports whether the app runs in a development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "local" || c.App.Env == "development" || c.App.Env == "dev"
}

// LogResolved logs the non-secret parts of the resolved configuration.
func LogResolved(cfg *Config) {
	pkglogger.Info("config: env=%s site_host=%s port=%d db=%s@%s:%d/%s redis=%s:%d storage=%v",
		cfg.App.Env, cfg.App.SiteHost, cfg.Server.Port,
		cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name,
		cfg.Redis.Host, cfg.Redis.Port, cfg.Storage.Enabled)
}
