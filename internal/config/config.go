package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	defaultDSN         = "host=localhost user=postgres password=postgres dbname=directory port=5432 sslmode=disable"
	defaultCORSOrigins = "http://localhost:5173"
)

type Config struct {
	HTTPPort    string        `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseDSN string        `env:"DATABASE_DSN" envDefault:"host=localhost user=postgres password=postgres dbname=directory port=5432 sslmode=disable"`
	JWTSecret   string        `env:"JWT_SECRET"`
	JWTTTL      time.Duration `env:"JWT_TTL" envDefault:"24h"`
	CORSOrigins string        `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // json | console

	ImageRoot  string `env:"IMAGE_ROOT" envDefault:"./images"` // category folders (branch/, brand/) live under this root
	ImageMaxKB int64  `env:"IMAGE_MAX_KB" envDefault:"2048"`

	Storage StorageConfig `envPrefix:"STORAGE_"`

	CurrencyAPIURL   string `env:"CURRENCY_API_URL" envDefault:"https://openexchangerates.org/api/currencies.json"`
	CurrencyAppID    string `env:"OPENEXCHANGERATES_APP_ID"`
	CurrencySyncCron string `env:"CURRENCY_SYNC_CRON" envDefault:"0 0 3 * * *"`

	BlockUsersCron string        `env:"BLOCK_USERS_CRON" envDefault:"0 30 3 * * *"`
	BlockAfter     time.Duration `env:"BLOCK_AFTER" envDefault:"72h"`

	SeedRegions bool `env:"SEED_REGIONS" envDefault:"true"`
}

// StorageConfig left empty means images are written to the local disk.
type StorageConfig struct {
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Region    string `env:"REGION" envDefault:"us-east-1"`
	Bucket    string `env:"BUCKET" envDefault:"directory-images"`
}

func (s StorageConfig) Enabled() bool {
	return s.Endpoint != "" && s.AccessKey != "" && s.SecretKey != ""
}

// Parse reads the environment (and a .env file when present) without exiting.
func Parse() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	if c.ImageMaxKB <= 0 {
		return errors.New("IMAGE_MAX_KB must be positive")
	}
	return nil
}

func Load() *Config {
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("[FATAL] config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}

	if cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN uses the default value, set your own Postgres DSN in production.")
	}
	if cfg.CORSOrigins == defaultCORSOrigins {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS uses the default value, set your own domain in production.")
	}
	if cfg.CurrencyAppID == "" {
		log.Println("[WARN] OPENEXCHANGERATES_APP_ID is empty, currency sync requests will be rejected upstream.")
	}

	return cfg
}
