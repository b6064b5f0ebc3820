package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServerPort string `envconfig:"SERVER_PORT" default:"8080"`
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"skillswap"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"skillswap_dev_password"`
	DBName     string `envconfig:"DB_NAME" default:"skillswap"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	JWTSecret  string `envconfig:"JWT_SECRET" default:"dev-secret-change-me"`
	CORSOrigin string `envconfig:"CORS_ORIGIN" default:"*"`
}

// DatabaseURL builds the postgres connection string from the DB_* fields.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}
