// Package config reads worker settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	ProviderS3    = "s3"
	ProviderMinio = "minio"
)

type (
	Config struct {
		LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
		LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

		StorageProvider string `env:"STORAGE_PROVIDER" envDefault:"s3"`
		DBURL           string `env:"DB_URL,required"`
		Workers         int    `env:"WORKERS" envDefault:"3"`
		HTTPPort        string `env:"HTTP_PORT" envDefault:"8080"`

		S3       S3Config       `envPrefix:"S3_"`
		Minio    MinioConfig    `envPrefix:"MINIO_"`
		RabbitMQ RabbitMQConfig `envPrefix:"RABBITMQ_"`
	}

	// S3Config covers AWS S3 and S3-compatible services such as R2.
	S3Config struct {
		Endpoint     string `env:"ENDPOINT"`
		Region       string `env:"REGION" envDefault:"auto"`
		AccessKey    string `env:"ACCESS_KEY"`
		SecretKey    string `env:"SECRET_KEY"`
		UsePathStyle bool   `env:"PATH_STYLE" envDefault:"false"`
	}

	MinioConfig struct {
		Endpoint  string `env:"ENDPOINT"`
		AccessKey string `env:"ACCESS_KEY"`
		SecretKey string `env:"SECRET_KEY"`
		UseSSL    bool   `env:"USE_SSL" envDefault:"true"`
	}

	// RabbitMQConfig names the exchange the object store publishes bucket
	// notifications to and the queue the workers consume.
	RabbitMQConfig struct {
		URL          string `env:"URL,required"`
		Exchange     string `env:"EXCHANGE" envDefault:"bucketevents"`
		ExchangeType string `env:"EXCHANGE_TYPE" envDefault:"fanout"`
		Queue        string `env:"QUEUE" envDefault:"thumbnails"`
		RoutingKey   string `env:"ROUTING_KEY" envDefault:"bucketlogs"`
	}
)

// Load reads .env files, then the environment. A missing file is skipped; a
// malformed one is an error.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read .env error: %w", err)
	}
	return Parse()
}

func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("read config error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StorageProvider {
	case ProviderS3:
	case ProviderMinio:
		if c.Minio.Endpoint == "" {
			return fmt.Errorf("empty MINIO_ENDPOINT with STORAGE_PROVIDER=minio")
		}
	default:
		return fmt.Errorf("unknown STORAGE_PROVIDER %q", c.StorageProvider)
	}
	if c.Workers < 1 {
		return fmt.Errorf("WORKERS must be at least 1, got %d", c.Workers)
	}
	return nil
}
