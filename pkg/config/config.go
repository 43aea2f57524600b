package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var Empty = new(Config)

// Storage drivers accepted by DB_DRIVER.
const (
	DriverMongoDB  = "mongodb"
	DriverPostgres = "postgres"
	DriverDynamoDB = "dynamodb"
	DriverMemory   = "memory"
)

type Config struct {
	AppEnv       string  `envconfig:"APP_ENV" default:"local"`
	Port         int     `envconfig:"PORT" default:"8080"`
	SentryDSN    string  `envconfig:"SENTRY_DSN"`
	AllowOrigins string  `envconfig:"ALLOW_ORIGINS" default:"*"`
	RateLimit    float64 `envconfig:"RATE_LIMIT" default:"20"`

	DB struct {
		Driver      string `envconfig:"DB_DRIVER" default:"mongodb"`
		LazyConnect bool   `envconfig:"DB_LAZY_CONNECT"`
		Name        string `envconfig:"DB_NAME"`
		Host        string `envconfig:"DB_HOST"`
		Port        int    `envconfig:"DB_PORT"`
		User        string `envconfig:"DB_USER"`
		Pass        string `envconfig:"DB_PASS"`
		EnableSSL   bool   `envconfig:"ENABLE_SSL"`
	}
	Mongo struct {
		URI        string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
		Database   string `envconfig:"MONGO_DB_NAME" default:"movieDB"`
		Collection string `envconfig:"MONGO_COLLECTION" default:"movies"`
	}
	DynamoDB struct {
		Region       string `envconfig:"DDB_REGION"`
		Endpoint     string `envconfig:"DDB_ENDPOINT"`
		AccessKey    string `envconfig:"DDB_ACCESS_KEY"`
		SecretKey    string `envconfig:"DDB_SECRET_KEY"`
		SessionToken string `envconfig:"DDB_SESSION_TOKEN"`
		MoviesTable  string `envconfig:"DDB_MOVIES_TABLE" default:"movies"`
	}
}

func LoadConfig() (*Config, error) {
	// load default .env file, ignore the error
	_ = godotenv.Load()

	cfg := new(Config)
	err := envconfig.Process("", cfg)
	if err != nil {
		return nil, fmt.Errorf("load config error: %v", err)
	}

	switch cfg.DB.Driver {
	case DriverMongoDB, DriverPostgres, DriverDynamoDB, DriverMemory:
	default:
		return nil, fmt.Errorf("load config error: unknown DB_DRIVER %q", cfg.DB.Driver)
	}

	return cfg, nil
}
