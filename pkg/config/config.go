package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StoreDynamoDB = "dynamodb"
	StoreMongo    = "mongo"
	StoreMemory   = "memory"
)

type Config struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"dynamodb"`
	LocalMode   bool   `envconfig:"LOCAL_MODE" default:"false"` // in-memory store, no AWS or Mongo needed

	AWSRegion        string `envconfig:"AWS_REGION" default:"ap-northeast-2"`
	DynamoDBEndpoint string `envconfig:"DYNAMODB_ENDPOINT"` // DynamoDB Local only
	ProductTableName string `envconfig:"PRODUCT_TABLE_NAME" default:"products"`

	MongoURI        string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase   string `envconfig:"MONGO_DATABASE" default:"catalog"`
	MongoCollection string `envconfig:"MONGO_COLLECTION" default:"products"`

	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogDevelopment bool   `envconfig:"LOG_DEVELOPMENT" default:"false"`

	KafkaEnabled bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"product-events"`

	TLSEnabled      bool   `envconfig:"TLS_ENABLED" default:"false"`
	SpireSocketPath string `envconfig:"SPIRE_SOCKET_PATH" default:"unix:///run/spire/sockets/agent.sock"`
}

// Load reads an optional .env file, then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}

	switch c.Store() {
	case StoreDynamoDB:
		if c.ProductTableName == "" {
			return fmt.Errorf("product table name is required for dynamodb")
		}
		if c.AWSRegion == "" {
			return fmt.Errorf("aws region is required for dynamodb")
		}
	case StoreMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" || c.MongoCollection == "" {
			return fmt.Errorf("mongo uri, database and collection are required for mongo")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("invalid store driver: %s (must be dynamodb, mongo, or memory)", c.StoreDriver)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("kafka brokers are required when kafka is enabled")
		}
		if c.KafkaTopic == "" {
			return fmt.Errorf("kafka topic is required when kafka is enabled")
		}
	}

	if c.TLSEnabled && c.SpireSocketPath == "" {
		return fmt.Errorf("spire socket path is required when tls is enabled")
	}

	return nil
}

// Store resolves the backing store; LOCAL_MODE overrides STORE_DRIVER.
func (c *Config) Store() string {
	if c.LocalMode {
		return StoreMemory
	}
	return c.StoreDriver
}

func (c *Config) Address() string {
	return ":" + c.Port
}
