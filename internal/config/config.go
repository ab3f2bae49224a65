// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Драйверы хранилища каталога и заказов.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverBolt     = "bolt"
)

// Брокеры для уведомлений о заказах.
const (
	BrokerRabbitMQ = "rabbitmq"
	BrokerKafka    = "kafka"
)

// Config общая структура для хранения настроек
type Config struct {
	Env             string `yaml:"env" env:"ENV" env-default:"local"`
	Storage         `yaml:"storage"`
	RedisConnection `yaml:"redis_connection"`
	HTTPServer      `yaml:"http_server"`
	JWTToken        `yaml:"jwttoken"`
	Admin           `yaml:"admin"`
	Notifications   `yaml:"notifications"`
	RabbitMQ        `yaml:"rabbitmq"`
	Kafka           `yaml:"kafka"`
	SMTP            `yaml:"smtp"`
}

// Storage структура для выбора и настройки хранилища
type Storage struct {
	Driver                  string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
	StorageConnectionString string `yaml:"connection_string" env:"STORAGE_CONNECTION_STRING"`
	BoltPath                string `yaml:"bolt_path" env:"BOLT_PATH" env-default:"./storefront.db"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:"0.0.0.0:5000"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
	CatalogTTL   time.Duration `yaml:"catalog_ttl" env-default:"1m"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// Admin учётные данные администратора, создаваемого при старте.
type Admin struct {
	AdminUsername string `yaml:"username" env:"ADMIN_USERNAME" env-default:"admin"`
	AdminPassword string `yaml:"password" env:"ADMIN_PASSWORD"`
}

// Notifications настройки подтверждений заказов.
type Notifications struct {
	Broker     string   `yaml:"broker" env:"NOTIFICATIONS_BROKER" env-default:"rabbitmq"`
	Recipients []string `yaml:"recipients" env:"NOTIFICATIONS_RECIPIENTS" env-separator:","`
}

// RabbitMQ структура для подключения к брокеру
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// Kafka структура для подключения к kafka
type Kafka struct {
	KafkaBrokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	KafkaTopic   string   `yaml:"topic" env-default:"order.confirmed"`
	KafkaGroupID string   `yaml:"group_id" env-default:"notification-sender"`
}

// SMTP структура для отправки писем
type SMTP struct {
	SMTPHost string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `yaml:"user" env:"SMTP_USER"`
	SMTPPass string `yaml:"pass" env:"SMTP_PASS"`
}

// MustLoad функция для загрузки конфига, возвращает конфиг, сгенерированный из config/config.go
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

// Load читает конфиг по указанному пути и проверяет его.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Driver {
	case StorageDriverPostgres:
		if c.StorageConnectionString == "" {
			return fmt.Errorf("storage.connection_string is required for driver %q", c.Driver)
		}
	case StorageDriverBolt:
		if c.BoltPath == "" {
			return fmt.Errorf("storage.bolt_path is required for driver %q", c.Driver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Driver)
	}
	switch c.Broker {
	case BrokerRabbitMQ, BrokerKafka:
	default:
		return fmt.Errorf("unknown notifications broker %q", c.Broker)
	}
	if c.JWTSecretKey == "" {
		return fmt.Errorf("jwttoken.jwt_secret_key is required")
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Storage:\n"+
			"  Driver: %s\n"+
			"  BoltPath: %s\n"+
			"  MigrationsPath: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"  CatalogTTL: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  TokenTTL: %s\n"+
			"Notifications:\n"+
			"  Broker: %s\n"+
			"  Recipients: %v\n",
		c.Env,
		c.Driver,
		c.BoltPath,
		c.MigrationsPath,
		c.AddressRedis,
		c.DB,
		c.CatalogTTL,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.TokenTTL,
		c.Broker,
		c.Recipients,
	)
}
