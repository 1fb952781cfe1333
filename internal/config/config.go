package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	PosAPI   ServiceConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Static   StaticConfig
	Features FeatureFlags
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ServiceConfig points at the remote POS core API, the sole source of
// truth for accounts, splits and payments.
type ServiceConfig struct {
	BaseURL string
	Timeout time.Duration
	APIKey  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers       []string
	PaymentsTopic string
	ConfigTopic   string
	ConsumerGroup string
}

// StaticConfig locates the browser assets the terminal serves alongside
// its API.
type StaticConfig struct {
	Dir string
}

type FeatureFlags struct {
	EnablePaymentEvents bool
	EnableConfigCache   bool
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnvInt("SERVER_PORT", 3001),
			ReadTimeout:  time.Duration(getEnvInt("SERVER_READ_TIMEOUT", 30)) * time.Second,
			WriteTimeout: time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT", 30)) * time.Second,
		},
		PosAPI: ServiceConfig{
			BaseURL: getEnvString("POS_API_URL", "http://localhost:4000/api"),
			Timeout: time.Duration(getEnvInt("POS_API_TIMEOUT", 30)) * time.Second,
			APIKey:  getEnvString("POS_API_KEY", ""),
		},
		Redis: RedisConfig{
			Host:     getEnvString("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:       getEnvList("KAFKA_BROKERS", "localhost:9092"),
			PaymentsTopic: getEnvString("KAFKA_PAYMENTS_TOPIC", "pos.payments"),
			ConfigTopic:   getEnvString("KAFKA_CONFIG_TOPIC", "pos.config-updates"),
			ConsumerGroup: getEnvString("KAFKA_CONSUMER_GROUP", "payments-terminal"),
		},
		Static: StaticConfig{
			Dir: getEnvString("STATIC_DIR", "./public"),
		},
		Features: FeatureFlags{
			EnablePaymentEvents: getEnvBool("ENABLE_PAYMENT_EVENTS", true),
			EnableConfigCache:   getEnvBool("ENABLE_CONFIG_CACHE", true),
		},
	}
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvList(key, defaultValue string) []string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
