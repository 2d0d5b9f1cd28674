package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// KafkaConfig holds Kafka broker settings.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// JWTConfig holds token verification settings.
type JWTConfig struct {
	Secret string
}

// ServiceConfig holds all configuration for the loyalty service.
type ServiceConfig struct {
	Port               string
	AppEnv             string
	DBConfig           DatabaseConfig
	KafkaConfig        KafkaConfig
	JWTConfig          JWTConfig
	TokenValidity      time.Duration
	ScanDebounce       time.Duration
	MockScannerPayload string
}

// Load reads configuration from environment variables and returns a ServiceConfig.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVICE_PORT", ":8084")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "loyalty")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "punchly-")
	v.SetDefault("JWT_SECRET", "dev-secret-change-me")
	v.SetDefault("REDEMPTION_TOKEN_VALIDITY", "5m")
	v.SetDefault("SCAN_DEBOUNCE_WINDOW", "2s")
	v.SetDefault("MOCK_SCANNER_PAYLOAD", "")

	port := v.GetString("SERVICE_PORT")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	tokenValidity, err := time.ParseDuration(v.GetString("REDEMPTION_TOKEN_VALIDITY"))
	if err != nil {
		return nil, err
	}
	scanDebounce, err := time.ParseDuration(v.GetString("SCAN_DEBOUNCE_WINDOW"))
	if err != nil {
		return nil, err
	}

	return &ServiceConfig{
		Port:   port,
		AppEnv: v.GetString("APP_ENV"),
		DBConfig: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		KafkaConfig: KafkaConfig{
			Brokers:     strings.Split(v.GetString("KAFKA_BROKERS"), ","),
			GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
		},
		JWTConfig: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
		},
		TokenValidity:      tokenValidity,
		ScanDebounce:       scanDebounce,
		MockScannerPayload: v.GetString("MOCK_SCANNER_PAYLOAD"),
	}, nil
}
