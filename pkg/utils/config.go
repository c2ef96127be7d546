package utils

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Gateway  GatewayConfig
	Metrics  MetricsConfig
	Billing  BillingConfig
}

type AppConfig struct {
	Name           string
	Port           string
	Debug          bool
	LogPath        string
	BaseURL        string
	FrontendURL    string
	Timezone       string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	MaxConns    int32
	AutoMigrate bool
}

type RedisConfig struct {
	URL string
}

type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// GatewayConfig holds the SSLCommerz store credentials. Read once at startup.
type GatewayConfig struct {
	StoreID       string
	StorePassword string
	IsLive        bool
	Currency      string
}

type MetricsConfig struct {
	Enabled bool
}

type BillingConfig struct {
	InitRateLimit       int
	InitRateLimitWindow int // minutes
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("APP_NAME", "roadside-assist")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("APP_BASE_URL", "http://localhost:8080")
	viper.SetDefault("FRONTEND_URL", "http://localhost:3000")
	viper.SetDefault("BUSINESS_TIMEZONE", "Asia/Dhaka")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("DB_AUTO_MIGRATE", false)
	viper.SetDefault("RABBITMQ_EXCHANGE", "roadside.notifications")
	viper.SetDefault("SSLCOMMERZ_IS_LIVE", false)
	viper.SetDefault("SSLCOMMERZ_CURRENCY", "BDT")
	viper.SetDefault("METRICS_ENABLED", true)
	viper.SetDefault("PAYMENT_INIT_RATE_LIMIT", 10)
	viper.SetDefault("PAYMENT_INIT_RATE_WINDOW_MINUTES", 60)

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:           viper.GetString("APP_NAME"),
			Port:           viper.GetString("PORT"),
			Debug:          viper.GetBool("DEBUG"),
			LogPath:        viper.GetString("LOG_PATH"),
			BaseURL:        strings.TrimRight(viper.GetString("APP_BASE_URL"), "/"),
			FrontendURL:    strings.TrimRight(viper.GetString("FRONTEND_URL"), "/"),
			Timezone:       viper.GetString("BUSINESS_TIMEZONE"),
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:        viper.GetString("DB_HOST"),
			Port:        viper.GetString("DB_PORT"),
			Name:        viper.GetString("DB_NAME"),
			User:        viper.GetString("DB_USER"),
			Password:    viper.GetString("DB_PASS"),
			MaxConns:    viper.GetInt32("DB_MAX_CONNS"),
			AutoMigrate: viper.GetBool("DB_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			URL: viper.GetString("REDIS_URL"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      viper.GetString("RABBITMQ_URL"),
			Exchange: viper.GetString("RABBITMQ_EXCHANGE"),
		},
		Gateway: GatewayConfig{
			StoreID:       viper.GetString("SSLCOMMERZ_STORE_ID"),
			StorePassword: viper.GetString("SSLCOMMERZ_STORE_PASSWORD"),
			IsLive:        viper.GetBool("SSLCOMMERZ_IS_LIVE"),
			Currency:      viper.GetString("SSLCOMMERZ_CURRENCY"),
		},
		Metrics: MetricsConfig{
			Enabled: viper.GetBool("METRICS_ENABLED"),
		},
		Billing: BillingConfig{
			InitRateLimit:       viper.GetInt("PAYMENT_INIT_RATE_LIMIT"),
			InitRateLimitWindow: viper.GetInt("PAYMENT_INIT_RATE_WINDOW_MINUTES"),
		},
	}

	if config.Gateway.IsLive && (config.Gateway.StoreID == "" || config.Gateway.StorePassword == "") {
		return nil, fmt.Errorf("SSLCOMMERZ_STORE_ID and SSLCOMMERZ_STORE_PASSWORD are required when SSLCOMMERZ_IS_LIVE=true")
	}

	return config, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
