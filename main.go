package main

import (
	"context"
	"log"
	"time"

	"roadside-assist/cmd"
	"roadside-assist/internal/data/repository"
	"roadside-assist/internal/wire"
	"roadside-assist/pkg/database"
	"roadside-assist/pkg/metrics"
	"roadside-assist/pkg/rabbitmq"
	"roadside-assist/pkg/ratelimit"
	"roadside-assist/pkg/sslcommerz"
	"roadside-assist/pkg/utils"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real environments set variables directly
	_ = godotenv.Load()

	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(config.App.LogPath, config.App.Name, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
		zap.Bool("gateway_live", config.Gateway.IsLive),
	)
	if !config.Gateway.IsLive {
		logger.Warn("PAYMENT GATEWAY IS IN SANDBOX MODE: IPN signature mismatches are logged but accepted. Set SSLCOMMERZ_IS_LIVE=true in production.")
	}

	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if config.Database.AutoMigrate {
		if err := database.Migrate(config.Database); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
		logger.Info("Migrations applied")
	}

	infra := wire.Infra{
		Gateway: sslcommerz.NewClient(sslcommerz.Config{
			StoreID:       config.Gateway.StoreID,
			StorePassword: config.Gateway.StorePassword,
			IsLive:        config.Gateway.IsLive,
		}),
	}

	if config.Redis.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		client, err := ratelimit.NewRedisClient(ctx, config.Redis.URL)
		cancel()
		if err != nil {
			logger.Warn("Redis unavailable, payment init is not rate limited", zap.Error(err))
		} else {
			defer client.Close()
			infra.Limiter = ratelimit.NewRedisLimiter(client, "")
		}
	}

	if config.RabbitMQ.URL != "" {
		producer, err := rabbitmq.NewEventProducer(config.RabbitMQ.URL, config.RabbitMQ.Exchange)
		if err != nil {
			logger.Warn("RabbitMQ unavailable, notification events will not be published", zap.Error(err))
		} else {
			defer producer.Close()
			infra.Publisher = producer
		}
	}

	if config.Metrics.Enabled {
		infra.Metrics = metrics.New()
	}

	repos := repository.NewRepository(db, logger)

	app := wire.Wiring(repos, config, infra, logger)

	cmd.APIServer(app.Router, config.App.Port, logger)
}
