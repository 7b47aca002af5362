package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/jewan100/message-queue-study/internal/api/client"
	"github.com/jewan100/message-queue-study/internal/api/handler"
	"github.com/jewan100/message-queue-study/internal/api/queue"
	"github.com/jewan100/message-queue-study/internal/api/router"
	"github.com/jewan100/message-queue-study/internal/api/service"
	"github.com/jewan100/message-queue-study/internal/api/storage"
	"github.com/jewan100/message-queue-study/internal/config"
	"github.com/jewan100/message-queue-study/internal/executor"
	"github.com/jewan100/message-queue-study/shared/kafka"
	"github.com/jewan100/message-queue-study/shared/logger"
	"github.com/jewan100/message-queue-study/shared/postgresql"
	"github.com/jewan100/message-queue-study/shared/rabbitmq"
	"github.com/jewan100/message-queue-study/shared/redis"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("API_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/api-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting API service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
		slog.String("queue_transport", cfg.Queue.Transport),
	)

	// Initialize PostgreSQL client
	dbClient, err := initPostgreSQL(&cfg.Database, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbClient.Close()

	appLogger.Info("Database connection established")

	// Initialize the configured queue transport
	transport, closeTransport, err := initTransport(cfg, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize queue transport: %w", err)
	}
	defer closeTransport()

	// Initialize worker RPC clients
	workerCfg := &client.Config{
		BaseURL:        cfg.OcrWorker.BaseURL,
		Nodes:          cfg.OcrWorker.Nodes,
		PredictPath:    cfg.OcrWorker.PredictPath,
		ConnectTimeout: cfg.OcrWorker.ConnectTimeout,
		ReadTimeout:    cfg.OcrWorker.ReadTimeout,
	}

	dispatcher, err := client.NewRoundRobinClient(workerCfg, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize worker dispatcher: %w", err)
	}
	singleClient := client.NewWorkerClient(workerCfg, appLogger.Logger)

	// Initialize the async prediction pool
	pool := executor.NewPool(&executor.Config{
		Logger:  appLogger.Logger,
		Workers: cfg.Executor.Workers,
		Backlog: cfg.Executor.Backlog,
	})
	defer pool.Shutdown()

	// Wire the OCR service
	store := storage.NewStorage(dbClient, appLogger.Logger)
	ocrService := service.NewOcrService(&service.Config{
		Logger:       appLogger.Logger,
		Store:        store,
		Transport:    transport,
		Dispatcher:   dispatcher,
		SingleClient: singleClient,
	})

	// Initialize router
	r := initRouter(cfg.App.Environment, appLogger.Logger, ocrService, pool)

	// Create HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	appLogger.Info("Starting HTTP server",
		slog.String("address", addr),
		slog.Duration("read_timeout", cfg.Server.ReadTimeout),
		slog.Duration("write_timeout", cfg.Server.WriteTimeout),
	)

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed to start",
				slog.Any("error", err),
			)
			os.Exit(1)
		}
	}()

	appLogger.Info("API service is running",
		slog.String("address", addr),
	)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown",
			slog.Any("error", err),
		)
		return err
	}

	appLogger.Info("Server shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	dbConfig := &postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}

	return postgresql.NewClient(dbConfig, logger)
}

// initTransport builds the queue transport selected by queue.transport,
// connecting only the broker client that transport needs. Transport
// "none" returns a nil transport; jobs are then persisted without an
// announcement.
func initTransport(cfg *config.Config, logger *slog.Logger) (queue.Transport, func(), error) {
	noop := func() {}

	switch cfg.Queue.Transport {
	case config.TransportKafka:
		kafkaClient, err := kafka.NewClient(&kafka.Config{
			Brokers:     cfg.Kafka.Brokers,
			Topic:       cfg.Kafka.Topic,
			DialTimeout: cfg.Kafka.DialTimeout,
			MaxRetries:  cfg.Kafka.MaxRetries,
		}, logger)
		if err != nil {
			return nil, noop, err
		}

		transport := queue.NewKafkaTransport(kafkaClient, int32(cfg.Kafka.Partitions), logger)
		return transport, func() { kafkaClient.Close() }, nil

	case config.TransportRabbitMQ:
		rabbitClient, err := rabbitmq.NewClient(&rabbitmq.Config{
			Host:               cfg.RabbitMQ.Host,
			Port:               cfg.RabbitMQ.Port,
			User:               cfg.RabbitMQ.User,
			Password:           cfg.RabbitMQ.Password,
			VHost:              cfg.RabbitMQ.VHost,
			ExchangeName:       cfg.RabbitMQ.Exchange.Name,
			ExchangeType:       cfg.RabbitMQ.Exchange.Type,
			ExchangeDurable:    cfg.RabbitMQ.Exchange.Durable,
			ExchangeAutoDelete: cfg.RabbitMQ.Exchange.AutoDelete,
			QueueName:          cfg.RabbitMQ.Queue.Name,
			QueueDurable:       cfg.RabbitMQ.Queue.Durable,
			QueueAutoDelete:    cfg.RabbitMQ.Queue.AutoDelete,
			QueueExclusive:     cfg.RabbitMQ.Queue.Exclusive,
			RoutingKey:         cfg.RabbitMQ.RoutingKey,
			RetryAttempts:      cfg.RabbitMQ.Connection.RetryAttempts,
			RetryInterval:      cfg.RabbitMQ.Connection.RetryInterval,
			Heartbeat:          cfg.RabbitMQ.Connection.Heartbeat,
			ConnectionTimeout:  cfg.RabbitMQ.Connection.ConnectionTimeout,
		}, logger)
		if err != nil {
			return nil, noop, err
		}

		transport := queue.NewRabbitTransport(rabbitClient, logger)
		return transport, func() { rabbitClient.Close() }, nil

	case config.TransportRedis:
		redisClient, err := redis.NewClient(&redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		}, logger)
		if err != nil {
			return nil, noop, err
		}

		transport := queue.NewRedisTransport(redisClient, cfg.Redis.StreamKey, logger)
		return transport, func() { redisClient.Close() }, nil

	default:
		logger.Warn("Queue transport disabled, jobs will not be announced")
		return nil, noop, nil
	}
}

// initRouter initializes the Gin router with all routes and middleware
func initRouter(environment string, logger *slog.Logger, ocrService *service.OcrService, pool *executor.Pool) *gin.Engine {
	// Set Gin mode based on environment
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize handler dependencies
	handlerDeps := &handler.Dependencies{
		Logger:  logger,
		Service: ocrService,
		Pool:    pool,
	}

	// Setup router
	return router.SetupRouter(handlerDeps)
}
