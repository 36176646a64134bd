package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"ecommerce/catalog-service/internal/app/catalog/config"
	"ecommerce/catalog-service/internal/app/catalog/handler"
	"ecommerce/catalog-service/internal/app/catalog/processor"
	"ecommerce/catalog-service/internal/app/catalog/repository"
	"ecommerce/catalog-service/internal/app/catalog/service"
	"ecommerce/catalog-service/internal/app/catalog/util"
	"ecommerce/pkg/logger"
)

const serviceName = "catalog-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(serviceName, cfg.Log.Level)

	if cfg.Log.LogstashAddr != "" {
		if err := logger.InitLogstash(cfg.Log.LogstashAddr, serviceName, cfg.Log.Level); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			logger.Info().Str("logstash_addr", cfg.Log.LogstashAddr).Msg("Connected to Logstash")
		}
	}

	db, err := connectDB(cfg.Database, cfg.Log.Level)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	logger.Info().
		Str("driver", cfg.Database.Driver).
		Str("database", cfg.Database.DBName).
		Msg("Connected to database")

	if cfg.Database.AutoMigrate {
		if err := repository.AutoMigrate(db); err != nil {
			logger.Fatal().Err(err).Msg("Failed to migrate database schema")
		}
		logger.Info().Msg("Database schema migrated")
	}

	// Интерфейсные переменные остаются nil, если Redis или Kafka отключены
	var cache util.RedisCache
	if cfg.Redis.Enabled {
		redisClient, err := util.NewRedisClient(cfg.Redis.Address(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn().Err(err).Str("address", cfg.Redis.Address()).Msg("Redis unavailable, list cache disabled")
		} else {
			defer redisClient.Close()
			cache = redisClient
			logger.Info().Str("address", cfg.Redis.Address()).Msg("Connected to Redis")
		}
	}

	var publisher util.MessagePublisher
	if cfg.Kafka.Enabled() {
		kafkaProducer := util.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kafkaProducer.Close()
		publisher = kafkaProducer
		logger.Info().
			Strs("brokers", cfg.Kafka.Brokers).
			Str("topic", cfg.Kafka.Topic).
			Msg("Initialized Kafka producer")
	}

	categoryService := service.NewCategoryService(repository.NewCategoryRepository(db), cache, publisher, cfg.Cache.TTL)
	tagService := service.NewTagService(repository.NewTagRepository(db), cache, publisher, cfg.Cache.TTL)

	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	var warmer *processor.CacheWarmer
	if cache != nil && cfg.Cache.WarmSchedule != "" {
		warmer = processor.NewCacheWarmer(map[string]processor.Warmer{
			"categories": categoryService,
			"tags":       tagService,
		})
		if err := warmer.Start(appCtx, cfg.Cache.WarmSchedule); err != nil {
			logger.Fatal().Err(err).Msg("Failed to start cache warmer")
		}
	}

	var productConsumer *processor.ProductEventConsumer
	if cache != nil && cfg.Kafka.Enabled() {
		productConsumer = processor.NewProductEventConsumer(cfg.Kafka.Brokers, cfg.Kafka.ProductTopic, cfg.Kafka.GroupID, cache)
		productConsumer.Start(appCtx)
		logger.Info().
			Str("topic", cfg.Kafka.ProductTopic).
			Str("group", cfg.Kafka.GroupID).
			Msg("Product event consumer started")
	}

	router := handler.SetupRoutes(
		handler.NewCategoryHandler(categoryService),
		handler.NewTagHandler(tagService),
		handler.NewHealthCheckHandler(db, cache),
	)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("Starting Catalog Service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Catalog Service...")

	if warmer != nil {
		warmer.Stop()
	}
	stopApp()
	if productConsumer != nil {
		productConsumer.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Info().Msg("Catalog Service stopped gracefully")
}

func connectDB(cfg config.DatabaseConfig, logLevel string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	gormConfig := &gorm.Config{
		Logger:         logger.NewGormLogger(logger.GormLevel(logLevel), 200*time.Millisecond),
		TranslateError: true,
	}

	var db *gorm.DB
	var err error

	for i := 0; i < 10; i++ {
		db, err = gorm.Open(dialector, gormConfig)
		if err == nil {
			sqlDB, sqlErr := db.DB()
			if sqlErr != nil {
				err = sqlErr
			} else if pingErr := sqlDB.Ping(); pingErr != nil {
				err = pingErr
			} else {
				sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
				sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
				sqlDB.SetConnMaxLifetime(5 * time.Minute)
				sqlDB.SetConnMaxIdleTime(1 * time.Minute)
				return db, nil
			}
		}
		logger.Warn().
			Int("attempt", i+1).
			Err(err).
			Msg("Failed to connect to database, retrying...")
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect after 10 attempts: %w", err)
}
