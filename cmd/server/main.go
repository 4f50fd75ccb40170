package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"airline-reservation/config"
	"airline-reservation/internal/api"
	"airline-reservation/internal/broker"
	"airline-reservation/internal/redisclient"
	"airline-reservation/internal/reservation"
	"airline-reservation/internal/service"
	"airline-reservation/internal/store"
	"airline-reservation/internal/util"
	"airline-reservation/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting airline reservation service")

	if cfg.Observ.JaegerEndpoint != "" {
		tp, err := util.InitTracer(util.ServiceName, cfg.Observ.JaegerEndpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				logger.Error("Error shutting down tracer", zap.Error(err))
			}
		}()
	}

	ctx := context.Background()
	storeOpts := []reservation.Option{reservation.WithLockTimeout(cfg.Business.LockTimeout)}

	var db *store.Store
	if cfg.Persistence.Postgres() {
		var err error
		db, err = store.NewStore(cfg.Persistence.DatabaseURL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			logger.Fatal("Failed to apply schema", zap.Error(err))
		}
		storeOpts = append(storeOpts, reservation.WithRepository(db))
		logger.Info("Database connected")
	}

	rs := reservation.NewStore(storeOpts...)
	if db != nil {
		if err := rs.Load(ctx, db); err != nil {
			logger.Fatal("Failed to load records", zap.Error(err))
		}
	}

	if cfg.Business.SeedSampleData {
		seeded, err := service.SeedSampleData(ctx, rs, time.Now())
		if err != nil {
			logger.Fatal("Failed to seed sample data", zap.Error(err))
		}
		if seeded {
			logger.Info("Sample flights and customers loaded")
		}
	}

	var idempotency service.IdempotencyStore
	var redisClient *redisclient.Client
	if cfg.Redis.Enabled() {
		var err error
		redisClient, err = redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		idempotency = redisClient
		logger.Info("Redis connected")
	}

	var publisher service.EventPublisher
	if cfg.Kafka.Enabled() {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publisher = broker.NewEventPublisher(producer)
		logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	bookingService := service.NewBookingService(rs, publisher, idempotency, cfg.Business.IdempotencyTTL)
	refundService := service.NewRefundService(rs, publisher, cfg.Business.DefaultRefundPercentage)
	fareService := service.NewFareService(rs, publisher)
	analyticsService := service.NewAnalyticsService(rs)
	authService := service.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var refundWorker *worker.RefundWorker
	if cfg.Business.AutoRefund && cfg.Kafka.Enabled() {
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ConsumerGroup)
		refundWorker = worker.NewRefundWorker(consumer, refundService)
		go func() {
			if err := refundWorker.Start(workerCtx); err != nil {
				logger.Error("Refund worker error", zap.Error(err))
			}
		}()
	}

	var sweeper *worker.Sweeper
	if cfg.Business.AutoRefund && cfg.Business.RefundSweepCron != "" {
		var err error
		sweeper, err = worker.NewSweeper(cfg.Business.RefundSweepCron, refundService)
		if err != nil {
			logger.Fatal("Failed to schedule refund sweep", zap.Error(err))
		}
		sweeper.Start()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(api.Services{
		Booking:   bookingService,
		Refunds:   refundService,
		Fares:     fareService,
		Analytics: analyticsService,
		Auth:      authService,
	})
	if db != nil {
		handler.AddReadinessCheck("postgres", db)
	}
	if redisClient != nil {
		handler.AddReadinessCheck("redis", redisClient)
	}
	if err := handler.SetupRoutes(router); err != nil {
		logger.Fatal("Failed to set up routes", zap.Error(err))
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if refundWorker != nil {
		if err := refundWorker.Stop(); err != nil {
			logger.Error("Failed to stop refund worker", zap.Error(err))
		}
	}
	if sweeper != nil {
		sweeper.Stop()
	}

	logger.Info("Server exited")
}
