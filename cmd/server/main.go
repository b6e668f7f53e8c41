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

	httpHandler "github.com/Abdurahmanit/GroupProject/auction-service/internal/adapter/http/handler"
	httpRouter "github.com/Abdurahmanit/GroupProject/auction-service/internal/adapter/http/router"
	natsAdapter "github.com/Abdurahmanit/GroupProject/auction-service/internal/adapter/messaging/nats"
	"github.com/Abdurahmanit/GroupProject/auction-service/internal/adapter/repository/cache"
	mongoRepo "github.com/Abdurahmanit/GroupProject/auction-service/internal/adapter/repository/mongodb"
	s3Storage "github.com/Abdurahmanit/GroupProject/auction-service/internal/adapter/storage/s3"

	"github.com/Abdurahmanit/GroupProject/auction-service/internal/auction/usecase"
	"github.com/Abdurahmanit/GroupProject/auction-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/auction-service/internal/mailer"
	"github.com/Abdurahmanit/GroupProject/auction-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/auction-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/auction-service/internal/platform/tracer"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

const serviceName = "auction-service"

func main() {
	// Load .env file (optional, for local development)
	if err := godotenv.Load(); err != nil {
		fmt.Printf("INFO: .env file not found or error loading: %v. Relying on OS environment variables.\n", err)
	}

	// 1. Initialize Logger
	appLogger := logger.NewLogger()
	appLogger.Info("Application starting...", zap.String("service_name", serviceName))

	// 2. Load Configuration
	cfg, err := config.LoadConfig(appLogger)
	if err != nil {
		appLogger.Fatal("Failed to load configuration", zap.Error(err))
	}
	appLogger.Info("Configuration loaded successfully",
		zap.String("http_port", cfg.HTTPPort),
		zap.Bool("mongo_uri_set", cfg.MongoURI != ""),
		zap.String("nats_url", cfg.NATSURL),
		zap.String("prometheus_port", cfg.PrometheusMetricsPort),
	)

	// 3. Initialize OpenTelemetry Tracer
	var tp *sdktrace.TracerProvider
	if cfg.OTExporterOTLPEndpoint != "" {
		tp = tracer.InitTracer(serviceName, cfg.OTExporterOTLPEndpoint, appLogger)
		defer func() {
			appLogger.Info("Shutting down tracer provider...")
			ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			if err := tp.Shutdown(ctxShutdown); err != nil {
				appLogger.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
		appLogger.Info("OpenTelemetry Tracer initialized.")
	} else {
		appLogger.Info("OpenTelemetry Tracer not initialized (OTEL_EXPORTER_OTLP_ENDPOINT not set).")
	}

	// 4. Connect to MongoDB
	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		appLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		appLogger.Info("Disconnecting from MongoDB...")
		if err = mongoClient.Disconnect(context.Background()); err != nil {
			appLogger.Error("Error disconnecting from MongoDB", zap.Error(err))
		}
	}()
	ctxPingMongo, cancelPingMongo := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPingMongo()
	if err = mongoClient.Ping(ctxPingMongo, nil); err != nil {
		appLogger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}
	appLogger.Info("Successfully connected and pinged MongoDB.")
	db := mongoClient.Database(cfg.MongoDatabase)

	// 5. Initialize NATS Publisher
	natsPublisher, err := natsAdapter.NewPublisher(cfg.NATSURL, appLogger, serviceName)
	if err != nil {
		appLogger.Fatal("Failed to initialize NATS publisher", zap.Error(err))
	}
	defer natsPublisher.Close()
	appLogger.Info("NATS Publisher initialized.")

	// 6. Initialize Repositories and infrastructure adapters
	itemRepo, err := mongoRepo.NewItemRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize ItemRepository", zap.Error(err))
	}
	bidRepo, err := mongoRepo.NewBidRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize BidRepository", zap.Error(err))
	}
	questionRepo, err := mongoRepo.NewQuestionRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize QuestionRepository", zap.Error(err))
	}
	appLogger.Info("Repositories initialized.")

	var itemCache usecase.ItemCache
	redisCache, err := cache.NewItemCache(cfg.RedisAddress)
	if err != nil {
		appLogger.Warn("Redis unavailable, item cache disabled", zap.Error(err))
	} else {
		itemCache = redisCache
		defer redisCache.Close()
	}

	pictureStorage, err := s3Storage.NewS3Storage(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket, cfg.MinIOUseSSL, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize picture storage", zap.Error(err))
	}

	winnerMailer := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)

	// 7. Initialize Usecases
	itemUC := usecase.NewItemUsecase(itemRepo, bidRepo, questionRepo, itemCache, appLogger)
	bidUC := usecase.NewBidUsecase(itemRepo, bidRepo, natsPublisher, itemCache, appLogger)
	closerUC := usecase.NewCloserUsecase(itemRepo, bidRepo, winnerMailer, natsPublisher, appLogger)
	questionUC := usecase.NewQuestionUsecase(itemRepo, questionRepo, natsPublisher, appLogger)
	photoUC := usecase.NewPhotoUsecase(pictureStorage, itemRepo)
	appLogger.Info("Usecases initialized.")

	// 8. Metrics
	metricsManager := metrics.NewMetricsManager("auction_service")
	if cfg.PrometheusMetricsPort != "" {
		go func() {
			if err := metrics.StartMetricsServer(cfg.PrometheusMetricsPort, appLogger, metricsManager.Registry); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLogger.Error("Prometheus metrics server failed", zap.Error(err))
			}
		}()
	} else {
		appLogger.Info("Prometheus metrics server not started (PROMETHEUS_METRICS_PORT not set).")
	}

	// 9. HTTP server
	auctionHandler := httpHandler.NewAuctionHandler(itemUC, bidUC, questionUC, photoUC, metricsManager, appLogger)
	mux := httpRouter.New(auctionHandler, cfg.JWTSecret, appLogger)

	httpSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: mux,
	}
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", cfg.HTTPPort))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// 10. In-process closer scheduler
	closerCtx, stopCloser := context.WithCancel(context.Background())
	defer stopCloser()
	go func() {
		interval := cfg.CloserInterval
		if interval <= 0 {
			interval = time.Minute
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		appLogger.Info("Auction closer scheduler started", zap.Duration("interval", interval))
		for {
			select {
			case <-closerCtx.Done():
				appLogger.Info("Auction closer scheduler stopped")
				return
			case <-ticker.C:
				results, err := closerUC.CloseExpiredAuctions(closerCtx, time.Now().UTC())
				if err != nil {
					appLogger.Error("Closer sweep failed", zap.Error(err))
					continue
				}
				for _, res := range results {
					if res.HadBids {
						metricsManager.AuctionsClosedTotal.WithLabelValues("won").Inc()
						if res.Notified {
							metricsManager.WinnerEmailsTotal.WithLabelValues("sent").Inc()
						} else {
							metricsManager.WinnerEmailsTotal.WithLabelValues("failed").Inc()
						}
					} else {
						metricsManager.AuctionsClosedTotal.WithLabelValues("no_bids").Inc()
					}
				}
			}
		}
	}()

	// 11. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	appLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	stopCloser()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown error", zap.Error(err))
	}
	appLogger.Info("HTTP server stopped.")

	appLogger.Info("Application shutting down...")
}
