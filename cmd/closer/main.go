package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsAdapter "github.com/Abdurahmanit/GroupProject/auction-service/internal/adapter/messaging/nats"
	mongoRepo "github.com/Abdurahmanit/GroupProject/auction-service/internal/adapter/repository/mongodb"
	"github.com/Abdurahmanit/GroupProject/auction-service/internal/auction/usecase"
	"github.com/Abdurahmanit/GroupProject/auction-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/auction-service/internal/mailer"
	"github.com/Abdurahmanit/GroupProject/auction-service/internal/platform/logger"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const serviceName = "auction-closer"

// Standalone sweep binary. Runs the same closer usecase as the server's
// in-process scheduler, for deployments that prefer a separate worker or
// a cron-style one-shot run.
func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Printf("INFO: .env file not found or error loading: %v. Relying on OS environment variables.\n", err)
	}

	appLogger := logger.NewLogger()
	appLogger.Info("Closer starting...", zap.String("service_name", serviceName), zap.Bool("once", *once))

	cfg, err := config.LoadConfig(appLogger)
	if err != nil {
		appLogger.Fatal("Failed to load configuration", zap.Error(err))
	}

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		appLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err = mongoClient.Disconnect(context.Background()); err != nil {
			appLogger.Error("Error disconnecting from MongoDB", zap.Error(err))
		}
	}()
	ctxPing, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err = mongoClient.Ping(ctxPing, nil); err != nil {
		appLogger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}
	db := mongoClient.Database(cfg.MongoDatabase)

	natsPublisher, err := natsAdapter.NewPublisher(cfg.NATSURL, appLogger, serviceName)
	if err != nil {
		appLogger.Fatal("Failed to initialize NATS publisher", zap.Error(err))
	}
	defer natsPublisher.Close()

	itemRepo, err := mongoRepo.NewItemRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize ItemRepository", zap.Error(err))
	}
	bidRepo, err := mongoRepo.NewBidRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize BidRepository", zap.Error(err))
	}

	winnerMailer := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	closerUC := usecase.NewCloserUsecase(itemRepo, bidRepo, winnerMailer, natsPublisher, appLogger)

	sweep := func(ctx context.Context) {
		results, err := closerUC.CloseExpiredAuctions(ctx, time.Now().UTC())
		if err != nil {
			appLogger.Error("Sweep failed", zap.Error(err))
			return
		}
		appLogger.Info("Sweep finished", zap.Int("closed", len(results)))
	}

	if *once {
		sweep(context.Background())
		return
	}

	interval := cfg.CloserInterval
	if interval <= 0 {
		interval = time.Minute
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	appLogger.Info("Closer running on interval", zap.Duration("interval", interval))

	for {
		select {
		case sig := <-quit:
			appLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))
			stop()
			return
		case <-ticker.C:
			sweep(ctx)
		}
	}
}
