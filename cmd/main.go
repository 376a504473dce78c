package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/events"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/handler"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/repository"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/router"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/service"
	"github.com/cloud-wave-best-zizon/catalog-service/pkg/config"
	"github.com/cloud-wave-best-zizon/catalog-service/pkg/logger"
	"github.com/cloud-wave-best-zizon/catalog-service/pkg/metrics"
	spiretls "github.com/cloud-wave-best-zizon/catalog-service/pkg/tls"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const certificateCheckInterval = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer zlog.Sync()

	if !cfg.LogDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	productRepo, closeRepo, err := newRepository(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("Failed to initialise repository", zap.String("store", cfg.Store()), zap.Error(err))
	}
	defer closeRepo()

	publisher := newPublisher(cfg, zlog)
	defer func() {
		if err := publisher.Close(); err != nil {
			zlog.Error("Failed to close event publisher", zap.Error(err))
		}
	}()

	m := metrics.New()
	productService := service.NewProductService(productRepo, publisher, m, zlog.Named("service"))
	productHandler := handler.NewProductHandler(productService, zlog.Named("handler"))

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           router.NewRouter(productHandler, m, zlog),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.TLSEnabled {
		source, err := spiretls.NewSource(ctx, cfg.SpireSocketPath, zlog)
		if err != nil {
			zlog.Fatal("Failed to load SPIRE TLS configuration", zap.Error(err))
		}
		defer source.Close()

		srv.TLSConfig = source.ServerConfig()
		go source.Watch(ctx, certificateCheckInterval)
	}

	go func() {
		zlog.Info("Starting server",
			zap.String("port", cfg.Port),
			zap.String("store", cfg.Store()),
			zap.Bool("tls", cfg.TLSEnabled),
			zap.Bool("kafka", cfg.KafkaEnabled))

		var err error
		if srv.TLSConfig != nil {
			// Certificates come from TLSConfig.
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Error("Server stopped unexpectedly", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	zlog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	zlog.Info("Server exited")
}

// newRepository returns the configured store and a function that releases it.
func newRepository(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (repository.ProductRepository, func(), error) {
	switch cfg.Store() {
	case config.StoreMemory:
		zlog.Warn("LOCAL_MODE enabled, products are kept in memory only")
		return repository.NewMemoryRepository(zlog), func() {}, nil

	case config.StoreMongo:
		client, err := repository.NewMongoClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		collection := client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection)
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				zlog.Error("Failed to disconnect from MongoDB", zap.Error(err))
			}
		}
		return repository.NewMongoRepository(collection, zlog), closeFn, nil

	case config.StoreDynamoDB:
		client, err := repository.NewDynamoDBClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewDynamoRepository(client, cfg.ProductTableName, zlog), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported store: %s", cfg.Store())
	}
}

func newPublisher(cfg *config.Config, zlog *zap.Logger) events.Publisher {
	if !cfg.KafkaEnabled {
		return events.NopPublisher{}
	}

	zlog.Info("Publishing product events to Kafka",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.KafkaTopic))
	return events.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic, zlog)
}
