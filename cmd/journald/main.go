package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/chainreaction/client/internal/analytics"
	"github.com/chainreaction/client/internal/cache"
	"github.com/chainreaction/client/internal/config"
	"github.com/chainreaction/client/internal/journal"
	"github.com/chainreaction/client/internal/logger"
	"github.com/chainreaction/client/internal/middleware"
	"github.com/chainreaction/client/internal/utils"
)

func main() {
	// Load .env.local for local development
	if os.Getenv("RAILWAY_ENVIRONMENT_NAME") == "" {
		if err := godotenv.Load(".env.local"); err != nil {
			logger.Info("Note: .env.local not found, using system environment variables")
		}
	}

	log := logger.Default()
	defer log.Sync()
	log.Info("Starting telemetry journal...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Error("Invalid configuration", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rm := utils.NewResourceManager(log)

	store, err := journal.Open(ctx, cfg.Database.DSN())
	if err != nil {
		log.Error("Database connection failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	rm.Add("database", store.Close)
	if err := store.Migrate(ctx); err != nil {
		log.Error("Failed to initialize schema", map[string]interface{}{"error": err.Error()})
		_ = rm.Cleanup()
		os.Exit(1)
	}
	log.Info("Database schema ensured")

	if len(cfg.Kafka.Brokers) > 0 {
		consumer, err := analytics.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, store, log)
		if err != nil {
			log.Warn("Kafka consumer init failed", map[string]interface{}{"error": err.Error()})
		} else {
			log.Info("Kafka consumer initialized", map[string]interface{}{"topic": cfg.Kafka.Topic})
			rm.Add("kafka consumer", consumer.Close)
			go func() {
				if err := consumer.Start(ctx, []string{cfg.Kafka.Topic}); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("Error in consumer", map[string]interface{}{"error": err.Error()})
				}
			}()
		}
	} else {
		log.Warn("KAFKA_BROKERS not set, serving the journal read-only")
	}

	statsCache := cache.NewCache(time.Minute)
	rm.Add("cache", func() error { statsCache.Close(); return nil })

	api := journal.NewAPI(store, statsCache, log)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Journal.Port),
		Handler:           api.Routes(cfg.Security.AllowedOrigins, middleware.NewRateLimiter(20, 40)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("Journal API running", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("ListenAndServe failed", map[string]interface{}{"error": err.Error()})
			cancel()
		}
	}()
	rm.Add("http server", func() error {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		return srv.Shutdown(shutdownCtx)
	})

	if err := rm.WaitForShutdown(ctx); err != nil {
		log.Error("Shutdown finished with errors", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}
