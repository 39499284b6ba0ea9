package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/chainreaction/client/internal/analytics"
	"github.com/chainreaction/client/internal/config"
	"github.com/chainreaction/client/internal/httpapi"
	"github.com/chainreaction/client/internal/logger"
	"github.com/chainreaction/client/internal/loop"
	"github.com/chainreaction/client/internal/session"
	"github.com/chainreaction/client/internal/utils"
)

func main() {
	tui := flag.Bool("tui", false, "draw the board in the terminal instead of reading commands")
	logPath := flag.String("log", "client.log", "log file used in -tui mode")
	flag.Parse()

	// Load .env.local for local development
	envErr := godotenv.Load(".env.local")

	log := logger.Default()
	if *tui {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log = logger.NewLoggerTo(f)
	}
	defer log.Sync()
	if envErr != nil {
		log.Debug("Note: .env.local not found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Error("Invalid configuration", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	rm := utils.NewResourceManager(log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lp := startLoop(rm)

	opts := session.OptionsFromConfig(cfg)
	opts.SessionID = uuid.New().String()
	opts.Logger = log

	// Telemetry is optional
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := analytics.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Warn("Kafka producer init failed, telemetry disabled", map[string]interface{}{"error": err.Error()})
		} else {
			log.Info("Kafka producer initialized", map[string]interface{}{"topic": cfg.Kafka.Topic})
			rm.Add("kafka producer", producer.Close)
			pub := analytics.NewPublisher(producer, opts.SessionID, opts.PlayerID, log)
			rm.Add("telemetry", pub.Close)
			opts.Recorder = pub
		}
	}

	sess := session.New(lp, opts)
	rm.Add("session", func() error { sess.Close(); return nil })

	if cfg.Debug.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Debug.Addr,
			Handler:           httpapi.SetupRoutes(sess, cfg.Security.AllowedOrigins),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info("Debug API listening", map[string]interface{}{"addr": cfg.Debug.Addr})
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Debug API stopped", map[string]interface{}{"error": err.Error()})
			}
		}()
		rm.Add("debug api", func() error {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := sess.Start(); err != nil {
		log.Error("Failed to start session", map[string]interface{}{"error": err.Error()})
		_ = rm.Cleanup()
		os.Exit(1)
	}
	log.Info("Chain reaction client started", map[string]interface{}{
		"session": sess.ID(), "server": cfg.Server.URL,
	})

	go func() {
		defer cancel()
		if *tui {
			term := newTerminal(sess, log)
			rm.Add("terminal", term.Close)
			if err := term.Run(); err != nil {
				log.Error("Terminal UI failed", map[string]interface{}{"error": err.Error()})
			}
			return
		}
		runREPL(sess, os.Stdin, os.Stdout)
	}()

	if err := rm.WaitForShutdown(ctx); err != nil {
		log.Error("Shutdown finished with errors", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

// startLoop runs the event loop until its own cleanup. Cleanups run in
// reverse, so the loop outlives everything registered after it and
// session.Close can still reach it.
func startLoop(rm *utils.ResourceManager) *loop.Loop {
	lp := loop.New()
	ctx, cancel := context.WithCancel(context.Background())
	go lp.Run(ctx)
	rm.Add("loop", func() error {
		cancel()
		lp.Stop()
		return nil
	})
	return lp
}
