package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	portfolio "github.com/MegaGrindStone/portfolio-chat"
	"github.com/MegaGrindStone/portfolio-chat/internal/handlers"
	"github.com/MegaGrindStone/portfolio-chat/internal/profile"
	"github.com/MegaGrindStone/portfolio-chat/internal/services"
	"github.com/joho/godotenv"
)

const errLoggerKey = "err"

func main() {
	// A missing .env is the normal case in production.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env: %v", err)
	}

	cfgFilePath := os.Getenv("PORTFOLIO_CONFIG")
	if cfgFilePath == "" {
		cfgDir, err := os.UserConfigDir()
		if err != nil {
			log.Fatal(fmt.Errorf("error getting user config dir: %w", err))
		}
		cfgFilePath = filepath.Join(cfgDir, "portfolio", "config.yaml")
	}

	cfg, err := loadConfig(cfgFilePath)
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.logLevel()}))
	logger.Info("Starting server", slog.String("environment", cfg.Environment))

	prof, err := loadProfile(cfg.ProfilePath)
	if err != nil {
		log.Fatal(err)
	}

	var llm handlers.LLM
	switch l, err := cfg.LLM.llm(prof.SystemPrompt(), logger); {
	case errors.Is(err, errNoAPIKey):
		logger.Warn("LLM api key is not set. The chatbot will not function properly.")
	case err != nil:
		log.Fatal(fmt.Errorf("error creating llm: %w", err))
	default:
		llm = l
	}

	opts := []handlers.Option{
		handlers.WithEnvironment(cfg.Environment),
		handlers.WithAPIBaseURL(cfg.APIBaseURL),
	}

	var cache services.BoltCache
	if cfg.Cache.Path != "" {
		cache, err = services.NewBoltCache(cfg.Cache.Path, cfg.Cache.TTL, prof.SystemPrompt())
		if err != nil {
			log.Fatal(err)
		}
		defer cache.Close()

		if n, err := cache.Prune(context.Background()); err != nil {
			logger.Warn("Failed to prune reply cache", slog.String(errLoggerKey, err.Error()))
		} else if n > 0 {
			logger.Info("Pruned reply cache", slog.Int("removed", n))
		}
		opts = append(opts, handlers.WithCache(cache))
	}

	m, err := handlers.NewMain(llm, prof, logger, opts...)
	if err != nil {
		log.Fatal(err)
	}

	// Serve static files
	staticFS, err := fs.Sub(portfolio.StaticFS, "static")
	if err != nil {
		log.Fatal(err)
	}
	fileServer := http.FileServer(http.FS(staticFS))

	trusted, err := handlers.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatal(err)
	}
	limiter := handlers.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst, trusted...)

	// Create custom mux
	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", fileServer))
	mux.HandleFunc("/", m.HandleHome)
	mux.Handle("/api/chat", handlers.WithRateLimit(limiter, http.HandlerFunc(m.HandleChat)))
	mux.HandleFunc("/api/health", m.HandleAPIHealth)
	mux.HandleFunc("/health", m.HandleHealth)
	mux.HandleFunc("/healthz", m.HandleHealthz)

	// Create custom server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.WithRequestLog(logger, handlers.WithCORS(cfg.CORSOrigins, mux)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Channel to listen for errors coming from the listener
	serverErrors := make(chan error, 1)

	// Start server in goroutine
	go func() {
		logger.Info("Server starting", slog.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt/terminate signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Blocking select waiting for either interrupt or server error
	select {
	case err := <-serverErrors:
		logger.Error("Server error", slog.String(errLoggerKey, err.Error()))

	case sig := <-shutdown:
		logger.Info("Start shutdown", slog.String("signal", sig.String()))

		// Create context with timeout for shutdown
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Gracefully shutdown the server
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed", slog.String(errLoggerKey, err.Error()))
			if err := srv.Close(); err != nil {
				logger.Error("Forcing server close", slog.String(errLoggerKey, err.Error()))
			}
		}
	}
}

func loadProfile(path string) (profile.Profile, error) {
	if path == "" {
		return profile.Default()
	}
	return profile.LoadFile(path)
}
