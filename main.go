package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slackpeek/internal/config"
	"slackpeek/internal/emoji"
	"slackpeek/internal/handlers"
	slackapi "slackpeek/internal/integrations/slack"
	"slackpeek/internal/logging"
	"slackpeek/internal/middleware"
	"slackpeek/internal/reactions"
	"slackpeek/internal/services"
	"slackpeek/internal/storage"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ServiceBundle struct {
	SlackClient   *slackapi.Client
	EmojiCache    *emoji.Cache
	Loader        *reactions.Loader
	StateStore    *reactions.StateStore
	SearchService *services.SearchService
	SearchHandler *handlers.SearchHandler
	EmojiHandler  *handlers.EmojiHandler
	Store         *storage.PostgresStore
	Config        *config.Config
}

func initializeServices() *ServiceBundle {
	slog.Info("Loading configuration...")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Initializing services...")

	// Persistence is best-effort: without it the emoji cache simply
	// cold-starts against the Slack API.
	var store *storage.PostgresStore
	for attempt := 1; attempt <= 3; attempt++ {
		var err error
		store, err = storage.NewPostgresStore(cfg.DatabaseURL)
		if err == nil {
			break
		}
		slog.Error("Failed to connect to database, retrying in 5s",
			"error", err, "attempt", attempt)
		time.Sleep(5 * time.Second)
	}
	if store == nil {
		slog.Warn("Running without emoji persistence")
	}

	slackClient := slackapi.NewClient(cfg.SlackToken, cfg.WorkspaceID)

	var emojiStore emoji.Store
	if store != nil {
		emojiStore = store
	}
	emojiCache, err := emoji.NewCache(slackClient, emojiStore, cfg.EmojiRefreshWindow)
	if err != nil {
		slog.Error("Failed to initialize emoji cache", "error", err)
		os.Exit(1)
	}

	stateStore := reactions.NewStateStore()
	loader := reactions.NewLoader(slackClient, stateStore, cfg.ReactionBatchSize)
	searchService := services.NewSearchService(slackClient, loader)

	slog.Info("All services initialized successfully")

	return &ServiceBundle{
		SlackClient:   slackClient,
		EmojiCache:    emojiCache,
		Loader:        loader,
		StateStore:    stateStore,
		SearchService: searchService,
		SearchHandler: handlers.NewSearchHandler(searchService, stateStore),
		EmojiHandler:  handlers.NewEmojiHandler(emojiCache, cfg.WorkspaceID),
		Store:         store,
		Config:        cfg,
	}
}

func main() {
	// Setup structured logging
	logging.SetupLogger()

	slog.Info("Starting slackpeek", slog.String("version", "1.0.0"))

	services := initializeServices()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Warm the emoji cache from persistence, then fetch the home
	// workspace's custom emoji in the background.
	if services.Store != nil {
		if err := services.EmojiCache.Warm(ctx); err != nil {
			slog.Warn("Failed to warm emoji cache", "error", err)
		}
	}
	go func() {
		refreshCtx, refreshCancel := context.WithTimeout(ctx, 30*time.Second)
		defer refreshCancel()
		if err := services.EmojiCache.Refresh(refreshCtx, services.Config.WorkspaceID); err != nil {
			slog.Warn("Initial custom emoji fetch failed", "error", err)
		}
	}()

	// Setup HTTP server with middleware
	router := mux.NewRouter()

	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.MetricsMiddleware)

	// API routes with rate limiting
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(middleware.APIRateLimitMiddleware())
	apiRouter.HandleFunc("/search", services.SearchHandler.HandleSearch).Methods("POST")
	apiRouter.HandleFunc("/search/messages", services.SearchHandler.HandleMessages).Methods("GET")
	apiRouter.HandleFunc("/search/state", services.SearchHandler.HandleState).Methods("GET")
	apiRouter.HandleFunc("/emoji/resolve", services.EmojiHandler.HandleResolve).Methods("GET")

	// System routes
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Ready"))
	}).Methods("GET")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	server := &http.Server{
		Addr:         ":" + services.Config.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		slog.Info("Server starting", slog.String("port", services.Config.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	// Cancel context to stop background work
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if services.Store != nil {
		services.Store.Close()
	}

	slog.Info("Server exited gracefully")
}
