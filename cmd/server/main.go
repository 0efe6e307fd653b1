package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/palmietopia/server/internal/config"
	"github.com/freeeve/palmietopia/server/internal/handler"
	"github.com/freeeve/palmietopia/server/internal/hub"
	"github.com/freeeve/palmietopia/server/internal/logger"
	"github.com/freeeve/palmietopia/server/internal/middleware"
	"github.com/freeeve/palmietopia/server/internal/repository"
	"github.com/freeeve/palmietopia/server/internal/repository/memory"
	"github.com/freeeve/palmietopia/server/internal/repository/postgres"
	redisrepo "github.com/freeeve/palmietopia/server/internal/repository/redis"
	"github.com/freeeve/palmietopia/server/internal/service"
	"github.com/freeeve/palmietopia/server/pkg/conquest"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.PrettyLog)
	log.Info().Str("storeBackend", cfg.StoreBackend).Str("port", cfg.Port).Msg("Config loaded")

	store, closeStore := openStore(cfg)
	defer closeStore()

	// Broadcast hub and services
	broadcastHub := hub.New()
	gameSvc := service.NewGameService(store, broadcastHub, cfg.TimerTick)
	lobbySvc := service.NewLobbyService(store, broadcastHub, gameSvc, cfg.MaxPlayers, conquest.Settings{
		BaseTimeMS:   cfg.BaseTimeMS,
		IncrementMS:  cfg.IncrementMS,
		StartingGold: cfg.StartingGold,
		BaseIncome:   cfg.BaseIncome,
	})

	// Handlers
	wsHandler := handler.NewWSHandler(broadcastHub, lobbySvc, gameSvc, cfg.AllowedOrigins, cfg.BroadcastBacklog)
	httpHandler := handler.NewHTTPHandler(lobbySvc, store)

	// Router
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", httpHandler.Health)
	mux.HandleFunc("GET /api/lobbies", httpHandler.ListLobbies)
	mux.HandleFunc("GET /api/games/{id}", httpHandler.GetGame)

	// WebSocket (all gameplay runs over this)
	mux.HandleFunc("GET /ws", wsHandler.ServeWS)

	// Apply global middleware
	root := middleware.Chain(mux, middleware.Logger, middleware.CORS(cfg.AllowedOrigins))

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     root,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}

// openStore selects the Store backend from configuration. The returned
// func closes whatever connections the backend opened.
func openStore(cfg *config.Config) (repository.Store, func()) {
	switch cfg.StoreBackend {
	case "postgres":
		db, err := postgres.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Database connection failed")
		}
		log.Info().Msg("Using postgres store")
		return postgres.NewStore(db), func() { db.Close() }
	case "redis":
		client, err := redisrepo.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Redis connection failed")
		}
		log.Info().Msg("Using redis store")
		return redisrepo.NewStore(client), func() { client.Close() }
	default:
		log.Info().Msg("Using in-memory store")
		return memory.New(), func() {}
	}
}
