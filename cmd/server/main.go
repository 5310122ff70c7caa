package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ctchen222/tictactoe/internal/api/controller"
	"ctchen222/tictactoe/internal/auth"
	"ctchen222/tictactoe/internal/config"
	"ctchen222/tictactoe/internal/db"
	"ctchen222/tictactoe/internal/events"
	"ctchen222/tictactoe/internal/logger"
	"ctchen222/tictactoe/internal/repository"
	"ctchen222/tictactoe/internal/server"
	"ctchen222/tictactoe/internal/session"
	"ctchen222/tictactoe/internal/telemetry"
)

func main() {
	ctx := context.Background()
	cfg := config.MustLoad()

	// Initialize telemetry
	shutdown, err := telemetry.InitOtel(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	logger.Init(cfg.LogLevel)

	// Initialize SQLite DB
	sqlDB, err := db.Connect(ctx, cfg.SQLite.Path)
	if err != nil {
		log.Fatalf("failed to connect sqlite db: %v", err)
	}
	defer sqlDB.Close()
	if err := db.InitializeSchema(ctx, sqlDB); err != nil {
		log.Fatalf("failed to initialize sqlite db: %v", err)
	}

	// Initialize Redis
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Redis.Enabled {
		rdb, err := db.NewRedisClient(ctx, cfg.Redis.Addr)
		if err != nil {
			log.Fatalf("failed to initialize redis: %v", err)
		}
		defer rdb.Close()
		publisher = events.NewRedisPublisher(rdb)
	}

	// Create repositories
	resultRepo := repository.NewResultRepository(sqlDB)

	tokens, err := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.TTL)
	if err != nil {
		log.Fatalf("failed to create token issuer: %v", err)
	}

	// Create session manager
	manager := session.NewManager(publisher, resultRepo,
		session.WithOpponentDelay(cfg.OpponentDelay),
		session.WithIdleTTL(cfg.SessionIdleTTL),
	)
	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go manager.RunJanitor(janitorCtx, cfg.JanitorInterval)

	// Create controllers
	sessionController := controller.NewSessionController(manager, tokens, resultRepo)

	// Create the Gin-based server
	srv := server.NewServer(manager, tokens, sessionController, server.WithPongWait(cfg.WSPongWait))

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv.Engine(),
	}

	go func() {
		slog.Info("http server started", "http.addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop

	slog.Info("Shutting down server...")
	stopJanitor()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	manager.CloseAll(shutdownCtx, session.CloseReasonShutdown)

	slog.Info("Server exiting")
}
