// @title Pagekit Sandbox API
// @version 1.0
// @description Login sandbox used as the target of the browser end-to-end suite

// @host localhost:3000
// @BasePath /

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for protected endpoints

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gti/pagekit/internal/config"
	"github.com/gti/pagekit/internal/database"
	"github.com/gti/pagekit/internal/repository"
	"github.com/gti/pagekit/internal/server"
	"github.com/gti/pagekit/internal/service"
	"github.com/gti/pagekit/internal/web"
	"go.uber.org/zap"
)

// sessionSweepInterval is how often expired sessions are purged.
const sessionSweepInterval = time.Hour

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := newLogger(cfg.Development)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	// Connect to database
	db, err := database.New(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	ctx := context.Background()
	if err := db.RunMigrations(ctx); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Seed data
	if cfg.SeedUsers {
		if err := db.SeedData(ctx); err != nil {
			log.Fatal("failed to seed data", zap.Error(err))
		}
	}

	// Initialize repositories and services
	userRepo := repository.NewUserRepository(db.Pool)
	sessionRepo := repository.NewSessionRepository(db.Pool)
	authService := service.NewAuthService(userRepo, sessionRepo, log)

	// Load templates
	templates, err := web.Templates()
	if err != nil {
		log.Fatal("failed to load templates", zap.Error(err))
	}

	e := server.New(server.Deps{
		Auth:      authService,
		DB:        db,
		Templates: templates,
		APIKey:    cfg.APIKey,
		Logger:    log,
	})

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sweepSessions(sweepCtx, authService, log)

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Port
		log.Info("starting server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
		return
	}

	log.Info("server stopped")
}

func newLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func sweepSessions(ctx context.Context, auth *service.AuthService, log *zap.Logger) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := auth.CleanExpiredSessions(ctx); err != nil {
				log.Warn("failed to clean expired sessions", zap.Error(err))
			}
		}
	}
}
