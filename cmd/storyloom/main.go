// Package main is the entry point for the storyloom server.
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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/inkfable/storyloom/internal/arc"
	"github.com/inkfable/storyloom/internal/background"
	"github.com/inkfable/storyloom/internal/config"
	"github.com/inkfable/storyloom/internal/generation"
	"github.com/inkfable/storyloom/internal/prompt"
	"github.com/inkfable/storyloom/internal/repository"
	"github.com/inkfable/storyloom/internal/story"
	transport "github.com/inkfable/storyloom/internal/transport/http"
)

// noopAvatars discards character introductions when image generation
// is not configured.
type noopAvatars struct{}

func (noopAvatars) CharacterIntroduced(characterID, name, kind string) {}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := repository.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.AutoMigrate(); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	prompts := prompt.NewBuilder(cfg.HistoryLimit)
	gen, err := generation.NewModelClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.GenerationTimeout, prompts)
	if err != nil {
		log.Fatalf("failed to create model client: %v", err)
	}

	var avatars story.AvatarNotifier = noopAvatars{}
	if cfg.AvatarsEnabled() {
		renderer, err := background.NewGenaiAvatarRenderer(ctx, cfg.GoogleAPIKey, cfg.ImageModel, cfg.ImageAspectRatio)
		if err != nil {
			log.Fatalf("failed to create avatar renderer: %v", err)
		}
		worker := background.NewAvatarWorker(renderer, store.Characters, cfg.AvatarQueueSize, cfg.GenerationTimeout)
		worker.Start(ctx)
		avatars = worker
	} else {
		slog.Info("avatar generation disabled, no GOOGLE_API_KEY set")
	}

	engine := story.NewService(
		store.Sessions,
		store.Messages,
		store.Characters,
		gen,
		arc.NewRegistry(arc.Defaults()...),
		avatars,
		cfg.HistoryLimit,
	)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
			)
			return nil
		},
	}))

	transport.NewHandler(engine).RegisterRoutes(e)

	go func() {
		slog.Info("server starting", "addr", cfg.ListenAddr)
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err.Error())
	}
}
