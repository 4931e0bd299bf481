package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pyth0nkod3r/coding-interview-platform/internal/adapters/auth"
	"github.com/pyth0nkod3r/coding-interview-platform/internal/adapters/directory"
	router "github.com/pyth0nkod3r/coding-interview-platform/internal/adapters/http"
	signaladapter "github.com/pyth0nkod3r/coding-interview-platform/internal/adapters/signal"
	"github.com/pyth0nkod3r/coding-interview-platform/internal/app"
	"github.com/pyth0nkod3r/coding-interview-platform/internal/config"
	"github.com/pyth0nkod3r/coding-interview-platform/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	var dir core.SessionDirectory
	switch cfg.Directory {
	case "redis":
		rd, err := directory.NewRedisDirectory(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect session directory")
		}
		defer rd.Close()
		dir = rd
	default:
		dir = directory.NewMemoryDirectory()
		log.Warn().Msg("using in-memory session directory; sessions must be seeded externally")
	}

	verifier := auth.NewJWTVerifier(cfg.Secret)
	relay := app.NewRelay(app.NewRegistry())
	ctrl := signaladapter.NewController(relay, verifier, dir, cfg)

	r := router.SetupRouter(ctx, cfg, ctrl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("signaling server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
