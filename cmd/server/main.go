package main

import (
	"context"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-mongo-skeleton/internal/clock"
	"github.com/tbourn/go-mongo-skeleton/internal/config"
	httpapi "github.com/tbourn/go-mongo-skeleton/internal/http"
	"github.com/tbourn/go-mongo-skeleton/internal/observability"
	"github.com/tbourn/go-mongo-skeleton/internal/repo"
	"github.com/tbourn/go-mongo-skeleton/internal/server"
	"github.com/tbourn/go-mongo-skeleton/internal/sysutil"
)

// set with -ldflags "-X main.buildVersion=..."
var buildVersion = "dev"

const teardownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("error resolving configuration")
	}

	logger := sysutil.SetupLogger(os.Stderr, cfg.Diagnostics.LogLevel, cfg.Diagnostics.LogPretty)
	gin.SetMode(cfg.HTTP.GinMode)

	logger.Info().
		Str("version", buildVersion).
		Str("run_mode", cfg.RunMode).
		Str("db_name", cfg.Database.Name).
		Str("addr", cfg.Network.Addr).
		Msg("configuration resolved")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		ev := logger.Fatal().Err(err)
		if cfg.Diagnostics.Backtrace > 0 {
			ev = ev.Bytes("stack", debug.Stack())
		}
		ev.Msg("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, observability.ServiceInfo{
		Version:     buildVersion,
		Environment: cfg.RunMode,
	})
	if err != nil {
		return err
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
		defer cancel()
		if err := shutdownOTel(tctx); err != nil {
			logger.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenMongo(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
		defer cancel()
		if err := db.Close(tctx); err != nil {
			logger.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	engine := httpapi.NewEngine(httpapi.Deps{Clock: clock.New(), DB: db}, cfg)
	return server.New(cfg.Network, cfg.HTTP, engine, logger).Run(ctx)
}
