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

	router "github.com/dkeye/Attend/internal/adapters/http"
	"github.com/dkeye/Attend/internal/app"
	"github.com/dkeye/Attend/internal/app/orch"
	"github.com/dkeye/Attend/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, keeping info")
	}

	o, err := newOrchestrator(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("bad session config")
	}

	r := router.SetupRouter(ctx, cfg, o)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Attend server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
			cancel()
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

func newOrchestrator(cfg *config.Config) (*orch.Orchestrator, error) {
	hostPolicy, err := app.ParseHostPolicy(cfg.Session.HostPolicy)
	if err != nil {
		return nil, err
	}
	policy, err := app.ParseBackpressure(cfg.Session.Backpressure)
	if err != nil {
		return nil, err
	}

	o := orch.New(app.NewRegistry(), app.NewRoomTable())
	o.Policy = policy
	o.HostPolicy = hostPolicy
	o.NotifyExistingPeers = cfg.Session.NotifyExistingPeers
	o.HandshakeTimeout = cfg.Session.HandshakeTimeout
	return o, nil
}
