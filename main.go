package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	accountx "github.com/apexfin/account-agent/agent/account"
	llmx "github.com/apexfin/account-agent/agent/llm"
	"github.com/apexfin/account-agent/agent/orchestrator"
	promptx "github.com/apexfin/account-agent/agent/prompt"
	statex "github.com/apexfin/account-agent/agent/state"
	toolx "github.com/apexfin/account-agent/agent/tool"
	configx "github.com/apexfin/account-agent/pkg/config"
	_ "github.com/apexfin/account-agent/pkg/logger/autoload"
	serverx "github.com/apexfin/account-agent/server"
)

type AppConfig struct {
	Addr            string        `envconfig:"ADDR" default:":8000"`
	SessionTTL      time.Duration `envconfig:"SESSION_TTL" default:"1h"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("APP")

	llmCfg := configx.MustNew[llmx.Config]("OPENAI")
	model, err := llmx.NewClient(*llmCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize llm client")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := statex.NewMemoryStore(statex.WithTTL(appCfg.SessionTTL))
	store.StartReaper(ctx)

	factory := accountx.NewFactory()
	dispatcher := toolx.NewDispatcher(factory)

	agent, err := orchestrator.New(store, model, dispatcher, promptx.System())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize orchestrator")
	}

	handler := serverx.NewHandler(agent, factory)
	srv := &http.Server{
		Addr:              appCfg.Addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", appCfg.Addr).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}
