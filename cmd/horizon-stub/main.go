// Command horizon-stub runs the local stub backend: the full Horizon
// REST contract served from an in-memory store, for development and
// demos without the production API.
package main

import (
	"github.com/joho/godotenv"

	"github.com/peertask/horizon/internal/api"
	"github.com/peertask/horizon/internal/infrastructure/config"
	"github.com/peertask/horizon/internal/infrastructure/memory"
	"github.com/peertask/horizon/pkg/logger"
)

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	backend := memory.NewBackend(cfg.Stub.JWTSecret, cfg.Stub.TokenTTL)
	e := api.NewRouter(backend, log)

	log.Info().
		Str("port", cfg.Stub.Port).
		Str("env", cfg.Env).
		Msg("starting stub backend")

	if err := e.Start(":" + cfg.Stub.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
