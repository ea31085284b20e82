package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/maestro/internal/server"
	"github.com/desertthunder/maestro/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultJWTSecret = "change-me"

// Serve runs the dashboard API until the context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if cfg.JWTSecret == "" {
		return fmt.Errorf("%w: server.jwt_secret (or MAESTRO_JWT_SECRET) must be set", shared.ErrConfiguration)
	}
	if cfg.JWTSecret == defaultJWTSecret {
		r.logger.Warn("server.jwt_secret is the example value; set MAESTRO_JWT_SECRET before exposing the API")
	}

	s, err := r.playlistStore(ctx)
	if err != nil {
		return err
	}
	accounts, err := r.userAccounts()
	if err != nil {
		return err
	}

	api := server.NewAPI(accounts, s, server.APIConfig{
		Secret:        []byte(cfg.JWTSecret),
		TokenTTL:      cfg.TTL(),
		AllowedOrigin: cfg.AllowedOrigin,
	}, r.logger)
	router := server.NewRouter(r.logger, []server.Middleware{server.CORS(cfg.AllowedOrigin)}, api)

	addr := cmd.String("addr")
	if addr == "" {
		addr = cfg.Addr()
	}

	r.logger.Info("starting api", "addr", addr, "origin", cfg.AllowedOrigin, "redis", r.config.Redis.Addr != "")
	return server.New(addr, router, r.logger).Run(ctx)
}
