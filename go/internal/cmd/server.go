package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcourt/clutchtime/go/internal/api"
)

func setupServer(pool *pgxpool.Pool, services *Services, cfg *Config) *http.Server {
	handler := api.NewHandler(
		pool,
		services.Conditions,
		services.Sessions,
		services.Orchestrator,
		services.Feed,
	)
	router := api.NewRouter(handler, services.Hub, cfg.Server.AllowedOrigins)

	return &http.Server{
		Addr:         fmt.Sprintf(":%s", getEnv("PORT", cfg.Server.Port)),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
