package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/huroofgame/letters-arena-backend/internal/config"
	"github.com/huroofgame/letters-arena-backend/internal/httpapi"
	"github.com/huroofgame/letters-arena-backend/internal/hub"
	"github.com/huroofgame/letters-arena-backend/internal/registry"
	"github.com/huroofgame/letters-arena-backend/internal/store"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	log, err := buildLogger(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	rec, err := store.New(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("record store init failed", zap.Error(err))
	}

	h := hub.NewHub(ctx, log, rec)
	reg := registry.New()

	// Build the router *with* the hub injected
	handler := httpapi.SetupRoutes(h, reg, registry.Anonymous{}, cfg, log)

	log.Info("listening", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func buildLogger(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
