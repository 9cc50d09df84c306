package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/huroofgame/letters-arena-backend/internal/config"
	"github.com/huroofgame/letters-arena-backend/internal/hub"
	"github.com/huroofgame/letters-arena-backend/internal/registry"
	"github.com/huroofgame/letters-arena-backend/internal/ws"
)

func SetupRoutes(h *hub.Hub, reg *registry.Registry, verifier registry.Verifier, cfg *config.Config, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/rooms", ListRooms(h))
	r.Get("/ws", ws.Handler(h, reg, verifier, cfg, log))
	r.Handle("/metrics", promhttp.Handler())
	return r
}
