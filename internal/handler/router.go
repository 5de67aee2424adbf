package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chatHandler "github.com/zhaowei/shopmate/internal/handler/chat"
	"github.com/zhaowei/shopmate/internal/metrics"
	middlewarePkg "github.com/zhaowei/shopmate/internal/middleware"
	chatService "github.com/zhaowei/shopmate/internal/service/chat"
	"github.com/zhaowei/shopmate/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(chatSvc *chatService.Service, stats *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Method(http.MethodGet, "/api/metrics", stats.Handler())

	r.Route("/api", func(api chi.Router) {
		chatHandler.New(chatSvc, stats).RegisterRoutes(api)
	})

	return r
}
