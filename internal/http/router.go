package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/labtrack/internal/http/catalog"
	"github.com/MrJamesThe3rd/labtrack/internal/http/export"
	"github.com/MrJamesThe3rd/labtrack/internal/http/order"
	"github.com/MrJamesThe3rd/labtrack/internal/http/scan"
	"github.com/MrJamesThe3rd/labtrack/internal/identity"
)

type Handlers struct {
	Orders  *order.Handler
	Export  *export.Handler
	Scan    *scan.Handler
	Catalog *catalog.Handler
}

func New(h Handlers, verifier *identity.Verifier, allowedOrigins []string) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", identity.SectorHeader},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(identity.Middleware(verifier))

		r.Route("/orders", func(r chi.Router) {
			h.Orders.Routes(r)
			h.Export.Routes(r)
		})

		r.Route("/scan", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Scan.Routes(r)
		})

		r.Route("/catalog", h.Catalog.Routes)
	})

	return router
}
