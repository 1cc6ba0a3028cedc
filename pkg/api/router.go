// Package api serves the app over HTTP for a browser front end. AI text
// streams are delivered over a websocket.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/unowned-ai/nutriscan/pkg/app"
	"github.com/unowned-ai/nutriscan/pkg/utils"
)

func NewRouter(a *app.App) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(a.Config.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: a.Config.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}

	r.Use(sameOrigin(a.Config.CORSOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	h := &handler{
		app:    a,
		logger: utils.Component(a.Logger, "api"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return originAllowed(r, a.Config.CORSOrigins) },
		},
	}

	r.Get("/products/{barcode}", h.lookupProduct)
	r.Get("/products/{barcode}/score", h.productScore)
	r.Get("/history", h.listHistory)

	r.Get("/profile", h.getProfile)
	r.Put("/profile", h.putProfile)
	r.Post("/profile/derive", h.deriveGoals)

	r.Get("/settings", h.getSettings)
	r.Put("/settings", h.putSettings)

	r.Route("/journal", func(r chi.Router) {
		r.Get("/", h.listDays)
		r.Get("/{date}", h.getDay)
		r.Post("/{date}/meals", h.logMeal)
		r.Post("/{date}/water", h.addWater)
	})

	r.Route("/guide", func(r chi.Router) {
		r.Get("/", h.filterGuide)
		r.Get("/avoid", h.avoidList)
		r.Get("/options", h.filterOptions)
		r.Post("/foods", h.addGuideFood)
		r.Get("/foods/{name}", h.getGuideFood)
	})

	r.Route("/shopping", func(r chi.Router) {
		r.Get("/", h.listShopping)
		r.Post("/", h.addShoppingItem)
		r.Post("/{id}/toggle", h.toggleShoppingItem)
		r.Delete("/{id}", h.removeShoppingItem)
	})

	r.Route("/ai", func(r chi.Router) {
		r.Post("/analysis", h.personalizedAnalysis)
		r.Post("/compare", h.compareProducts)
		r.Post("/meal-photo", h.analyzeMealPhoto)
		r.Post("/product-images", h.analyzeProductImages)
		r.Post("/additive", h.explainAdditive)
		r.Get("/seasonal", h.seasonalFoods)
	})
	r.Get("/ws/ai/{op}", h.streamAI)

	return r
}
