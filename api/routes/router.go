package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/craftmarket/bundles-backend/api/controllers"
	"github.com/craftmarket/bundles-backend/api/middleware"
	"github.com/craftmarket/bundles-backend/internal/bundles"
	"github.com/craftmarket/bundles-backend/pkg/config"
	"github.com/craftmarket/bundles-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness map[string]controllers.Pinger,
	bundleService bundles.Service,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1/seller/bundles", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/", controllers.SellerListBundles(bundleService, logg))
		r.Delete("/{bundleId}", controllers.SellerDeleteBundle(bundleService, logg))
		r.Post("/{bundleId}/drafts", controllers.SellerOpenBundle(bundleService, logg))

		r.Post("/drafts", controllers.SellerCreateDraft(bundleService, logg))
		r.Route("/drafts/{draftId}", func(r chi.Router) {
			r.Get("/", controllers.SellerGetDraft(bundleService, logg))
			r.Patch("/", controllers.SellerUpdateDraft(bundleService, logg))
			r.Delete("/", controllers.SellerDiscardDraft(bundleService, logg))

			r.Post("/items", controllers.SellerAddItem(bundleService, logg))
			r.Post("/items/reorder", controllers.SellerReorderItems(bundleService, logg))
			r.Patch("/items/{itemId}", controllers.SellerSetItemQuantity(bundleService, logg))
			r.Delete("/items/{itemId}", controllers.SellerRemoveItem(bundleService, logg))

			r.Put("/discount", controllers.SellerSetDiscount(bundleService, logg))
			r.Post("/save", controllers.SellerSaveDraft(bundleService, logg))
			r.Post("/retry-items", controllers.SellerRetryItems(bundleService, logg))
		})
	})

	return r
}
