package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/davidcarrillo/adfactura-backend/api/controllers"
	"github.com/davidcarrillo/adfactura-backend/api/middleware"
	"github.com/davidcarrillo/adfactura-backend/pkg/config"
	"github.com/davidcarrillo/adfactura-backend/pkg/db"
	"github.com/davidcarrillo/adfactura-backend/pkg/enums"
	"github.com/davidcarrillo/adfactura-backend/pkg/logger"
	"github.com/davidcarrillo/adfactura-backend/pkg/redis"
)

// RouterParams carries the wired services the HTTP surface depends on.
type RouterParams struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        db.Pinger
	Redis     redis.Pinger
	Requests  controllers.RequestService
	Admin     controllers.AdminRequestService
	Dashboard controllers.DashboardService
	Companies controllers.CompanyService
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Get("/healthz", controllers.HealthLive(cfg))
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DB, params.Redis))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Calculators are pure projections and stay open to prospects.
	r.Route("/api/v1/calculator", func(r chi.Router) {
		r.Post("/billing", controllers.CalculatorBilling(logg))
		r.Post("/promo", controllers.CalculatorPromo(logg))
		r.Post("/quick", controllers.CalculatorQuick(logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(logg))

		r.Group(func(r chi.Router) {
			r.Use(
				middleware.RequireRole(enums.ActorRoleClient.String(), logg),
				middleware.RequireCompany(logg),
			)
			r.Route("/requests", func(r chi.Router) {
				r.Post("/", controllers.CreateRequest(params.Requests, logg))
				r.Get("/", controllers.ListRequests(params.Requests, logg))
				r.Get("/{requestId}", controllers.GetRequest(params.Requests, logg))
				r.Post("/{requestId}/approve", controllers.ApproveRequest(params.Requests, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.ActorRoleAdmin.String(), logg))

			r.Route("/requests", func(r chi.Router) {
				r.Get("/", controllers.AdminListRequests(params.Admin, logg))
				r.Get("/{requestId}", controllers.AdminGetRequest(params.Admin, logg))
				r.Post("/{requestId}/calculate", controllers.AdminCalculateRequest(params.Admin, logg))
				r.Post("/{requestId}/invoice", controllers.AdminEmitInvoice(params.Admin, logg))
				r.Post("/{requestId}/payment", controllers.AdminRegisterPayment(params.Admin, logg))
				r.Post("/{requestId}/recharge", controllers.AdminExecuteRecharge(params.Admin, logg))
				r.Post("/{requestId}/complete", controllers.AdminCompleteRequest(params.Admin, logg))
				r.Post("/{requestId}/fail", controllers.AdminFailRequest(params.Admin, logg))
			})

			r.Get("/metrics", controllers.AdminMetrics(params.Dashboard, logg))

			r.Route("/companies/{companyId}", func(r chi.Router) {
				r.Get("/", controllers.AdminCompanyStatus(params.Companies, logg))
				r.Post("/confirm-ruc", controllers.AdminConfirmRUC(params.Companies, logg))
			})
		})
	})

	return r
}
