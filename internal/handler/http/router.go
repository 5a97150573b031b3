package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	Logger         *slog.Logger
	AllowedOrigins []string
}

func NewRouter(opts RouterOptions, JWTService jwt.Service, payrollHandler PayrollHandler) *chi.Mux {
	r := chi.NewRouter()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/payroll", func(r chi.Router) {
				r.Route("/cycles", func(r chi.Router) {
					r.Get("/", payrollHandler.ListCycles)

					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", payrollHandler.GetCycle)
						r.Get("/details", payrollHandler.ListDetails)
						r.Get("/summary", payrollHandler.GetSummary)
						r.Get("/finalization", payrollHandler.GetFinalization)

						// Manager only
						r.Group(func(r chi.Router) {
							r.Use(middleware.RequireManager)
							r.Post("/calculate", payrollHandler.Calculate)
							r.Post("/finalize", payrollHandler.Finalize)
						})
					})

					// Manager only
					r.With(middleware.RequireManager).Post("/", payrollHandler.CreateCycle)
				})

				r.Route("/details/{id}", func(r chi.Router) {
					r.Get("/", payrollHandler.GetDetail)
					r.Post("/preview", payrollHandler.PreviewAdjustment)

					// Manager only
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireManager)
						r.Put("/bonus", payrollHandler.SetBonus)
						r.Delete("/bonus", payrollHandler.ClearBonus)
						r.Put("/deduction", payrollHandler.SetDeduction)
						r.Delete("/deduction", payrollHandler.ClearDeduction)
					})
				})
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})

	return r
}
