package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/qr-attendance-go/internal/config"
	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/auth"
	"github.com/cmlabs-hris/qr-attendance-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/qr-attendance-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(cfg config.AppConfig, logger *slog.Logger, JWTService jwt.Service, attendanceHandler AttendanceHandler, dashboardHandler DashboardHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
		// The stream token travels in the query string
		Skip: func(req *http.Request, respStatus int) bool {
			return req.URL.Path == "/api/v1/dashboard/stream"
		},
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// Authenticated by its own short-lived token
		r.Get("/dashboard/stream", dashboardHandler.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/attendance", func(r chi.Router) {
				r.Use(middleware.RequireRole(auth.RoleKiosk, auth.RoleAdmin))

				r.Post("/scan", attendanceHandler.Scan)
				r.Post("/actions", attendanceHandler.RecordAction)
				r.Route("/employees/{employeeID}", func(r chi.Router) {
					r.Get("/next-action", attendanceHandler.NextAction)
					r.Get("/state", attendanceHandler.CurrentState)
				})

				r.Get("/", attendanceHandler.List)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", attendanceHandler.Get)

					// Admin only
					r.With(middleware.AdminOnly).Delete("/", attendanceHandler.Delete)
				})
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Use(middleware.AdminOnly)

				r.Get("/today", dashboardHandler.Today)
				r.Get("/summary", dashboardHandler.Summary)
				r.Post("/stream-token", dashboardHandler.StreamToken)
			})
		})
	})
	return r
}
