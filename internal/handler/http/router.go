package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/site-attendance/internal/domain/user"
	"github.com/cmlabs-hris/site-attendance/internal/handler/http/middleware"
	"github.com/cmlabs-hris/site-attendance/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterOptions struct {
	AllowedOrigins []string
	Env            string
	LogLevel       slog.Level
}

func NewRouter(
	opts RouterOptions,
	JWTService jwt.Service,
	attendanceHandler AttendanceHandler,
	reportHandler ReportHandler,
	migrationHandler MigrationHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(opts.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "site-attendance"),
		slog.String("version", "v1.0.0"),
		slog.String("env", opts.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/attendance", func(r chi.Router) {
				// Driver assignment is checked by the service
				r.Post("/mark", attendanceHandler.Mark)
				r.Get("/me", attendanceHandler.GetMyAttendance)

				r.With(middleware.RequirePermission(user.PermissionAttendanceViewDay)).
					Get("/projects/{projectID}/day", attendanceHandler.GetProjectDay)

				// Admin or engineer
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)
					r.Post("/", attendanceHandler.Upsert)
					r.Get("/users/{userID}", attendanceHandler.GetUserAttendance)
					r.Delete("/users/{userID}/projects/{projectID}", attendanceHandler.RemoveProjectEntry)
				})

				r.With(middleware.RequireAdmin).Delete("/{id}", attendanceHandler.Delete)
			})

			r.Route("/reports", func(r chi.Router) {
				r.Use(middleware.RequireManager)
				r.Get("/overview", reportHandler.GetOverview)
				r.Get("/employees/{userID}/trend", reportHandler.GetEmployeeTrend)
				r.Get("/projects", reportHandler.GetProjectAnalytics)
				r.Get("/projects/{projectID}", reportHandler.GetProjectAnalytics)
			})

			r.Route("/admin/migrations", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Post("/reconcile", migrationHandler.Reconcile)
				r.Post("/assignees", migrationHandler.MigrateAssignees)
			})
		})
	})
	return r
}
