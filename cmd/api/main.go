package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/site-attendance/internal/config"
	appHTTP "github.com/cmlabs-hris/site-attendance/internal/handler/http"
	"github.com/cmlabs-hris/site-attendance/internal/pkg/cron"
	"github.com/cmlabs-hris/site-attendance/internal/pkg/database"
	"github.com/cmlabs-hris/site-attendance/internal/pkg/jwt"
	"github.com/cmlabs-hris/site-attendance/internal/pkg/lock"
	"github.com/cmlabs-hris/site-attendance/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/site-attendance/internal/service/attendance"
	migrationService "github.com/cmlabs-hris/site-attendance/internal/service/migration"
	reportService "github.com/cmlabs-hris/site-attendance/internal/service/report"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})).With(slog.String("app", "site-attendance")))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Redis is optional; a single instance can rely on Postgres advisory locks.
	var locker lock.Locker
	if cfg.Redis.Addr != "" {
		redisClient, err := lock.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		locker = lock.NewRedisLocker(redisClient)
		slog.Info("Using redis migration lock", "addr", cfg.Redis.Addr)
	} else {
		locker = lock.NewPostgresLocker(db)
		slog.Info("Using postgres advisory migration lock")
	}

	tx := postgresql.NewTransactor(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	projectRepo := postgresql.NewProjectRepository(db)
	reportRepo := postgresql.NewReportRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	attendanceSvc := attendanceService.NewAttendanceService(tx, attendanceRepo, projectRepo, employeeRepo)
	reportSvc := reportService.NewReportService(reportRepo, employeeRepo, projectRepo, cfg.Report.Timeout)
	migrationSvc := migrationService.NewMigrationService(tx, attendanceRepo, projectRepo, locker, cfg.Migration.LockTTL)

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			AllowedOrigins: cfg.App.AllowedOrigins,
			Env:            cfg.App.Env,
			LogLevel:       cfg.SlogLevel(),
		},
		JWTService,
		appHTTP.NewAttendanceHandler(attendanceSvc),
		appHTTP.NewReportHandler(reportSvc),
		appHTTP.NewMigrationHandler(migrationSvc),
	)

	scheduler := cron.NewScheduler()
	cron.NewReconciliationJobs(migrationSvc, cfg.Migration.ReconcileInterval, cfg.Migration.LockTTL).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
