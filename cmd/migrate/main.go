package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cmlabs-hris/site-attendance/internal/config"
	"github.com/cmlabs-hris/site-attendance/internal/pkg/database"
	"github.com/cmlabs-hris/site-attendance/internal/pkg/lock"
	"github.com/cmlabs-hris/site-attendance/internal/repository/postgresql"
	migrationService "github.com/cmlabs-hris/site-attendance/internal/service/migration"
)

func main() {
	reconcile := flag.Bool("reconcile", true, "merge duplicate and legacy attendance records")
	assignees := flag.Bool("assignees", true, "move the deprecated assigned engineer into assigned engineers")
	uniqueIndex := flag.Bool("unique-index", false, "create the unique (user_id, date, type) index after reconciling")
	flag.Parse()

	if err := run(*reconcile, *assignees, *uniqueIndex); err != nil {
		slog.Error("Migration failed", "error", err)
		os.Exit(1)
	}
}

func run(reconcile, assignees, uniqueIndex bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})).With(slog.String("app", "site-attendance-migrate")))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	var locker lock.Locker = lock.NewPostgresLocker(db)
	if cfg.Redis.Addr != "" {
		redisClient, err := lock.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		locker = lock.NewRedisLocker(redisClient)
	}

	attendanceRepo := postgresql.NewAttendanceRepository(db)
	svc := migrationService.NewMigrationService(
		postgresql.NewTransactor(db),
		attendanceRepo,
		postgresql.NewProjectRepository(db),
		locker,
		cfg.Migration.LockTTL,
	)

	if assignees {
		summary, err := svc.MigrateAssignees(ctx)
		if err != nil {
			return err
		}
		slog.Info("Assignee migration finished", "projects_updated", summary.ProjectsUpdated, "duration", summary.Duration)
	}

	if reconcile {
		summary, err := svc.Reconcile(ctx)
		if err != nil {
			return err
		}
		slog.Info("Reconciliation finished",
			"groups_found", summary.GroupsFound,
			"groups_processed", summary.GroupsProcessed,
			"groups_skipped", summary.GroupsSkipped,
			"records_deleted", summary.RecordsDeleted,
			"legacy_folded", summary.LegacyFolded,
			"duration", summary.Duration)
	}

	if uniqueIndex {
		if err := attendanceRepo.EnsureUniqueKeyIndex(ctx); err != nil {
			return fmt.Errorf("failed to create unique index: %w", err)
		}
		slog.Info("Unique attendance index ensured")
	}

	return nil
}
