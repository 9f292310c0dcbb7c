package http

import (
	"net/http"

	"github.com/cmlabs-hris/site-attendance/internal/domain/migration"
	"github.com/cmlabs-hris/site-attendance/internal/handler/http/response"
)

type MigrationHandler interface {
	Reconcile(w http.ResponseWriter, r *http.Request)
	MigrateAssignees(w http.ResponseWriter, r *http.Request)
}

type migrationHandlerImpl struct {
	migrationService migration.MigrationService
}

func NewMigrationHandler(migrationService migration.MigrationService) MigrationHandler {
	return &migrationHandlerImpl{
		migrationService: migrationService,
	}
}

// Reconcile handles POST /admin/migrations/reconcile
func (h *migrationHandlerImpl) Reconcile(w http.ResponseWriter, r *http.Request) {
	summary, err := h.migrationService.Reconcile(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Reconciliation completed", summary)
}

// MigrateAssignees handles POST /admin/migrations/assignees
func (h *migrationHandlerImpl) MigrateAssignees(w http.ResponseWriter, r *http.Request) {
	summary, err := h.migrationService.MigrateAssignees(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Assignee migration completed", summary)
}
