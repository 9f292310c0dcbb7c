package http

import (
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/site-attendance/internal/domain/report"
	"github.com/cmlabs-hris/site-attendance/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type ReportHandler interface {
	GetOverview(w http.ResponseWriter, r *http.Request)
	GetEmployeeTrend(w http.ResponseWriter, r *http.Request)
	// GetProjectAnalytics serves both the all-projects and single-project views
	GetProjectAnalytics(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	reportService report.ReportService
}

func NewReportHandler(reportService report.ReportService) ReportHandler {
	return &reportHandlerImpl{
		reportService: reportService,
	}
}

// GetOverview handles GET /reports/overview
func (h *reportHandlerImpl) GetOverview(w http.ResponseWriter, r *http.Request) {
	var req report.OverviewRequest

	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			response.BadRequest(w, "invalid year parameter", nil)
			return
		}
		req.Year = year
	}

	result, err := h.reportService.Overview(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetEmployeeTrend handles GET /reports/employees/{userID}/trend
func (h *reportHandlerImpl) GetEmployeeTrend(w http.ResponseWriter, r *http.Request) {
	req := report.TrendRequest{UserID: chi.URLParam(r, "userID")}

	if monthsStr := r.URL.Query().Get("months"); monthsStr != "" {
		months, err := strconv.Atoi(monthsStr)
		if err != nil {
			response.BadRequest(w, "invalid months parameter", nil)
			return
		}
		req.Months = months
	}

	result, err := h.reportService.EmployeeTrend(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *reportHandlerImpl) GetProjectAnalytics(w http.ResponseWriter, r *http.Request) {
	req := report.ProjectAnalyticsRequest{
		Period: r.URL.Query().Get("period"),
	}

	if projectID := chi.URLParam(r, "projectID"); projectID != "" {
		req.ProjectID = &projectID
	}
	if startDate := r.URL.Query().Get("start_date"); startDate != "" {
		req.StartDate = &startDate
	}
	if endDate := r.URL.Query().Get("end_date"); endDate != "" {
		req.EndDate = &endDate
	}

	result, err := h.reportService.ProjectAnalytics(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
