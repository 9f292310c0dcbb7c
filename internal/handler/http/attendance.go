package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/site-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/site-attendance/internal/handler/http/response"
	"github.com/cmlabs-hris/site-attendance/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	Mark(w http.ResponseWriter, r *http.Request)
	Upsert(w http.ResponseWriter, r *http.Request)
	GetMyAttendance(w http.ResponseWriter, r *http.Request)
	GetUserAttendance(w http.ResponseWriter, r *http.Request)
	GetProjectDay(w http.ResponseWriter, r *http.Request)
	RemoveProjectEntry(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// Mark handles POST /attendance/mark
func (h *attendanceHandlerImpl) Mark(w http.ResponseWriter, r *http.Request) {
	var req attendance.MarkAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode mark attendance request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	// Actor always comes from the token, never the body
	if actor, err := jwt.ActorFromContext(r.Context()); err == nil {
		req.ActorID = actor.UserID
	}

	result, err := h.attendanceService.MarkAttendance(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if result.Created {
		response.Created(w, "Attendance marked", result)
		return
	}
	response.SuccessWithMessage(w, "Attendance marked", result)
}

// Upsert handles POST /attendance
func (h *attendanceHandlerImpl) Upsert(w http.ResponseWriter, r *http.Request) {
	var req attendance.UpsertAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode upsert attendance request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if actor, err := jwt.ActorFromContext(r.Context()); err == nil {
		req.ActorID = actor.UserID
	}

	result, err := h.attendanceService.CreateOrUpdateAttendance(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if result.Created {
		response.Created(w, "Attendance created", result)
		return
	}
	response.SuccessWithMessage(w, "Attendance updated", result)
}

// GetMyAttendance handles GET /attendance/me
func (h *attendanceHandlerImpl) GetMyAttendance(w http.ResponseWriter, r *http.Request) {
	actor, err := jwt.ActorFromContext(r.Context())
	if err != nil {
		response.HandleError(w, attendance.ErrActorRequired)
		return
	}

	h.listAttendance(w, r, actor.UserID)
}

// GetUserAttendance handles GET /attendance/users/{userID}
func (h *attendanceHandlerImpl) GetUserAttendance(w http.ResponseWriter, r *http.Request) {
	h.listAttendance(w, r, chi.URLParam(r, "userID"))
}

func (h *attendanceHandlerImpl) listAttendance(w http.ResponseWriter, r *http.Request, userID string) {
	filter := attendance.UserAttendanceFilter{UserID: userID}

	if startDate := r.URL.Query().Get("start_date"); startDate != "" {
		filter.StartDate = &startDate
	}
	if endDate := r.URL.Query().Get("end_date"); endDate != "" {
		filter.EndDate = &endDate
	}
	if attType := r.URL.Query().Get("type"); attType != "" {
		filter.Type = &attType
	}

	result, err := h.attendanceService.GetUserAttendance(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result, &response.Meta{TotalItems: int64(len(result))})
}

// GetProjectDay handles GET /attendance/projects/{projectID}/day
func (h *attendanceHandlerImpl) GetProjectDay(w http.ResponseWriter, r *http.Request) {
	req := attendance.ProjectDayRequest{
		ProjectID: chi.URLParam(r, "projectID"),
		Date:      r.URL.Query().Get("date"),
	}

	result, err := h.attendanceService.GetProjectDay(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// RemoveProjectEntry handles DELETE /attendance/users/{userID}/projects/{projectID}
func (h *attendanceHandlerImpl) RemoveProjectEntry(w http.ResponseWriter, r *http.Request) {
	req := attendance.RemoveProjectEntryRequest{
		UserID:    chi.URLParam(r, "userID"),
		ProjectID: chi.URLParam(r, "projectID"),
		Date:      r.URL.Query().Get("date"),
	}

	result, err := h.attendanceService.RemoveProjectEntry(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Project entry removed", result)
}

// Delete handles DELETE /attendance/{id}
func (h *attendanceHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.attendanceService.DeleteAttendance(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance deleted", nil)
}
