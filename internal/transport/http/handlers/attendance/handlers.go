package attendancehandler

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"attendance/internal/domain/attendance"
	"attendance/internal/domain/employees"
	"attendance/internal/platform/metrics"
	"attendance/internal/transport/http/api"
	"attendance/internal/transport/http/middleware"
	"attendance/internal/transport/http/shared"
)

type Handler struct {
	Attendance *attendance.Service
	Employees  *employees.Service
	Metrics    *metrics.Collector
}

func NewHandler(attendanceService *attendance.Service, employeeService *employees.Service, collector *metrics.Collector) *Handler {
	return &Handler{Attendance: attendanceService, Employees: employeeService, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleHome)
	r.Route("/attendance", func(r chi.Router) {
		r.Get("/", h.handleForm)
		r.Post("/", h.handleRecordAction)
		r.Get("/records", h.handleListRecords)
		r.Get("/records.pdf", h.handleExportPDF)
	})
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Attendance.HomeSummary(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "home summary failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "summary_failed", "failed to load summary", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleForm(w http.ResponseWriter, r *http.Request) {
	list, err := h.Employees.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "employee list failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "employee_list_failed", "failed to list employees", middleware.GetRequestID(r.Context()))
		return
	}
	if list == nil {
		list = []employees.Employee{}
	}
	api.Success(w, map[string]any{
		"employees": list,
		"actions":   []attendance.Action{attendance.ActionClockIn, attendance.ActionClockOut},
		"today":     h.Attendance.Today(),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRecordAction(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var input attendance.ActionInput
	err := shared.DecodeInput(r, map[string]*string{
		"employee_id": &input.EmployeeID,
		"action":      &input.Action,
		"date":        &input.Date,
	})
	if err != nil {
		if shared.IsBodyTooLarge(err) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	rec, err := h.Attendance.RecordAction(r.Context(), input)
	if err != nil {
		status, code, known := actionError(err)
		if !known {
			slog.ErrorContext(r.Context(), "attendance action failed", "err", err, "action", input.Action)
			api.Fail(w, http.StatusInternalServerError, "attendance_failed", "failed to record attendance", requestID)
			return
		}
		h.Metrics.RecordOutcome(input.Action + "." + code)
		api.Fail(w, status, code, err.Error(), requestID)
		return
	}

	message := "Clocked in."
	if rec.State() == attendance.StateClosed {
		message = "Clocked out."
	}
	h.Metrics.RecordOutcome(input.Action + ".ok")
	api.Success(w, map[string]any{
		"record":  rec,
		"message": message,
	}, requestID)
}

func actionError(err error) (int, string, bool) {
	switch {
	case errors.Is(err, attendance.ErrInvalidDate):
		return http.StatusBadRequest, "invalid_date", true
	case errors.Is(err, attendance.ErrInvalidAction):
		return http.StatusBadRequest, "invalid_action", true
	case errors.Is(err, attendance.ErrUnknownEmployee):
		return http.StatusNotFound, "unknown_employee", true
	case errors.Is(err, attendance.ErrAlreadyClockedIn):
		return http.StatusConflict, "already_clocked_in", true
	case errors.Is(err, attendance.ErrNoOpenClockIn):
		return http.StatusNotFound, "no_open_clock_in", true
	default:
		return http.StatusInternalServerError, "", false
	}
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.Attendance.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "attendance list failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "attendance_list_failed", "failed to list attendance", middleware.GetRequestID(r.Context()))
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}
	api.Success(w, records, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.Attendance.ExportPDF(r.Context(), &buf); err != nil {
		slog.ErrorContext(r.Context(), "attendance export failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "attendance_export_failed", "failed to export attendance", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="attendance-`+h.Attendance.Today().String()+`.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.WarnContext(r.Context(), "write pdf failed", "err", err)
	}
}
