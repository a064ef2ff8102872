package employeeshandler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"attendance/internal/domain/employees"
	"attendance/internal/platform/metrics"
	"attendance/internal/transport/http/api"
	"attendance/internal/transport/http/middleware"
	"attendance/internal/transport/http/shared"
)

type Handler struct {
	Service *employees.Service
	Metrics *metrics.Collector
}

func NewHandler(service *employees.Service, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/employees", h.handleListEmployees)
	r.Post("/employees/new", h.handleCreateEmployee)
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "employee list failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "employee_list_failed", "failed to list employees", middleware.GetRequestID(r.Context()))
		return
	}
	if list == nil {
		list = []employees.Employee{}
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var input employees.CreateInput
	err := shared.DecodeInput(r, map[string]*string{
		"first_name": &input.FirstName,
		"last_name":  &input.LastName,
		"email":      &input.Email,
		"department": &input.Department,
		"salary":     &input.Salary,
	})
	if err != nil {
		if shared.IsBodyTooLarge(err) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	emp, err := h.Service.Create(r.Context(), input)
	if err != nil {
		var verr *employees.ValidationError
		switch {
		case errors.As(err, &verr):
			h.Metrics.RecordOutcome("employee_create.invalid")
			v := shared.NewValidator()
			v.AddEmployeeIssues(verr)
			v.Reject(w, requestID)
		case errors.Is(err, employees.ErrEmailExists):
			h.Metrics.RecordOutcome("employee_create.email_exists")
			api.Fail(w, http.StatusConflict, "employee_exists", err.Error(), requestID)
		default:
			slog.ErrorContext(r.Context(), "employee create failed", "err", err)
			api.Fail(w, http.StatusInternalServerError, "employee_create_failed", "failed to create employee", requestID)
		}
		return
	}

	h.Metrics.RecordOutcome("employee_create.ok")
	slog.InfoContext(r.Context(), "employee created", "employeeId", emp.ID, "requestId", requestID)
	api.Created(w, map[string]any{
		"employee": emp,
		"message":  "Employee added!",
	}, requestID)
}
