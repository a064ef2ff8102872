package attendance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"attendance/internal/domain/employees"
)

// EmployeeDirectory is the slice of the employee store attendance needs.
type EmployeeDirectory interface {
	Get(ctx context.Context, id int64) (employees.Employee, error)
	Count(ctx context.Context) (int, error)
}

type Service struct {
	store       StoreAPI
	employees   EmployeeDirectory
	now         func() time.Time
	reportTitle string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithReportTitle(title string) Option {
	return func(s *Service) {
		if title != "" {
			s.reportTitle = title
		}
	}
}

func NewService(store StoreAPI, directory EmployeeDirectory, opts ...Option) *Service {
	s := &Service{
		store:       store,
		employees:   directory,
		now:         time.Now,
		reportTitle: "Attendance Records",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Today() Date {
	return DateOf(s.now())
}

func (s *Service) RecordAction(ctx context.Context, input ActionInput) (Record, error) {
	date := s.Today()
	if raw := strings.TrimSpace(input.Date); raw != "" {
		parsed, err := ParseDate(raw)
		if err != nil {
			return Record{}, ErrInvalidDate
		}
		date = parsed
	}

	action := Action(strings.TrimSpace(input.Action))
	if !action.Valid() {
		return Record{}, ErrInvalidAction
	}

	employeeID, err := strconv.ParseInt(strings.TrimSpace(input.EmployeeID), 10, 64)
	if err != nil {
		return Record{}, ErrUnknownEmployee
	}
	emp, err := s.employees.Get(ctx, employeeID)
	if errors.Is(err, employees.ErrNotFound) {
		return Record{}, ErrUnknownEmployee
	}
	if err != nil {
		return Record{}, fmt.Errorf("lookup employee %d: %w", employeeID, err)
	}

	var rec Record
	switch action {
	case ActionClockIn:
		rec, err = s.store.ClockIn(ctx, emp.ID, date, s.now())
	case ActionClockOut:
		rec, err = s.store.ClockOut(ctx, emp.ID, date, s.now())
	}
	if err != nil {
		return Record{}, err
	}
	rec.EmployeeName = emp.FullName()
	return rec, nil
}

func (s *Service) List(ctx context.Context) ([]Record, error) {
	return s.store.List(ctx)
}

func (s *Service) HomeSummary(ctx context.Context) (Summary, error) {
	total, err := s.employees.Count(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("count employees: %w", err)
	}
	today := s.Today()
	records, err := s.store.ListByDate(ctx, today)
	if err != nil {
		return Summary{}, fmt.Errorf("list attendance for %s: %w", today, err)
	}
	return Summarize(today, total, records), nil
}

func (s *Service) ExportPDF(ctx context.Context, w io.Writer) error {
	records, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	return WritePDF(w, s.reportTitle, s.now(), records)
}
