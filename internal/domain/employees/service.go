package employees

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Service struct {
	store    StoreAPI
	validate *validator.Validate
}

func NewService(store StoreAPI) *Service {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Service{store: store, validate: validate}
}

func (s *Service) List(ctx context.Context) ([]Employee, error) {
	return s.store.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Employee, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

func (s *Service) Create(ctx context.Context, input CreateInput) (Employee, error) {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = strings.TrimSpace(input.Email)
	input.Department = strings.TrimSpace(input.Department)

	var issues []FieldIssue
	if err := s.validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return Employee{}, err
		}
		for _, fe := range fieldErrs {
			issues = append(issues, FieldIssue{Field: fe.Field(), Reason: reasonFor(fe)})
		}
	}

	salary := ParseSalary(input.Salary)
	if salary < 0 {
		issues = append(issues, FieldIssue{Field: "salary", Reason: "must be zero or positive"})
	}
	if len(issues) > 0 {
		return Employee{}, &ValidationError{Issues: issues}
	}

	exists, err := s.store.EmailExists(ctx, input.Email)
	if err != nil {
		return Employee{}, fmt.Errorf("check employee email: %w", err)
	}
	if exists {
		return Employee{}, ErrEmailExists
	}

	emp := Employee{
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Email:      input.Email,
		Department: input.Department,
		Salary:     salary,
	}
	id, err := s.store.Create(ctx, emp)
	if err != nil {
		return Employee{}, err
	}
	emp.ID = id
	return emp, nil
}

// ParseSalary returns 0 for empty or unparseable input.
func ParseSalary(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
