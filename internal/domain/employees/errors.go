package employees

import (
	"errors"
	"strings"
)

var (
	ErrNotFound    = errors.New("employee not found")
	ErrEmailExists = errors.New("employee with this email already exists")
)

type FieldIssue struct {
	Field  string
	Reason string
}

type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Field+" "+issue.Reason)
	}
	return "invalid employee: " + strings.Join(parts, "; ")
}
