package employees

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"attendance/internal/platform/db"
)

type SQLiteStore struct {
	DB *sql.DB
}

func NewSQLiteStore(conn *sql.DB) *SQLiteStore {
	return &SQLiteStore{DB: conn}
}

func (s *SQLiteStore) List(ctx context.Context) ([]Employee, error) {
	rows, err := s.DB.QueryContext(ctx, `
    SELECT id, first_name, last_name, email, COALESCE(department, ''), COALESCE(salary, 0)
    FROM employees
    ORDER BY id
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		var emp Employee
		if err := rows.Scan(&emp.ID, &emp.FirstName, &emp.LastName, &emp.Email, &emp.Department, &emp.Salary); err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (Employee, error) {
	var emp Employee
	err := s.DB.QueryRowContext(ctx, `
    SELECT id, first_name, last_name, email, COALESCE(department, ''), COALESCE(salary, 0)
    FROM employees
    WHERE id = ?
  `, id).Scan(&emp.ID, &emp.FirstName, &emp.LastName, &emp.Email, &emp.Department, &emp.Salary)
	if errors.Is(err, sql.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	if err != nil {
		return Employee{}, err
	}
	return emp, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(1) FROM employees").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *SQLiteStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(1) FROM employees WHERE email = ?", email).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *SQLiteStore) Create(ctx context.Context, emp Employee) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `
    INSERT INTO employees (first_name, last_name, email, department, salary)
    VALUES (?, ?, ?, ?, ?)
  `, emp.FirstName, emp.LastName, emp.Email, nullIfEmpty(emp.Department), emp.Salary)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, ErrEmailExists
		}
		return 0, fmt.Errorf("insert employee: %w", err)
	}
	return res.LastInsertId()
}
