package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"attendance/internal/platform/db"
)

// Timestamps are stored as fixed-width UTC text so lexical order matches
// chronological order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteStore struct {
	DB *sql.DB
}

func NewSQLiteStore(conn *sql.DB) *SQLiteStore {
	return &SQLiteStore{DB: conn}
}

const sqliteRecordColumns = `a.id, a.employee_id, COALESCE(e.first_name || ' ' || e.last_name, ''), a.date, a.clock_in_time, a.clock_out_time`

func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.DB.QueryContext(ctx, `
    SELECT `+sqliteRecordColumns+`
    FROM attendance a
    LEFT JOIN employees e ON e.id = a.employee_id
    ORDER BY a.date DESC, a.clock_in_time DESC NULLS LAST, a.id DESC
  `)
	if err != nil {
		return nil, err
	}
	return collectSQLiteRecords(rows)
}

func (s *SQLiteStore) ListByDate(ctx context.Context, date Date) ([]Record, error) {
	rows, err := s.DB.QueryContext(ctx, `
    SELECT `+sqliteRecordColumns+`
    FROM attendance a
    LEFT JOIN employees e ON e.id = a.employee_id
    WHERE a.date = ?
    ORDER BY a.id
  `, date.String())
	if err != nil {
		return nil, err
	}
	return collectSQLiteRecords(rows)
}

func (s *SQLiteStore) ClockIn(ctx context.Context, employeeID int64, date Date, at time.Time) (Record, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, err
	}
	defer tx.Rollback()

	var open int
	if err := tx.QueryRowContext(ctx, `
    SELECT COUNT(1)
    FROM attendance
    WHERE employee_id = ? AND date = ? AND clock_out_time IS NULL
  `, employeeID, date.String()).Scan(&open); err != nil {
		return Record{}, err
	}
	if open > 0 {
		return Record{}, ErrAlreadyClockedIn
	}

	res, err := tx.ExecContext(ctx, `
    INSERT INTO attendance (employee_id, date, clock_in_time)
    VALUES (?, ?, ?)
  `, employeeID, date.String(), formatSQLiteTime(at))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Record{}, ErrAlreadyClockedIn
		}
		return Record{}, fmt.Errorf("insert attendance: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Record{}, err
	}

	if err := tx.Commit(); err != nil {
		return Record{}, err
	}
	return Record{ID: id, EmployeeID: employeeID, Date: date, ClockIn: &at}, nil
}

func (s *SQLiteStore) ClockOut(ctx context.Context, employeeID int64, date Date, at time.Time) (Record, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
    UPDATE attendance
    SET clock_out_time = ?
    WHERE id = (
      SELECT id FROM attendance
      WHERE employee_id = ? AND date = ? AND clock_out_time IS NULL
      ORDER BY id
      LIMIT 1
    ) AND clock_out_time IS NULL
    RETURNING id, employee_id, '', date, clock_in_time, clock_out_time
  `, formatSQLiteTime(at), employeeID, date.String())
	rec, err := scanSQLiteRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNoOpenClockIn
	}
	if err != nil {
		return Record{}, fmt.Errorf("close attendance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRecord(row rowScanner) (Record, error) {
	var rec Record
	var day string
	var clockIn, clockOut sql.NullString
	if err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.EmployeeName, &day, &clockIn, &clockOut); err != nil {
		return Record{}, err
	}

	var err error
	if rec.Date, err = ParseDate(day); err != nil {
		return Record{}, fmt.Errorf("attendance %d date: %w", rec.ID, err)
	}
	if rec.ClockIn, err = parseSQLiteTime(clockIn); err != nil {
		return Record{}, fmt.Errorf("attendance %d clock_in_time: %w", rec.ID, err)
	}
	if rec.ClockOut, err = parseSQLiteTime(clockOut); err != nil {
		return Record{}, fmt.Errorf("attendance %d clock_out_time: %w", rec.ID, err)
	}
	return rec, nil
}

func collectSQLiteRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanSQLiteRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseSQLiteTime(value sql.NullString) (*time.Time, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, value.String)
	if err != nil {
		return nil, err
	}
	local := parsed.Local()
	return &local, nil
}
