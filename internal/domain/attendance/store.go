package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"attendance/internal/platform/db"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

const pgRecordColumns = `a.id, a.employee_id, COALESCE(e.first_name || ' ' || e.last_name, ''), a.date, a.clock_in_time, a.clock_out_time`

func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+pgRecordColumns+`
    FROM attendance a
    LEFT JOIN employees e ON e.id = a.employee_id
    ORDER BY a.date DESC, a.clock_in_time DESC NULLS LAST, a.id DESC
  `)
	if err != nil {
		return nil, err
	}
	return collectPgRecords(rows)
}

func (s *Store) ListByDate(ctx context.Context, date Date) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+pgRecordColumns+`
    FROM attendance a
    LEFT JOIN employees e ON e.id = a.employee_id
    WHERE a.date = $1
    ORDER BY a.id
  `, date.Time())
	if err != nil {
		return nil, err
	}
	return collectPgRecords(rows)
}

func (s *Store) ClockIn(ctx context.Context, employeeID int64, date Date, at time.Time) (Record, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Record{}, err
	}
	defer tx.Rollback(ctx)

	var open int
	if err := tx.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM attendance
    WHERE employee_id = $1 AND date = $2 AND clock_out_time IS NULL
  `, employeeID, date.Time()).Scan(&open); err != nil {
		return Record{}, err
	}
	if open > 0 {
		return Record{}, ErrAlreadyClockedIn
	}

	rec := Record{EmployeeID: employeeID, Date: date, ClockIn: &at}
	err = tx.QueryRow(ctx, `
    INSERT INTO attendance (employee_id, date, clock_in_time)
    VALUES ($1, $2, $3)
    RETURNING id
  `, employeeID, date.Time(), at).Scan(&rec.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Record{}, ErrAlreadyClockedIn
		}
		return Record{}, fmt.Errorf("insert attendance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if db.IsUniqueViolation(err) {
			return Record{}, ErrAlreadyClockedIn
		}
		return Record{}, err
	}
	return rec, nil
}

func (s *Store) ClockOut(ctx context.Context, employeeID int64, date Date, at time.Time) (Record, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Record{}, err
	}
	defer tx.Rollback(ctx)

	var rec Record
	var day time.Time
	err = tx.QueryRow(ctx, `
    UPDATE attendance
    SET clock_out_time = $3
    WHERE id = (
      SELECT id FROM attendance
      WHERE employee_id = $1 AND date = $2 AND clock_out_time IS NULL
      ORDER BY id
      LIMIT 1
      FOR UPDATE
    ) AND clock_out_time IS NULL
    RETURNING id, employee_id, date, clock_in_time, clock_out_time
  `, employeeID, date.Time(), at).Scan(&rec.ID, &rec.EmployeeID, &day, &rec.ClockIn, &rec.ClockOut)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNoOpenClockIn
	}
	if err != nil {
		return Record{}, fmt.Errorf("close attendance: %w", err)
	}
	rec.Date = DateOf(day)

	if err := tx.Commit(ctx); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func collectPgRecords(rows pgx.Rows) ([]Record, error) {
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var day time.Time
		if err := rows.Scan(&rec.ID, &rec.EmployeeID, &rec.EmployeeName, &day, &rec.ClockIn, &rec.ClockOut); err != nil {
			return nil, err
		}
		rec.Date = DateOf(day)
		out = append(out, rec)
	}
	return out, rows.Err()
}
