package attendance

import (
	"context"
	"time"
)

type StoreAPI interface {
	// List returns every record, newest day first, then latest clock-in.
	List(ctx context.Context) ([]Record, error)
	ListByDate(ctx context.Context, date Date) ([]Record, error)
	// ClockIn opens a record unless one is already open for the employee
	// and day, in which case it returns ErrAlreadyClockedIn.
	ClockIn(ctx context.Context, employeeID int64, date Date, at time.Time) (Record, error)
	// ClockOut closes the open record for the employee and day, or returns
	// ErrNoOpenClockIn.
	ClockOut(ctx context.Context, employeeID int64, date Date, at time.Time) (Record, error)
}
