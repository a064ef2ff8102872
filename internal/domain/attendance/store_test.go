package attendance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"attendance/internal/domain/employees"
	"attendance/internal/platform/config"
	"attendance/internal/platform/db"
)

func TestPostgresClockInAndOut(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, config.Config{DatabaseURL: dbURL})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	people := employees.NewStore(pool)
	empID, err := people.Create(ctx, employees.Employee{
		FirstName: "Ana",
		LastName:  "Lee",
		Email:     fmt.Sprintf("attendance-%d@example.com", time.Now().UnixNano()),
	})
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}

	store := NewStore(pool)
	day := DateOf(time.Now())
	in := time.Now().Truncate(time.Microsecond)

	opened, err := store.ClockIn(ctx, empID, day, in)
	if err != nil {
		t.Fatalf("clock in: %v", err)
	}
	if _, err := store.ClockIn(ctx, empID, day, in); !errors.Is(err, ErrAlreadyClockedIn) {
		t.Fatalf("expected ErrAlreadyClockedIn, got %v", err)
	}

	closed, err := store.ClockOut(ctx, empID, day, in.Add(time.Hour))
	if err != nil {
		t.Fatalf("clock out: %v", err)
	}
	if closed.ID != opened.ID || closed.State() != StateClosed {
		t.Fatalf("unexpected closed record %+v", closed)
	}
	if _, err := store.ClockOut(ctx, empID, day, in); !errors.Is(err, ErrNoOpenClockIn) {
		t.Fatalf("expected ErrNoOpenClockIn, got %v", err)
	}
}
