package employees

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"attendance/internal/platform/config"
	"attendance/internal/platform/db"
)

func TestPostgresStoreCreateAndDuplicate(t *testing.T) {
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

	store := NewStore(pool)
	email := fmt.Sprintf("store-%d@example.com", time.Now().UnixNano())
	id, err := store.Create(ctx, Employee{FirstName: "Ana", LastName: "Lee", Email: email})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != email || got.Department != "" || got.Salary != 0 {
		t.Fatalf("unexpected employee %+v", got)
	}

	if _, err := store.Create(ctx, Employee{FirstName: "Ann", LastName: "Li", Email: email}); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}
