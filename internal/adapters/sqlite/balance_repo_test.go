package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/civitas/internal/adapters/sqlite"
	"github.com/example/civitas/internal/ports/secondary"
)

func TestBalanceRepository_CompareAndSet(t *testing.T) {
	db := setupTestDB(t)
	seedWorld(t, db)
	repo := sqlite.NewBalanceRepository(db)
	ctx := context.Background()

	snapshot, err := repo.GetByCity(ctx, "CITY-004")
	if err != nil {
		t.Fatalf("GetByCity failed: %v", err)
	}
	concurrent, _ := repo.GetByCity(ctx, "CITY-004")

	snapshot.Materials = 300
	snapshot.Energy = 120
	if err := repo.Update(ctx, snapshot); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	concurrent.Influence = 80
	if err := repo.Update(ctx, concurrent); !errors.Is(err, secondary.ErrStaleWrite) {
		t.Fatalf("expected ErrStaleWrite, got %v", err)
	}

	got, _ := repo.GetByCity(ctx, "CITY-004")
	if got.Materials != 300 || got.Energy != 120 || got.Influence != 50 {
		t.Errorf("unexpected balance: %+v", got)
	}
}

func TestBalanceRepository_RejectsNegative(t *testing.T) {
	db := setupTestDB(t)
	seedWorld(t, db)
	repo := sqlite.NewBalanceRepository(db)
	ctx := context.Background()

	b, _ := repo.GetByCity(ctx, "CITY-001")
	b.Materials = -1
	if err := repo.Update(ctx, b); err == nil {
		t.Error("expected check constraint failure for negative materials")
	}
}
