package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/civitas/internal/adapters/sqlite"
	"github.com/example/civitas/internal/ports/secondary"
)

func TestTransactor_RollsBackOnError(t *testing.T) {
	db := setupTestDB(t)
	seedWorld(t, db)
	tx := sqlite.NewTransactor(db)
	ctx := context.Background()
	boom := errors.New("boom")

	err := tx.WithinTx(ctx, func(ctx context.Context, s secondary.Store) error {
		bal, err := s.Balances().GetByCity(ctx, "CITY-001")
		if err != nil {
			return err
		}
		bal.Materials = 400
		if err := s.Balances().Update(ctx, bal); err != nil {
			return err
		}
		return s.Events().Append(ctx, &secondary.EventRecord{Type: "BUILDING_UPGRADE_STARTED", CityID: "CITY-001", OccurredAt: seedTime})
	})
	if err != nil {
		t.Fatalf("first tx failed: %v", err)
	}

	err = tx.WithinTx(ctx, func(ctx context.Context, s secondary.Store) error {
		bal, err := s.Balances().GetByCity(ctx, "CITY-001")
		if err != nil {
			return err
		}
		bal.Materials = 0
		if err := s.Balances().Update(ctx, bal); err != nil {
			return err
		}
		if err := s.Events().Append(ctx, &secondary.EventRecord{Type: "X", OccurredAt: seedTime}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	store := sqlite.NewStore(db)
	bal, _ := store.Balances().GetByCity(ctx, "CITY-001")
	if bal.Materials != 400 {
		t.Errorf("Materials = %d, want 400 after rollback", bal.Materials)
	}
	events, _ := store.Events().List(ctx, secondary.EventFilters{})
	if len(events) != 1 {
		t.Errorf("expected 1 committed event, got %d", len(events))
	}
}

func TestReportWriter_Generate(t *testing.T) {
	db := setupTestDB(t)
	seedWorld(t, db)
	seedAgent(t, db, "AGENT-001", "verified")
	seedAgent(t, db, "AGENT-002", "pending")
	seedGovernedCity(t, db, "CITY-001", "AGENT-001", seedTime)
	store := sqlite.NewStore(db)
	ctx := context.Background()

	start := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	for _, at := range []time.Time{start.Add(time.Hour), start.Add(2 * time.Hour), end.Add(time.Hour)} {
		if err := store.Events().Append(ctx, &secondary.EventRecord{Type: "BEACON_EMITTED", CityID: "CITY-001", OccurredAt: at}); err != nil {
			t.Fatal(err)
		}
	}

	req := secondary.ReportRequest{Kind: "daily", PeriodStart: start, PeriodEnd: end, GeneratedAt: end}
	report, created, err := store.Reports().Generate(ctx, req)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !created {
		t.Error("expected a new report")
	}
	m := report.Metrics
	if m.CitiesByStatus["GOVERNED"] != 1 || m.CitiesByStatus["OPEN"] != 9 {
		t.Errorf("CitiesByStatus = %v", m.CitiesByStatus)
	}
	if m.EventsByType["BEACON_EMITTED"] != 2 {
		t.Errorf("EventsByType = %v", m.EventsByType)
	}
	if m.AgentCount != 2 {
		t.Errorf("AgentCount = %d, want 2", m.AgentCount)
	}

	again, created, err := store.Reports().Generate(ctx, req)
	if err != nil {
		t.Fatalf("second Generate failed: %v", err)
	}
	if created || again.ID != report.ID {
		t.Errorf("expected existing report %s, got %s (created=%v)", report.ID, again.ID, created)
	}
}
