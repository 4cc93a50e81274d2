package app

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/example/civitas/internal/core/building"
	"github.com/example/civitas/internal/ports/primary"
	"github.com/example/civitas/internal/ports/secondary"
	"github.com/example/civitas/internal/worlderr"
)

func TestStartUpgrade_Success(t *testing.T) {
	h := newTestHarness()
	h.governedCity("CITY-001", "AGENT-001")
	h.world.editBalance("CITY-001", func(b *secondary.BalanceRecord) { b.Materials, b.Energy = 150, 50 })

	resp, err := h.buildings.StartUpgrade(context.Background(), primary.StartUpgradeRequest{
		CityID: "CITY-001", BuildingType: "FOUNDRY", AgentID: "AGENT-001", Reason: "more storage",
	})
	if err != nil {
		t.Fatalf("StartUpgrade failed: %v", err)
	}
	if resp.NextLevel != 1 || resp.CostMaterials != 100 || resp.CostEnergy != 40 {
		t.Errorf("unexpected response %+v", resp)
	}
	if !resp.CompleteAt.Equal(t0.Add(6 * time.Hour)) {
		t.Errorf("CompleteAt = %v, want %v", resp.CompleteAt, t0.Add(6*time.Hour))
	}

	bal := h.world.balance("CITY-001")
	if bal.Materials != 50 || bal.Energy != 10 {
		t.Errorf("balance after debit = %d/%d, want 50/10", bal.Materials, bal.Energy)
	}
	b := h.world.building("CITY-001", building.TypeFoundry)
	if !b.Upgrading || b.UpgradeStartedAt == nil || b.UpgradeCompleteAt == nil || b.Level != 0 {
		t.Errorf("building not marked upgrading: %+v", b)
	}
	if !b.UpdatedAt.Equal(t0) {
		t.Errorf("UpdatedAt = %v, want service clock %v", b.UpdatedAt, t0)
	}
	if got := h.world.eventTypes(); len(got) != 1 || got[0] != "BUILDING_UPGRADE_STARTED" {
		t.Errorf("events = %v", got)
	}
}

func TestStartUpgrade_Rejections(t *testing.T) {
	tests := []struct {
		name         string
		cityID       string
		buildingType string
		agentID      string
		materials    int64
		upgrading    bool
		wantKind     error
	}{
		{name: "unknown city", cityID: "CITY-404", buildingType: "GRID", agentID: "AGENT-001", materials: 500, wantKind: worlderr.ErrNotFound},
		{name: "unknown building type", cityID: "CITY-001", buildingType: "HARBOR", agentID: "AGENT-001", materials: 500, wantKind: worlderr.ErrNotFound},
		{name: "non-governor", cityID: "CITY-001", buildingType: "GRID", agentID: "AGENT-002", materials: 500, wantKind: worlderr.ErrForbidden},
		{name: "already upgrading", cityID: "CITY-001", buildingType: "GRID", agentID: "AGENT-001", materials: 500, upgrading: true, wantKind: worlderr.ErrAlreadyInProgress},
		{name: "insufficient materials", cityID: "CITY-001", buildingType: "GRID", agentID: "AGENT-001", materials: 99, wantKind: worlderr.ErrInsufficientResources},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHarness()
			h.governedCity("CITY-001", "AGENT-001")
			h.world.editBalance("CITY-001", func(b *secondary.BalanceRecord) { b.Materials, b.Energy = tt.materials, 500 })
			if tt.upgrading {
				done := t0.Add(time.Hour)
				h.world.editBuilding("CITY-001", building.TypeGrid, func(b *secondary.BuildingRecord) {
					b.Upgrading = true
					b.UpgradeStartedAt = &t0
					b.UpgradeCompleteAt = &done
				})
			}

			_, err := h.buildings.StartUpgrade(context.Background(), primary.StartUpgradeRequest{
				CityID: tt.cityID, BuildingType: tt.buildingType, AgentID: tt.agentID,
			})
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("StartUpgrade() error = %v, want %v", err, tt.wantKind)
			}
			if bal := h.world.balance("CITY-001"); bal.Materials != tt.materials || bal.Energy != 500 {
				t.Errorf("balance debited on rejection: %+v", bal)
			}
		})
	}
}

func TestStartUpgrade_PerTypeExclusivity(t *testing.T) {
	h := newTestHarness()
	h.governedCity("CITY-001", "AGENT-001")
	h.world.editBalance("CITY-001", func(b *secondary.BalanceRecord) { b.Materials, b.Energy = 700, 700 })
	ctx := context.Background()

	for _, typ := range []string{"FOUNDRY", "GRID"} {
		if _, err := h.buildings.StartUpgrade(ctx, primary.StartUpgradeRequest{CityID: "CITY-001", BuildingType: typ, AgentID: "AGENT-001"}); err != nil {
			t.Fatalf("StartUpgrade(%s) failed: %v", typ, err)
		}
	}
	_, err := h.buildings.StartUpgrade(ctx, primary.StartUpgradeRequest{CityID: "CITY-001", BuildingType: "FOUNDRY", AgentID: "AGENT-001"})
	if !errors.Is(err, worlderr.ErrAlreadyInProgress) {
		t.Errorf("second FOUNDRY upgrade error = %v, want AlreadyInProgress", err)
	}
}

func TestStartUpgrade_ConflictRollsBackDebit(t *testing.T) {
	tests := []struct {
		name  string
		stale func(w *fakeWorld)
	}{
		{name: "stale balance", stale: func(w *fakeWorld) { w.staleBalanceWrites = 100 }},
		{name: "stale building after debit", stale: func(w *fakeWorld) { w.staleBuildingWrites = 100 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHarness()
			h.governedCity("CITY-001", "AGENT-001")
			h.world.editBalance("CITY-001", func(b *secondary.BalanceRecord) { b.Materials, b.Energy = 300, 200 })
			tt.stale(h.world)

			_, err := h.buildings.StartUpgrade(context.Background(), primary.StartUpgradeRequest{
				CityID: "CITY-001", BuildingType: "FOUNDRY", AgentID: "AGENT-001",
			})
			if !errors.Is(err, worlderr.ErrConcurrencyConflict) {
				t.Fatalf("StartUpgrade error = %v, want ConcurrencyConflict", err)
			}

			bal := h.world.balance("CITY-001")
			if bal.Materials != 300 || bal.Energy != 200 || bal.Version != 1 {
				t.Errorf("balance after conflict = %+v, want 300/200 at version 1", bal)
			}
			if b := h.world.building("CITY-001", building.TypeFoundry); b.Upgrading || b.UpgradeCompleteAt != nil {
				t.Errorf("building left upgrading after conflict: %+v", b)
			}
			for _, typ := range h.world.eventTypes() {
				if typ == "BUILDING_UPGRADE_STARTED" {
					t.Errorf("upgrade event recorded despite conflict")
				}
			}
			if h.publisher.count() != 0 {
				t.Errorf("events published despite conflict")
			}
		})
	}
}

func TestStartUpgrade_RetriesSingleStaleWrite(t *testing.T) {
	h := newTestHarness()
	h.governedCity("CITY-001", "AGENT-001")
	h.world.editBalance("CITY-001", func(b *secondary.BalanceRecord) { b.Materials, b.Energy = 300, 200 })
	h.world.staleBuildingWrites = 1

	if _, err := h.buildings.StartUpgrade(context.Background(), primary.StartUpgradeRequest{
		CityID: "CITY-001", BuildingType: "FOUNDRY", AgentID: "AGENT-001",
	}); err != nil {
		t.Fatalf("StartUpgrade failed after retry: %v", err)
	}

	// one debit only, despite the retried attempt
	if bal := h.world.balance("CITY-001"); bal.Materials != 200 || bal.Energy != 160 {
		t.Errorf("balance = %d/%d, want 200/160", bal.Materials, bal.Energy)
	}
	if got := h.world.eventTypes(); len(got) != 1 {
		t.Errorf("events = %v, want one upgrade event", got)
	}
}

func TestCompleteUpgrades_Idempotent(t *testing.T) {
	h := newTestHarness()
	h.governedCity("CITY-001", "AGENT-001")
	h.world.editBalance("CITY-001", func(b *secondary.BalanceRecord) { b.Materials, b.Energy = 200, 200 })
	ctx := context.Background()

	if _, err := h.buildings.StartUpgrade(ctx, primary.StartUpgradeRequest{CityID: "CITY-001", BuildingType: "FOUNDRY", AgentID: "AGENT-001"}); err != nil {
		t.Fatalf("StartUpgrade failed: %v", err)
	}

	early, err := h.buildings.CompleteUpgrades(ctx, "CITY-001", t0.Add(5*time.Hour))
	if err != nil {
		t.Fatalf("CompleteUpgrades failed: %v", err)
	}
	if len(early.Completed) != 0 {
		t.Fatalf("upgrade completed early: %+v", early.Completed)
	}

	due := t0.Add(6 * time.Hour)
	first, err := h.buildings.CompleteUpgrades(ctx, "CITY-001", due)
	if err != nil {
		t.Fatalf("CompleteUpgrades failed: %v", err)
	}
	if len(first.Completed) != 1 || first.Completed[0].Level != 1 {
		t.Fatalf("expected FOUNDRY at level 1, got %+v", first.Completed)
	}
	after := h.world.building("CITY-001", building.TypeFoundry)
	if after.Upgrading || after.UpgradeStartedAt != nil || after.UpgradeCompleteAt != nil {
		t.Errorf("completed building keeps upgrade state: %+v", after)
	}
	if !after.UpdatedAt.Equal(due) {
		t.Errorf("UpdatedAt = %v, want completion sweep time %v", after.UpdatedAt, due)
	}

	second, err := h.buildings.CompleteUpgrades(ctx, "CITY-001", due)
	if err != nil {
		t.Fatalf("second CompleteUpgrades failed: %v", err)
	}
	if len(second.Completed) != 0 {
		t.Errorf("second sweep completed %+v", second.Completed)
	}
	if again := h.world.building("CITY-001", building.TypeFoundry); !reflect.DeepEqual(again, after) {
		t.Errorf("second sweep changed building: %+v -> %+v", after, again)
	}

	events := h.world.eventTypes()
	if len(events) != 2 || events[1] != "BUILDING_UPGRADE_COMPLETED" {
		t.Errorf("events = %v", events)
	}
}
