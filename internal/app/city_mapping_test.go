package app

import (
	"context"
	"errors"
	"testing"

	"github.com/example/civitas/internal/core/city"
	"github.com/example/civitas/internal/ports/secondary"
	"github.com/example/civitas/internal/worlderr"
)

func TestWriteCity_RejectsBrokenInvariants(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s city.State) city.State
		wantErr bool
	}{
		{name: "valid claim", mutate: func(s city.State) city.State { return city.ApplyClaim(s, "AGENT-001", t0) }},
		{name: "governed without governor", mutate: func(s city.State) city.State { s.Status = city.StatusGoverned; return s }, wantErr: true},
		{name: "open with governor", mutate: func(s city.State) city.State { s.GovernorID = "AGENT-001"; return s }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHarness()
			h.world.addCity("CITY-001")

			err := h.world.WithinTx(context.Background(), func(ctx context.Context, st secondary.Store) error {
				record, err := st.Cities().GetByID(ctx, "CITY-001")
				if err != nil {
					return err
				}
				return writeCity(ctx, st, record, tt.mutate(cityState(record)))
			})

			c := h.world.city("CITY-001")
			if tt.wantErr {
				if !errors.Is(err, worlderr.ErrInvalidState) {
					t.Fatalf("writeCity error = %v, want InvalidState", err)
				}
				if c.Status != "OPEN" || c.GovernorID != "" || c.Version != 1 {
					t.Errorf("city written despite broken invariant: %+v", c)
				}
				return
			}
			if err != nil {
				t.Fatalf("writeCity failed: %v", err)
			}
			if c.Status != "GOVERNED" || c.GovernorID != "AGENT-001" || c.Version != 2 {
				t.Errorf("city not written: %+v", c)
			}
		})
	}
}
