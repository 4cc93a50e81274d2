package cli

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/civitas/internal/ctxutil"
)

func newFlagCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	addAgentFlag(cmd)
	addNowFlag(cmd)
	cmd.SetContext(ctx)
	return cmd
}

func TestResolveAgent(t *testing.T) {
	tests := []struct {
		name    string
		ctx     context.Context
		flag    string
		want    string
		wantErr bool
	}{
		{name: "flag wins", ctx: ctxutil.WithActorID(context.Background(), "AGENT-ENV"), flag: "AGENT-FLAG", want: "AGENT-FLAG"},
		{name: "falls back to context", ctx: ctxutil.WithActorID(context.Background(), "AGENT-ENV"), want: "AGENT-ENV"},
		{name: "missing", ctx: context.Background(), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newFlagCmd(tt.ctx)
			if tt.flag != "" {
				if err := cmd.Flags().Set("agent", tt.flag); err != nil {
					t.Fatal(err)
				}
			}
			got, err := resolveAgent(cmd)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolveAgent() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("resolveAgent() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveNow(t *testing.T) {
	cmd := newFlagCmd(context.Background())
	if err := cmd.Flags().Set("now", "2026-05-04T02:00:00+02:00"); err != nil {
		t.Fatal(err)
	}
	got, err := resolveNow(cmd)
	if err != nil {
		t.Fatalf("resolveNow() error = %v", err)
	}
	if want := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC); !got.Equal(want) || got.Location() != time.UTC {
		t.Errorf("resolveNow() = %v, want %v", got, want)
	}

	bad := newFlagCmd(context.Background())
	if err := bad.Flags().Set("now", "yesterday"); err != nil {
		t.Fatal(err)
	}
	if _, err := resolveNow(bad); err == nil {
		t.Error("expected error for unparseable --now")
	}
}

func TestWithAgentFromEnv(t *testing.T) {
	t.Setenv(AgentEnv, "AGENT-007")
	ctx := WithAgentFromEnv(context.Background())
	if got := ctxutil.ActorFromContext(ctx); got != "AGENT-007" {
		t.Errorf("ActorFromContext() = %q, want AGENT-007", got)
	}

	t.Setenv(AgentEnv, "")
	if got := ctxutil.ActorFromContext(WithAgentFromEnv(context.Background())); got != "" {
		t.Errorf("ActorFromContext() = %q, want empty", got)
	}
}
