// Package cli defines the civitas cobra commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/civitas/internal/ctxutil"
)

// AgentEnv names the environment variable holding the acting agent ID.
const AgentEnv = "CIVITAS_AGENT"

// WithAgentFromEnv returns a context carrying the agent named by CIVITAS_AGENT, if set.
func WithAgentFromEnv(ctx context.Context) context.Context {
	agentID := os.Getenv(AgentEnv)
	if agentID == "" {
		return ctx
	}
	ctx = ctxutil.WithActorID(ctx, agentID)
	return ctxutil.WithLogAttrs(ctx, "actor", agentID)
}

// resolveAgent picks the --agent flag, falling back to the context actor.
func resolveAgent(cmd *cobra.Command) (string, error) {
	agentID, _ := cmd.Flags().GetString("agent")
	if agentID == "" {
		agentID = ctxutil.ActorFromContext(cmd.Context())
	}
	if agentID == "" {
		return "", fmt.Errorf("no agent given: pass --agent or set %s", AgentEnv)
	}
	return agentID, nil
}

// resolveNow parses the --now flag (RFC 3339), defaulting to the current time.
func resolveNow(cmd *cobra.Command) (time.Time, error) {
	raw, _ := cmd.Flags().GetString("now")
	if raw == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: %w", raw, err)
	}
	return t.UTC(), nil
}

func addAgentFlag(cmd *cobra.Command) {
	cmd.Flags().String("agent", "", "Acting agent ID (defaults to $"+AgentEnv+")")
}

func addNowFlag(cmd *cobra.Command) {
	cmd.Flags().String("now", "", "Evaluate at this RFC 3339 time instead of the current time")
}
