package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/civitas/internal/db"
	"github.com/example/civitas/internal/ports/secondary"
	"github.com/example/civitas/internal/worlderr"
)

// IdentityProvider implements secondary.AgentIdentityProvider over the
// agents and identities tables.
type IdentityProvider struct {
	db Querier
}

// NewIdentityProvider creates a new SQLite identity provider.
func NewIdentityProvider(q Querier) *IdentityProvider {
	return &IdentityProvider{db: q}
}

// GetIdentity resolves an agent. Agents without an identity row, or whose
// identity is pending or rejected, are returned unverified.
func (p *IdentityProvider) GetIdentity(ctx context.Context, agentID string) (*secondary.AgentIdentity, error) {
	var (
		id           secondary.AgentIdentity
		verification sql.NullString
		firstCity    sql.NullString
	)
	err := p.db.QueryRowContext(ctx,
		`SELECT a.id, a.display_name, i.verification_status, i.first_city_claimed_id
		FROM agents a LEFT JOIN identities i ON i.agent_id = a.id
		WHERE a.id = ?`,
		agentID,
	).Scan(&id.AgentID, &id.Name, &verification, &firstCity)
	if err == sql.ErrNoRows {
		return nil, worlderr.NotFound("get_identity", "agent %s not found", agentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}
	id.HasVerifiedIdentity = verification.String == "verified" || verification.String == "mock_verified"
	id.FirstCityClaimedID = firstCity.String
	return &id, nil
}

// RecordFirstClaim stores the first city an agent claimed.
func (p *IdentityProvider) RecordFirstClaim(ctx context.Context, agentID, cityID string) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE identities SET first_city_claimed_id = ?, updated_at = ?
		WHERE agent_id = ? AND first_city_claimed_id IS NULL`,
		cityID, db.FormatTime(time.Now()), agentID,
	)
	if err != nil {
		return fmt.Errorf("failed to record first claim: %w", err)
	}
	return nil
}

// CountAgents returns the number of registered agents.
func (p *IdentityProvider) CountAgents(ctx context.Context) (int, error) {
	var n int
	if err := p.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM agents").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count agents: %w", err)
	}
	return n, nil
}

// Ensure IdentityProvider implements the interface
var _ secondary.AgentIdentityProvider = (*IdentityProvider)(nil)
