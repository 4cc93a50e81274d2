package primary

import (
	"context"
	"time"
)

// EconomyService defines the primary port for focus and economy reads.
type EconomyService interface {
	// SetFocus changes a city's development focus for an influence cost.
	SetFocus(ctx context.Context, req SetFocusRequest) (*SetFocusResponse, error)

	// GetCityEconomy returns the read-only economy projection of a city.
	GetCityEconomy(ctx context.Context, cityID string) (*CityEconomy, error)
}

// SetFocusRequest contains parameters for changing a city's focus.
type SetFocusRequest struct {
	CityID  string
	Focus   string
	AgentID string
	Reason  string // Optional
}

// SetFocusResponse acknowledges a focus change.
type SetFocusResponse struct {
	CityID     string
	OldFocus   string
	NewFocus   string
	Cost       int64
	FocusSetAt time.Time
}

// Balances holds a city's resource stock.
type Balances struct {
	Materials int64
	Energy    int64
	Knowledge int64
	Influence int64
}

// CityEconomy is the economy projection of one city.
type CityEconomy struct {
	CityID           string
	Balances         Balances
	StorageCap       int64
	Buildings        []*Building
	Focus            string
	FocusSetAt       *time.Time
	FocusAvailableAt *time.Time // nil when the focus may be changed now
}
