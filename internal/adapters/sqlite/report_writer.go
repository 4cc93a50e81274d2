package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/example/civitas/internal/db"
	"github.com/example/civitas/internal/ports/secondary"
)

// ReportWriter implements secondary.ReportGenerator by aggregating world
// metrics into the world_reports table.
type ReportWriter struct {
	db Querier
}

// NewReportWriter creates a new SQLite report writer.
func NewReportWriter(q Querier) *ReportWriter {
	return &ReportWriter{db: q}
}

// Generate gathers metrics for the period and stores a report.
func (w *ReportWriter) Generate(ctx context.Context, req secondary.ReportRequest) (*secondary.ReportRecord, bool, error) {
	var existingID string
	err := w.db.QueryRowContext(ctx,
		"SELECT id FROM world_reports WHERE kind = ? AND period_start = ?",
		req.Kind, db.FormatTime(req.PeriodStart),
	).Scan(&existingID)
	if err == nil {
		return &secondary.ReportRecord{
			ID:          existingID,
			Kind:        req.Kind,
			PeriodStart: req.PeriodStart,
			PeriodEnd:   req.PeriodEnd,
		}, false, nil
	}
	if err != sql.ErrNoRows {
		return nil, false, fmt.Errorf("failed to check existing report: %w", err)
	}

	metrics, err := w.gather(ctx, req)
	if err != nil {
		return nil, false, err
	}
	data, err := json.Marshal(metrics)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode report metrics: %w", err)
	}

	report := &secondary.ReportRecord{
		ID:          uuid.NewString(),
		Kind:        req.Kind,
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
		GeneratedAt: req.GeneratedAt,
		Metrics:     metrics,
	}
	_, err = w.db.ExecContext(ctx,
		"INSERT INTO world_reports (id, kind, period_start, period_end, generated_at, metrics) VALUES (?, ?, ?, ?, ?, ?)",
		report.ID, report.Kind, db.FormatTime(report.PeriodStart), db.FormatTime(report.PeriodEnd),
		db.FormatTime(report.GeneratedAt), string(data),
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to store report: %w", err)
	}
	return report, true, nil
}

func (w *ReportWriter) gather(ctx context.Context, req secondary.ReportRequest) (secondary.ReportMetrics, error) {
	var m secondary.ReportMetrics
	var err error

	if m.CitiesByStatus, err = w.countCities(ctx); err != nil {
		return m, err
	}
	if m.EventsByType, err = NewEventRepository(w.db).CountByType(ctx, req.PeriodStart, req.PeriodEnd); err != nil {
		return m, err
	}
	if m.AgentCount, err = NewIdentityProvider(w.db).CountAgents(ctx); err != nil {
		return m, err
	}
	return m, nil
}

func (w *ReportWriter) countCities(ctx context.Context) (map[string]int, error) {
	rows, err := w.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM cities GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count cities: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan city count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// Ensure ReportWriter implements the interface
var _ secondary.ReportGenerator = (*ReportWriter)(nil)
