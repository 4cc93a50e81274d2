// Package app contains the application layer - service implementations and effect execution.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/example/civitas/internal/core/effects"
	"github.com/example/civitas/internal/ctxutil"
	"github.com/example/civitas/internal/ports/secondary"
)

// EffectExecutor interprets and executes effects.
// This is the "Imperative Shell" - the only place I/O happens.
type EffectExecutor interface {
	// Execute applies effs inside the store's transaction and returns the
	// event records it appended.
	Execute(ctx context.Context, store secondary.Store, effs []effects.Effect) ([]*secondary.EventRecord, error)
}

// DefaultEffectExecutor implements EffectExecutor against a transactional store.
type DefaultEffectExecutor struct{}

// NewEffectExecutor creates a new DefaultEffectExecutor.
func NewEffectExecutor() *DefaultEffectExecutor {
	return &DefaultEffectExecutor{}
}

// Execute processes a slice of effects, executing each in sequence.
func (e *DefaultEffectExecutor) Execute(ctx context.Context, store secondary.Store, effs []effects.Effect) ([]*secondary.EventRecord, error) {
	var recorded []*secondary.EventRecord
	for _, eff := range effs {
		recs, err := e.executeOne(ctx, store, eff)
		if err != nil {
			return nil, fmt.Errorf("failed to execute %s effect: %w", eff.EffectType(), err)
		}
		recorded = append(recorded, recs...)
	}
	return recorded, nil
}

func (e *DefaultEffectExecutor) executeOne(ctx context.Context, store secondary.Store, eff effects.Effect) ([]*secondary.EventRecord, error) {
	switch typed := eff.(type) {
	case effects.EventEffect:
		rec, err := e.executeEvent(ctx, store, typed)
		if err != nil {
			return nil, err
		}
		return []*secondary.EventRecord{rec}, nil
	case effects.CompositeEffect:
		return e.Execute(ctx, store, typed.Effects)
	case effects.NoEffect:
		return nil, nil
	case effects.LogEffect:
		e.executeLog(ctx, typed)
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown effect type: %T", eff)
	}
}

func (e *DefaultEffectExecutor) executeEvent(ctx context.Context, store secondary.Store, eff effects.EventEffect) (*secondary.EventRecord, error) {
	payload, err := json.Marshal(eff.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", eff.Type, err)
	}
	if eff.Payload == nil {
		payload = []byte("{}")
	}
	rec := &secondary.EventRecord{
		Type:       string(eff.Type),
		CityID:     eff.CityID,
		AgentID:    eff.AgentID,
		Payload:    payload,
		OccurredAt: eff.OccurredAt,
	}
	if err := store.Events().Append(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (e *DefaultEffectExecutor) executeLog(ctx context.Context, eff effects.LogEffect) {
	level := slog.LevelInfo
	switch eff.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	args := make([]any, 0, len(eff.Fields)*2)
	for k, v := range eff.Fields {
		args = append(args, k, v)
	}
	ctxutil.Logger(ctx).Log(ctx, level, eff.Message, args...)
}
