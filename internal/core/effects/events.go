package effects

import "time"

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// CityClaimed is emitted when an agent claims an open city.
func CityClaimed(cityID, agentID, cityName string, at time.Time) EventEffect {
	return EventEffect{
		Type:       EventCityClaimed,
		CityID:     cityID,
		AgentID:    agentID,
		Payload:    map[string]any{"city_name": cityName},
		OccurredAt: at,
	}
}

// BeaconStreak describes how a beacon moved the city's streak.
type BeaconStreak struct {
	Recovered      bool // the beacon lifted a contest
	Continued      bool // the previous beacon was inside the window
	PreviousStreak int
	Streak         int
}

// BeaconEmitted is emitted for an on-time or late beacon on a governed city,
// CityRecovered when the beacon lifted a contest.
func BeaconEmitted(cityID, agentID, beaconID, message string, streak BeaconStreak, at time.Time) EventEffect {
	typ := EventBeaconEmitted
	if streak.Recovered {
		typ = EventCityRecovered
	}
	return EventEffect{
		Type:    typ,
		CityID:  cityID,
		AgentID: agentID,
		Payload: map[string]any{
			"beacon_id":        beaconID,
			"message":          message,
			"recovered":        streak.Recovered,
			"streak_continued": streak.Continued,
			"previous_streak":  streak.PreviousStreak,
			"streak_days":      streak.Streak,
		},
		OccurredAt: at,
	}
}

// CityContested is emitted by the overdue sweep.
func CityContested(cityID, governorID, cityName string, lastBeaconAt *time.Time, previousStreak int, at time.Time) EventEffect {
	return EventEffect{
		Type:    EventCityContested,
		CityID:  cityID,
		AgentID: governorID,
		Payload: map[string]any{
			"city_name":       cityName,
			"last_beacon_at":  formatTime(lastBeaconAt),
			"previous_streak": previousStreak,
		},
		OccurredAt: at,
	}
}

// UpgradeStarted is emitted when a building upgrade is queued.
func UpgradeStarted(cityID, agentID, buildingType string, level, nextLevel int, materials, energy int64, completeAt time.Time, reason string, at time.Time) EventEffect {
	return EventEffect{
		Type:    EventBuildingUpgradeStarted,
		CityID:  cityID,
		AgentID: agentID,
		Payload: map[string]any{
			"type":        buildingType,
			"level":       level,
			"next_level":  nextLevel,
			"cost":        map[string]any{"materials": materials, "energy": energy},
			"complete_at": completeAt.UTC().Format(time.RFC3339),
			"reason":      reason,
		},
		OccurredAt: at,
	}
}

// UpgradeCompleted is emitted by the completion sweep.
func UpgradeCompleted(cityID, buildingID, buildingType string, newLevel int, at time.Time) EventEffect {
	return EventEffect{
		Type:   EventBuildingUpgradeCompleted,
		CityID: cityID,
		Payload: map[string]any{
			"building_id": buildingID,
			"type":        buildingType,
			"new_level":   newLevel,
		},
		OccurredAt: at,
	}
}

// FocusChanged is emitted when a governor pays to change the city focus.
func FocusChanged(cityID, agentID, oldFocus, newFocus string, cost int64, reason string, at time.Time) EventEffect {
	return EventEffect{
		Type:    EventDevelopmentFocusChanged,
		CityID:  cityID,
		AgentID: agentID,
		Payload: map[string]any{
			"old":    oldFocus,
			"new":    newFocus,
			"cost":   cost,
			"reason": reason,
		},
		OccurredAt: at,
	}
}

// ReportGenerated is emitted when a periodic world report is stored.
func ReportGenerated(reportID, kind string, periodStart, periodEnd, at time.Time) EventEffect {
	return EventEffect{
		Type: EventReportGenerated,
		Payload: map[string]any{
			"report_id":    reportID,
			"kind":         kind,
			"period_start": periodStart.UTC().Format(time.RFC3339),
			"period_end":   periodEnd.UTC().Format(time.RFC3339),
		},
		OccurredAt: at,
	}
}

// Events flattens effects into the event effects they contain.
func Events(effs []Effect) []EventEffect {
	var out []EventEffect
	for _, eff := range effs {
		switch typed := eff.(type) {
		case EventEffect:
			out = append(out, typed)
		case CompositeEffect:
			out = append(out, Events(typed.Effects)...)
		}
	}
	return out
}
