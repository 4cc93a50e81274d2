// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle output formatting, but delegate
// business logic to services.
package cli

import (
	"time"

	"github.com/fatih/color"

	"github.com/example/civitas/internal/ports/primary"
)

const timeLayout = "2006-01-02 15:04 UTC"

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(timeLayout)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// colorStatus renders a city status in its display colour.
func colorStatus(status string) string {
	switch status {
	case primary.CityStatusGoverned:
		return color.New(color.FgGreen).Sprint(status)
	case primary.CityStatusContested:
		return color.New(color.FgYellow).Sprint(status)
	case primary.CityStatusFallen:
		return color.New(color.FgRed).Sprint(status)
	default:
		return color.New(color.FgBlue).Sprint(status)
	}
}
