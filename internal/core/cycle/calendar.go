package cycle

import "time"

// ReportKind identifies a periodic world report.
type ReportKind string

const (
	ReportDaily  ReportKind = "daily"
	ReportWeekly ReportKind = "weekly"
)

// Period is the time range a report summarises.
type Period struct {
	Start time.Time
	End   time.Time
}

// DueReports returns the reports aligned with now: daily at UTC hour 0,
// weekly additionally when that hour falls on a Monday.
func DueReports(now time.Time) []ReportKind {
	u := now.UTC()
	if u.Hour() != 0 {
		return nil
	}
	kinds := []ReportKind{ReportDaily}
	if u.Weekday() == time.Monday {
		kinds = append(kinds, ReportWeekly)
	}
	return kinds
}

// ReportPeriod returns the period ending at the UTC midnight at or before now.
func ReportPeriod(kind ReportKind, now time.Time) Period {
	u := now.UTC()
	end := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	days := 1
	if kind == ReportWeekly {
		days = 7
	}
	return Period{Start: end.AddDate(0, 0, -days), End: end}
}
