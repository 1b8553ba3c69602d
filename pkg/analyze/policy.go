package analyze

import "time"

// DefaultGraceDays is how many days into a month the previous month remains
// the reporting month.
const DefaultGraceDays = 3

// ReportingPolicy selects the month that "last month" statistics refer to.
type ReportingPolicy struct {
	GraceDays int
}

// DefaultReportingPolicy returns the three-day grace policy.
func DefaultReportingPolicy() ReportingPolicy {
	return ReportingPolicy{GraceDays: DefaultGraceDays}
}

// Month returns the reporting month for now: the previous month while now is
// within the first GraceDays days of its month, the current month otherwise.
func (p ReportingPolicy) Month(now time.Time) time.Time {
	now = now.UTC()
	current := MonthOf(now)
	if now.Day() <= p.GraceDays {
		return current.AddDate(0, -1, 0)
	}
	return current
}

// MonthOf returns midnight UTC on the first day of t's month.
func MonthOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
