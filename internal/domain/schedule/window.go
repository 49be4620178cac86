package schedule

import "time"

const DefaultRollingWeeks = 12

// RollingEndDate acota la generación: min(start + semanas, end).
// Sin end (protocolo abierto) siempre es start + semanas.
func RollingEndDate(startDate time.Time, endDate *time.Time, rollingWeeks int) time.Time {
	if rollingWeeks <= 0 {
		rollingWeeks = DefaultRollingWeeks
	}
	rollingEnd := startDate.AddDate(0, 0, rollingWeeks*7)

	if endDate != nil && endDate.Before(rollingEnd) {
		return *endDate
	}
	return rollingEnd
}
