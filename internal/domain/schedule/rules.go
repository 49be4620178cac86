package schedule

import (
	"slices"
	"time"
)

// Frequency es el tipo de recurrencia de un item de protocolo.
type Frequency string

const (
	EveryDay       Frequency = "ED"
	EveryOtherDay  Frequency = "EOD"
	Weekly         Frequency = "WEEKLY"
	CustomInterval Frequency = "CUSTOM"
)

func (f Frequency) Valid() bool {
	switch f {
	case EveryDay, EveryOtherDay, Weekly, CustomInterval:
		return true
	default:
		return false
	}
}

// ShouldScheduleOnDate decide si date lleva dosis según la regla.
//
// date y startDate son fechas de calendario (ver ParseDate); la zona horaria
// la resuelve el generador. Una regla mal configurada (WEEKLY sin días,
// CUSTOM sin intervalo, frecuencia desconocida) devuelve false: nunca falla.
func ShouldScheduleOnDate(date, startDate time.Time, freq Frequency, intervalDays *int, daysOfWeek []int) bool {
	switch freq {
	case EveryDay:
		return true

	case EveryOtherDay:
		return DaysBetween(startDate, date)%2 == 0

	case Weekly:
		if len(daysOfWeek) == 0 {
			return false
		}
		return slices.Contains(daysOfWeek, int(date.Weekday()))

	case CustomInterval:
		if intervalDays == nil || *intervalDays <= 0 {
			return false
		}
		return DaysBetween(startDate, date)%*intervalDays == 0

	default:
		return false
	}
}
