package schedule

import (
	"fmt"
	"time"
)

// Plan es la parte del protocolo que necesita el generador.
type Plan struct {
	StartDate string  // YYYY-MM-DD
	EndDate   *string // YYYY-MM-DD inclusive; nil = protocolo abierto
	Timezone  string  // IANA
	OwnerID   string
}

// Rule es la regla de recurrencia de un item.
type Rule struct {
	ItemID       string
	Frequency    Frequency
	IntervalDays *int
	DaysOfWeek   []int
	TimeOfDay    string // HH:MM[:SS] en la zona del protocolo
}

// GeneratedDose es una dosis aún no persistida.
// La identidad para storage es (ProtocolItemID, ScheduledAt).
type GeneratedDose struct {
	ProtocolItemID string
	OwnerID        string
	ScheduledAt    time.Time // UTC
	Status         Status
}

// resolved agrupa las entradas ya parseadas de un Plan + Rule.
type resolved struct {
	start time.Time
	end   *time.Time
	loc   *time.Location
	tod   TimeOfDay
}

func resolve(plan Plan, rule Rule) (resolved, error) {
	start, err := ParseDate(plan.StartDate)
	if err != nil {
		return resolved{}, fmt.Errorf("start_date: %w", err)
	}

	var end *time.Time
	if plan.EndDate != nil {
		e, err := ParseDate(*plan.EndDate)
		if err != nil {
			return resolved{}, fmt.Errorf("end_date: %w", err)
		}
		end = &e
	}

	loc, err := LoadZone(plan.Timezone)
	if err != nil {
		return resolved{}, err
	}

	tod, err := ParseTimeOfDay(rule.TimeOfDay)
	if err != nil {
		return resolved{}, fmt.Errorf("time_of_day: %w", err)
	}

	return resolved{start: start, end: end, loc: loc, tod: tod}, nil
}

// GenerateDoses proyecta la regla sobre la ventana móvil del protocolo.
//
// La ventana va desde max(from, start_date) hasta RollingEndDate(start_date, end_date).
// from se reduce a su fecha de calendario en la zona del protocolo: una fecha
// UTC (ParseDate, TodayIn) se toma tal cual y cualquier otro instante se
// convierte antes de truncar. Cuando es nil se parte de start_date.
// Es una función pura: con las mismas entradas devuelve exactamente los mismos
// pares (item, instante), y la deduplicación queda a cargo del storage.
func GenerateDoses(plan Plan, rule Rule, from *time.Time) ([]GeneratedDose, error) {
	r, err := resolve(plan, rule)
	if err != nil {
		return nil, err
	}

	windowEnd := RollingEndDate(r.start, r.end, DefaultRollingWeeks)

	first := r.start
	if from != nil {
		if f := calendarDate(*from, r.loc); f.After(first) {
			first = f
		}
	}

	return expand(r, plan, rule, first, windowEnd), nil
}

// ExtendDoses es como GenerateDoses pero ancla la ventana móvil en today
// (o en start_date si today es anterior), de modo que la cobertura avanza
// con el tiempo real en cada refresco.
func ExtendDoses(plan Plan, rule Rule, today time.Time) ([]GeneratedDose, error) {
	r, err := resolve(plan, rule)
	if err != nil {
		return nil, err
	}

	anchor := DateOf(today)
	if anchor.Before(r.start) {
		anchor = r.start
	}
	windowEnd := RollingEndDate(anchor, r.end, DefaultRollingWeeks)

	return expand(r, plan, rule, anchor, windowEnd), nil
}

// GenerateDosesForProtocol aplana GenerateDoses sobre todos los items.
func GenerateDosesForProtocol(plan Plan, rules []Rule, from *time.Time) ([]GeneratedDose, error) {
	out := make([]GeneratedDose, 0)
	for _, rule := range rules {
		doses, err := GenerateDoses(plan, rule, from)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", rule.ItemID, err)
		}
		out = append(out, doses...)
	}
	return out, nil
}

func calendarDate(t time.Time, loc *time.Location) time.Time {
	if t.Location() == time.UTC {
		return DateOf(t)
	}
	return DateOf(t.In(loc))
}

func expand(r resolved, plan Plan, rule Rule, first, last time.Time) []GeneratedDose {
	out := make([]GeneratedDose, 0)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if !ShouldScheduleOnDate(day, r.start, rule.Frequency, rule.IntervalDays, rule.DaysOfWeek) {
			continue
		}
		out = append(out, GeneratedDose{
			ProtocolItemID: rule.ItemID,
			OwnerID:        plan.OwnerID,
			ScheduledAt:    At(day, r.tod, r.loc),
			Status:         StatusDue,
		})
	}
	return out
}
