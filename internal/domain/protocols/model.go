package protocols

import (
	"time"

	"peptide-tracker/internal/domain/schedule"
)

// Protocol agrupa items que comparten fechas y zona horaria.
type Protocol struct {
	ID      string
	OwnerID string

	Name      string
	StartDate string  // YYYY-MM-DD
	EndDate   *string // inclusive; nil = abierto (ventana móvil)
	Timezone  string  // IANA
	IsActive  bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Item es una regla de dosificación dentro de un protocolo.
type Item struct {
	ID          string
	ProtocolID  string
	SubstanceID string

	DoseValue    float64
	Frequency    schedule.Frequency
	IntervalDays *int  // sólo CUSTOM
	DaysOfWeek   []int // sólo WEEKLY, 0=domingo
	TimeOfDay    string

	SitePlanEnabled bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Protocol) Plan() schedule.Plan {
	return schedule.Plan{
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		Timezone:  p.Timezone,
		OwnerID:   p.OwnerID,
	}
}

func (it Item) Rule() schedule.Rule {
	return schedule.Rule{
		ItemID:       it.ID,
		Frequency:    it.Frequency,
		IntervalDays: it.IntervalDays,
		DaysOfWeek:   it.DaysOfWeek,
		TimeOfDay:    it.TimeOfDay,
	}
}

func rules(items []Item) []schedule.Rule {
	out := make([]schedule.Rule, 0, len(items))
	for _, it := range items {
		out = append(out, it.Rule())
	}
	return out
}
