package protocols

import (
	"slices"
	"strings"

	"peptide-tracker/internal/domain/schedule"
	"peptide-tracker/internal/platform/validation"
)

type ProtocolInput struct {
	Name      string
	StartDate string
	EndDate   *string
	Timezone  string // vacío = zona por defecto del servicio
	IsActive  *bool  // nil = true
}

type ItemInput struct {
	SubstanceID     string
	DoseValue       float64
	Frequency       schedule.Frequency
	IntervalDays    *int
	DaysOfWeek      []int
	TimeOfDay       string
	SitePlanEnabled bool
}

func (s *Service) normalizeProtocol(in ProtocolInput) (ProtocolInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Length(ErrInvalidInput, "name", in.Name, 1, 100); err != nil {
		return in, err
	}

	start, err := schedule.ParseDate(in.StartDate)
	if err != nil {
		return in, validation.Field(ErrInvalidInput, "start_date", "must be YYYY-MM-DD")
	}
	in.StartDate = schedule.FormatDate(start)

	if in.EndDate != nil && strings.TrimSpace(*in.EndDate) == "" {
		in.EndDate = nil
	}
	if in.EndDate != nil {
		end, err := schedule.ParseDate(*in.EndDate)
		if err != nil {
			return in, validation.Field(ErrInvalidInput, "end_date", "must be YYYY-MM-DD")
		}
		if end.Before(start) {
			return in, validation.Field(ErrInvalidInput, "end_date", "must not be before start_date")
		}
		e := schedule.FormatDate(end)
		in.EndDate = &e
	}

	in.Timezone = strings.TrimSpace(in.Timezone)
	if in.Timezone == "" {
		in.Timezone = s.defaultTimezone
	}
	if _, err := schedule.LoadZone(in.Timezone); err != nil {
		return in, validation.Field(ErrInvalidInput, "timezone", "unknown IANA zone")
	}

	return in, nil
}

// normalizeItem valida y limpia los campos que no aplican a la frecuencia elegida.
func normalizeItem(in ItemInput) (ItemInput, error) {
	in.SubstanceID = strings.TrimSpace(in.SubstanceID)
	if in.SubstanceID == "" {
		return in, validation.Field(ErrInvalidInput, "substance_id", "required")
	}
	if !(in.DoseValue > 0) {
		return in, validation.Field(ErrInvalidInput, "dose_value", "must be positive")
	}
	if !in.Frequency.Valid() {
		return in, validation.Field(ErrInvalidInput, "frequency", "must be one of ED, EOD, WEEKLY, CUSTOM")
	}

	switch in.Frequency {
	case schedule.CustomInterval:
		if in.IntervalDays == nil || *in.IntervalDays <= 0 {
			return in, validation.Field(ErrInvalidInput, "interval_days", "required for custom frequency")
		}
		in.DaysOfWeek = nil
	case schedule.Weekly:
		if len(in.DaysOfWeek) == 0 {
			return in, validation.Field(ErrInvalidInput, "days_of_week", "select at least one day")
		}
		days := make([]int, 0, len(in.DaysOfWeek))
		for _, d := range in.DaysOfWeek {
			if d < 0 || d > 6 {
				return in, validation.Field(ErrInvalidInput, "days_of_week", "values must be 0..6")
			}
			if !slices.Contains(days, d) {
				days = append(days, d)
			}
		}
		slices.Sort(days)
		in.DaysOfWeek = days
		in.IntervalDays = nil
	default:
		in.IntervalDays = nil
		in.DaysOfWeek = nil
	}

	tod, err := schedule.ParseTimeOfDay(in.TimeOfDay)
	if err != nil {
		return in, validation.Field(ErrInvalidInput, "time_of_day", "must be HH:MM")
	}
	in.TimeOfDay = tod.String()

	return in, nil
}
