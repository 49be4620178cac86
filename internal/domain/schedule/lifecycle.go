package schedule

import (
	"errors"
	"time"
)

// Status es el estado de una dosis programada.
type Status string

const (
	StatusDue     Status = "DUE"
	StatusDone    Status = "DONE"
	StatusSkipped Status = "SKIPPED"
	StatusMissed  Status = "MISSED"
)

const DefaultMissedThresholdHours = 12

var ErrInvalidTransition = errors.New("invalid status transition")

func (s Status) Valid() bool {
	switch s {
	case StatusDue, StatusDone, StatusSkipped, StatusMissed:
		return true
	default:
		return false
	}
}

// Terminal: DONE, SKIPPED y MISSED no tienen transiciones salientes.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusSkipped || s == StatusMissed
}

// Transition valida el paso current -> target.
// DUE puede ir a cualquier estado terminal; repetir el estado actual es un no-op
// (changed=false); cualquier otro movimiento es ErrInvalidTransition.
func Transition(current, target Status) (changed bool, err error) {
	if !current.Valid() || !target.Valid() {
		return false, ErrInvalidTransition
	}
	if current == target {
		return false, nil
	}
	if current != StatusDue || !target.Terminal() {
		return false, ErrInvalidTransition
	}
	return true, nil
}

// MissedCutoff: las dosis DUE programadas antes de este instante pasan a MISSED.
func MissedCutoff(now time.Time, thresholdHours int) time.Time {
	if thresholdHours <= 0 {
		thresholdHours = DefaultMissedThresholdHours
	}
	return now.Add(-time.Duration(thresholdHours) * time.Hour)
}

func IsOverdue(status Status, scheduledAt, cutoff time.Time) bool {
	return status == StatusDue && scheduledAt.Before(cutoff)
}
