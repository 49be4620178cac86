package doses

import (
	"time"

	"peptide-tracker/internal/domain/schedule"
)

// Dose es una ocurrencia concreta de un item de protocolo.
// (ProtocolItemID, ScheduledAt) es único.
type Dose struct {
	ID             string
	ProtocolItemID string
	OwnerID        string

	ScheduledAt time.Time // UTC
	Status      schedule.Status
	DoneAt      *time.Time

	CreatedAt time.Time
}

// ItemDetails es lo que el dashboard muestra junto a cada dosis.
type ItemDetails struct {
	ProtocolID      string
	ProtocolName    string
	SubstanceName   string
	Unit            string
	DoseValue       float64
	TimeOfDay       string
	SitePlanEnabled bool
}

type DoseView struct {
	Dose
	Item ItemDetails
}

type Dashboard struct {
	Date     string // fecha local, YYYY-MM-DD
	Timezone string
	Today    []DoseView
	Upcoming []DoseView
	// Cantidad de dosis que el barrido de esta carga pasó a MISSED.
	NewlyMissed int
}

// ListFilter acota por rango [From, To) de scheduled_at.
type ListFilter struct {
	OwnerID string
	From    time.Time
	To      time.Time
	Status  schedule.Status // vacío = todos
}
