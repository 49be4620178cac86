package injections

import (
	"time"

	"peptide-tracker/internal/domain/sites"
)

// Log registra una inyección efectivamente aplicada. Hay a lo sumo uno por dosis.
type Log struct {
	ID              string
	OwnerID         string
	ScheduledDoseID string

	ActualTime time.Time
	Site       string // id del catálogo; vacío = no registrado
	PainScore  *int   // 0..10
	Notes      string

	CreatedAt time.Time
}

// SiteUsage es un sitio del catálogo con su último uso.
type SiteUsage struct {
	Site       sites.Site
	Label      string
	LastUsedAt *time.Time
}

type SitePlan struct {
	Sites     []SiteUsage
	Suggested SiteUsage
}
