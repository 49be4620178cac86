package substances

import "time"

// Substance es un compuesto que el usuario administra (p.ej. un péptido).
// Unit es la unidad en la que se expresa dose_value de los items.
type Substance struct {
	ID      string
	OwnerID string

	Name  string
	Unit  string // mcg, mg, IU...
	Route string // opcional: subcutaneous, intramuscular...
	Notes string

	CreatedAt time.Time
	UpdatedAt time.Time
}
