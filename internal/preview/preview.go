// Package preview lee un protocolo desde un archivo YAML y calcula las dosis
// que generaría, sin storage ni usuarios.
package preview

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"peptide-tracker/internal/domain/protocols"
	"peptide-tracker/internal/domain/schedule"

	yaml "go.yaml.in/yaml/v3"
)

// File es el formato del archivo:
//
//	name: Recovery
//	start_date: "2025-01-01"
//	end_date: "2025-02-01"   # opcional
//	timezone: Asia/Kuala_Lumpur
//	items:
//	  - substance: BPC-157
//	    dose: 250
//	    unit: mcg
//	    frequency: WEEKLY
//	    days_of_week: [1, 3, 5]
//	    time_of_day: "08:00"
type File struct {
	Name      string  `yaml:"name"`
	StartDate string  `yaml:"start_date"`
	EndDate   *string `yaml:"end_date"`
	Timezone  string  `yaml:"timezone"`
	Items     []Item  `yaml:"items"`
}

type Item struct {
	Substance    string  `yaml:"substance"`
	Dose         float64 `yaml:"dose"`
	Unit         string  `yaml:"unit"`
	Frequency    string  `yaml:"frequency"`
	IntervalDays *int    `yaml:"interval_days"`
	DaysOfWeek   []int   `yaml:"days_of_week"`
	TimeOfDay    string  `yaml:"time_of_day"`
}

// Row es una dosis calculada, con la hora local del protocolo.
type Row struct {
	Substance string
	Dose      float64
	Unit      string
	Local     time.Time
	UTC       time.Time
}

func Parse(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return File{}, fmt.Errorf("parse protocol file: %w", err)
	}
	if len(f.Items) == 0 {
		return File{}, fmt.Errorf("parse protocol file: no items")
	}
	return f, nil
}

// Generate valida el archivo y devuelve las dosis ordenadas por instante.
// from nil = desde start_date.
func (f File) Generate(defaultTimezone string, from *time.Time) ([]Row, error) {
	inputs := make([]protocols.ItemInput, 0, len(f.Items))
	for _, it := range f.Items {
		inputs = append(inputs, protocols.ItemInput{
			SubstanceID:  it.Substance,
			DoseValue:    it.Dose,
			Frequency:    schedule.Frequency(strings.ToUpper(strings.TrimSpace(it.Frequency))),
			IntervalDays: it.IntervalDays,
			DaysOfWeek:   it.DaysOfWeek,
			TimeOfDay:    it.TimeOfDay,
		})
	}

	p, items, err := protocols.Draft(defaultTimezone, protocols.ProtocolInput{
		Name:      f.Name,
		StartDate: f.StartDate,
		EndDate:   f.EndDate,
		Timezone:  f.Timezone,
	}, inputs)
	if err != nil {
		return nil, err
	}

	gen, err := protocols.Preview(p, items, from)
	if err != nil {
		return nil, err
	}

	loc, err := schedule.LoadZone(p.Timezone)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Item, len(items))
	for i, it := range items {
		byID[it.ID] = f.Items[i]
	}

	rows := make([]Row, 0, len(gen))
	for _, g := range gen {
		src := byID[g.ProtocolItemID]
		rows = append(rows, Row{
			Substance: src.Substance,
			Dose:      src.Dose,
			Unit:      src.Unit,
			Local:     g.ScheduledAt.In(loc),
			UTC:       g.ScheduledAt,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].UTC.Before(rows[j].UTC) })
	return rows, nil
}

// Render escribe las filas como tabla.
func Render(w io.Writer, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LOCAL\tUTC\tSUBSTANCE\tDOSE")
	for _, r := range rows {
		dose := strings.TrimSpace(fmt.Sprintf("%g %s", r.Dose, r.Unit))
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			r.Local.Format("2006-01-02 Mon 15:04 MST"),
			r.UTC.Format(time.RFC3339),
			r.Substance,
			dose,
		)
	}
	return tw.Flush()
}
