package schedule

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidDate      = errors.New("invalid calendar date")
	ErrInvalidTimeOfDay = errors.New("invalid time of day")
	ErrInvalidTimezone  = errors.New("invalid timezone")
)

const DateLayout = "2006-01-02"

// ParseDate interpreta "YYYY-MM-DD" como fecha de calendario.
// Las fechas se representan como medianoche UTC: así la resta entre dos
// fechas siempre da días enteros, sin importar el DST de ninguna zona.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// DateOf reduce un instante a su fecha de calendario, vista en la zona del propio instante.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween devuelve to - from en días de calendario completos.
func DaysBetween(from, to time.Time) int {
	diff := DateOf(to).Sub(DateOf(from))
	return int(math.Round(diff.Hours() / 24))
}

// TodayIn devuelve la fecha de calendario de now en loc.
func TodayIn(now time.Time, loc *time.Location) time.Time {
	return DateOf(now.In(loc))
}

// TimeOfDay es una hora de reloj de pared, sin zona.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay acepta "HH:MM" o "HH:MM:SS". Los segundos se validan pero no se usan.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}

	limits := []int{23, 59, 59}
	values := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || len(p) == 0 || len(p) > 2 || n < 0 || n > limits[i] {
			return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
		}
		values[i] = n
	}

	return TimeOfDay{Hour: values[0], Minute: values[1]}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// LoadZone resuelve un nombre IANA. No hay zona por defecto: un nombre vacío
// o "Local" (depende de la máquina) también es un error de configuración.
func LoadZone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "Local" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTimezone, name, err)
	}
	return loc, nil
}

// At combina una fecha de calendario con una hora de reloj en loc y devuelve el instante UTC.
// time.Date aplica el offset vigente en esa fecha concreta (DST incluido).
func At(date time.Time, tod TimeOfDay, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, tod.Hour, tod.Minute, 0, 0, loc).UTC()
}
