package sites

// Side indica el lado del cuerpo.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

type Region string

const (
	RegionAbdomen Region = "abdomen"
	RegionThigh   Region = "thigh"
	RegionArm     Region = "arm"
	RegionGlute   Region = "glute"
)

// Site es un punto de inyección subcutánea.
// X e Y son porcentajes sobre el mapa corporal (0..100).
type Site struct {
	ID      string
	Label   string
	LabelMs string
	X       float64
	Y       float64
	Side    Side
	Region  Region
}

// El orden del catálogo es parte del contrato: define el desempate de la rotación.
var catalog = []Site{
	{ID: "abd-upper-left", Label: "Upper Left Abdomen", LabelMs: "Abdomen Atas Kiri", X: 42, Y: 42, Side: SideLeft, Region: RegionAbdomen},
	{ID: "abd-upper-right", Label: "Upper Right Abdomen", LabelMs: "Abdomen Atas Kanan", X: 58, Y: 42, Side: SideRight, Region: RegionAbdomen},
	{ID: "abd-lower-left", Label: "Lower Left Abdomen", LabelMs: "Abdomen Bawah Kiri", X: 42, Y: 50, Side: SideLeft, Region: RegionAbdomen},
	{ID: "abd-lower-right", Label: "Lower Right Abdomen", LabelMs: "Abdomen Bawah Kanan", X: 58, Y: 50, Side: SideRight, Region: RegionAbdomen},
	{ID: "thigh-upper-left", Label: "Left Upper Thigh", LabelMs: "Paha Atas Kiri", X: 40, Y: 65, Side: SideLeft, Region: RegionThigh},
	{ID: "thigh-upper-right", Label: "Right Upper Thigh", LabelMs: "Paha Atas Kanan", X: 60, Y: 65, Side: SideRight, Region: RegionThigh},
	{ID: "thigh-mid-left", Label: "Left Mid Thigh", LabelMs: "Paha Tengah Kiri", X: 38, Y: 72, Side: SideLeft, Region: RegionThigh},
	{ID: "thigh-mid-right", Label: "Right Mid Thigh", LabelMs: "Paha Tengah Kanan", X: 62, Y: 72, Side: SideRight, Region: RegionThigh},
	{ID: "arm-left", Label: "Left Upper Arm", LabelMs: "Lengan Atas Kiri", X: 22, Y: 32, Side: SideLeft, Region: RegionArm},
	{ID: "arm-right", Label: "Right Upper Arm", LabelMs: "Lengan Atas Kanan", X: 78, Y: 32, Side: SideRight, Region: RegionArm},
	{ID: "glute-left", Label: "Left Glute", LabelMs: "Punggung Kiri", X: 42, Y: 58, Side: SideLeft, Region: RegionGlute},
	{ID: "glute-right", Label: "Right Glute", LabelMs: "Punggung Kanan", X: 58, Y: 58, Side: SideRight, Region: RegionGlute},
}

// All devuelve una copia del catálogo en su orden fijo.
func All() []Site {
	out := make([]Site, len(catalog))
	copy(out, catalog)
	return out
}

func ByID(id string) (Site, bool) {
	for _, s := range catalog {
		if s.ID == id {
			return s, true
		}
	}
	return Site{}, false
}

func Valid(id string) bool {
	_, ok := ByID(id)
	return ok
}

// Label devuelve la etiqueta según locale ("ms" = malayo, resto inglés).
// Un id desconocido se devuelve tal cual.
func Label(id, locale string) string {
	s, ok := ByID(id)
	if !ok {
		return id
	}
	if locale == "ms" {
		return s.LabelMs
	}
	return s.Label
}
