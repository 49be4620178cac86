package sites

import "time"

// UsageLog es lo mínimo que la rotación necesita de un registro de inyección.
type UsageLog struct {
	Site       string
	ActualTime time.Time
}

// SuggestNextSite elige el sitio usado hace más tiempo (LRU).
//
// recent viene ordenado del más reciente al más antiguo. Gana el primer sitio
// del catálogo que nunca aparece; si todos aparecen, el que aparece por primera
// vez más tarde en la lista. Los empates se resuelven por orden de catálogo.
func SuggestNextSite(recent []string) Site {
	firstSeen := make(map[string]int, len(recent))
	for i, id := range recent {
		if _, ok := firstSeen[id]; !ok {
			firstSeen[id] = i
		}
	}

	best := catalog[0]
	bestIdx := -1
	for _, s := range catalog {
		idx, used := firstSeen[s.ID]
		if !used {
			return s
		}
		if idx > bestIdx {
			best, bestIdx = s, idx
		}
	}
	return best
}

// BuildSiteUsageMap devuelve la última vez que se usó cada sitio.
// Espera logs del más reciente al más antiguo: la primera aparición gana.
func BuildSiteUsageMap(logs []UsageLog) map[string]time.Time {
	out := make(map[string]time.Time)
	for _, l := range logs {
		if l.Site == "" {
			continue
		}
		if _, ok := out[l.Site]; !ok {
			out[l.Site] = l.ActualTime
		}
	}
	return out
}

// RecentSiteIDs proyecta los logs a la lista que espera SuggestNextSite.
func RecentSiteIDs(logs []UsageLog) []string {
	out := make([]string, 0, len(logs))
	for _, l := range logs {
		if l.Site != "" {
			out = append(out, l.Site)
		}
	}
	return out
}
