package injections

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"peptide-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/injections", func(ir chi.Router) {
		ir.Post("/", createLogHandler(svc))
		ir.Get("/", listLogsHandler(svc))
		ir.Get("/{logID}", getLogHandler(svc))
		ir.Put("/{logID}", updateLogHandler(svc))
		ir.Delete("/{logID}", deleteLogHandler(svc))
	})

	r.Get("/sites", sitePlanHandler(svc))
}

type createLogRequest struct {
	ScheduledDoseID string `json:"scheduled_dose_id"`
	ActualTime      string `json:"actual_time"` // RFC3339 opcional; vacío = ahora
	Site            string `json:"site"`
	PainScore       *int   `json:"pain_score"`
	Notes           string `json:"notes"`
}

type updateLogRequest struct {
	ActualTime string `json:"actual_time"`
	Site       string `json:"site"`
	PainScore  *int   `json:"pain_score"`
	Notes      string `json:"notes"`
}

type logResponse struct {
	ID              string    `json:"id"`
	ScheduledDoseID string    `json:"scheduled_dose_id"`
	ActualTime      time.Time `json:"actual_time"`
	Site            string    `json:"site,omitempty"`
	PainScore       *int      `json:"pain_score"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type siteResponse struct {
	ID         string     `json:"id"`
	Label      string     `json:"label"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Side       string     `json:"side"`
	Region     string     `json:"region"`
	LastUsedAt *time.Time `json:"last_used_at"`
}

type sitePlanResponse struct {
	Sites     []siteResponse `json:"sites"`
	Suggested siteResponse   `json:"suggested"`
}

// createLogHandler godoc
// @Summary Registrar inyección
// @Description Registra los detalles de una dosis aplicada (sitio, dolor 0-10, notas) y la marca DONE si seguía pendiente. Una dosis admite un solo registro.
// @Tags injections
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body createLogRequest true "Registro; actual_time RFC3339 opcional"
// @Success 201 {object} logResponse
// @Failure 400 {string} string "validación"
// @Failure 404 {string} string "dose not found"
// @Failure 409 {string} string "dose already has an injection log"
// @Router /injections [post]
func createLogHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createLogRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		actual, err := parseOptionalTime(req.ActualTime)
		if err != nil {
			http.Error(w, "actual_time must be RFC3339", http.StatusBadRequest)
			return
		}

		l, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			ScheduledDoseID: req.ScheduledDoseID,
			ActualTime:      actual,
			Site:            req.Site,
			PainScore:       req.PainScore,
			Notes:           req.Notes,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toLogResponse(l))
	}
}

func listLogsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		limit := 0
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > MaxListLimit {
				http.Error(w, "limit must be between 1 and 200", http.StatusBadRequest)
				return
			}
			limit = n
		}

		items, err := svc.List(r.Context(), claims.UserID, limit)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]logResponse, 0, len(items))
		for _, l := range items {
			out = append(out, toLogResponse(l))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getLogHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		l, err := svc.Get(r.Context(), claims.UserID, chi.URLParam(r, "logID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toLogResponse(l))
	}
}

func updateLogHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updateLogRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		actual, err := parseOptionalTime(req.ActualTime)
		if err != nil {
			http.Error(w, "actual_time must be RFC3339", http.StatusBadRequest)
			return
		}

		l, err := svc.Update(r.Context(), claims.UserID, chi.URLParam(r, "logID"), UpdateInput{
			ActualTime: actual,
			Site:       req.Site,
			PainScore:  req.PainScore,
			Notes:      req.Notes,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toLogResponse(l))
	}
}

func deleteLogHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), claims.UserID, chi.URLParam(r, "logID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// sitePlanHandler godoc
// @Summary Plan de rotación de sitios
// @Description Catálogo de sitios de inyección con su último uso y el sitio sugerido (el usado hace más tiempo).
// @Tags injections
// @Produce json
// @Param locale query string false "en (default) o ms"
// @Success 200 {object} sitePlanResponse
// @Failure 401 {string} string "unauthorized"
// @Router /sites [get]
func sitePlanHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		plan, err := svc.SitePlan(r.Context(), claims.UserID, r.URL.Query().Get("locale"))
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := sitePlanResponse{
			Sites:     make([]siteResponse, 0, len(plan.Sites)),
			Suggested: toSiteResponse(plan.Suggested),
		}
		for _, u := range plan.Sites {
			out.Sites = append(out.Sites, toSiteResponse(u))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func parseOptionalTime(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "injection log not found", http.StatusNotFound)
	case errors.Is(err, ErrDoseNotFound):
		http.Error(w, "dose not found", http.StatusNotFound)
	case errors.Is(err, ErrAlreadyLogged):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toLogResponse(l Log) logResponse {
	return logResponse{
		ID:              l.ID,
		ScheduledDoseID: l.ScheduledDoseID,
		ActualTime:      l.ActualTime,
		Site:            l.Site,
		PainScore:       l.PainScore,
		Notes:           l.Notes,
		CreatedAt:       l.CreatedAt,
	}
}

func toSiteResponse(u SiteUsage) siteResponse {
	return siteResponse{
		ID:         u.Site.ID,
		Label:      u.Label,
		X:          u.Site.X,
		Y:          u.Site.Y,
		Side:       string(u.Site.Side),
		Region:     string(u.Site.Region),
		LastUsedAt: u.LastUsedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
