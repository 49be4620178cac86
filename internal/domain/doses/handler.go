package doses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"peptide-tracker/internal/domain/schedule"
	"peptide-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// Refresher extiende la ventana móvil antes de armar el dashboard.
// Lo implementa protocols.Service (evita el import).
type Refresher interface {
	RefreshSchedules(ctx context.Context, ownerID string) (int, error)
}

func RegisterRoutes(r chi.Router, svc *Service, refresher Refresher, defaultTimezone string) {
	r.Get("/dashboard", dashboardHandler(svc, refresher, defaultTimezone))

	r.Route("/doses", func(dr chi.Router) {
		dr.Get("/history", historyHandler(svc, defaultTimezone))
		dr.Get("/{doseID}", getDoseHandler(svc))
		dr.Post("/{doseID}/done", markDoneHandler(svc))
		dr.Post("/{doseID}/skip", markSkippedHandler(svc))
	})
}

type doseResponse struct {
	ID             string          `json:"id"`
	ProtocolItemID string          `json:"protocol_item_id"`
	ScheduledAt    time.Time       `json:"scheduled_at"`
	Status         schedule.Status `json:"status"`
	DoneAt         *time.Time      `json:"done_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

type doseViewResponse struct {
	doseResponse
	ProtocolID      string  `json:"protocol_id,omitempty"`
	ProtocolName    string  `json:"protocol_name"`
	SubstanceName   string  `json:"substance_name"`
	Unit            string  `json:"unit"`
	DoseValue       float64 `json:"dose_value"`
	TimeOfDay       string  `json:"time_of_day"`
	SitePlanEnabled bool    `json:"site_plan_enabled"`
}

type dashboardResponse struct {
	Date        string             `json:"date"`
	Timezone    string             `json:"timezone"`
	Today       []doseViewResponse `json:"today"`
	Upcoming    []doseViewResponse `json:"upcoming"`
	NewlyMissed int                `json:"newly_missed"`
}

// dashboardHandler godoc
// @Summary Dashboard de dosis
// @Description Extiende la ventana de generación, marca como MISSED las dosis vencidas y devuelve las dosis de hoy (todos los estados) y de los próximos 7 días (sólo DUE) en la zona indicada.
// @Tags doses
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param tz query string false "Zona IANA para delimitar 'hoy'. Por defecto DEFAULT_TIMEZONE"
// @Success 200 {object} dashboardResponse
// @Failure 400 {string} string "invalid timezone"
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "internal error"
// @Router /dashboard [get]
func dashboardHandler(svc *Service, refresher Refresher, defaultTimezone string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		loc, err := zoneParam(r, defaultTimezone)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if refresher != nil {
			if _, err := refresher.RefreshSchedules(r.Context(), claims.UserID); err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
		}

		d, err := svc.Dashboard(r.Context(), claims.UserID, loc)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, dashboardResponse{
			Date:        d.Date,
			Timezone:    d.Timezone,
			Today:       toViewResponses(d.Today),
			Upcoming:    toViewResponses(d.Upcoming),
			NewlyMissed: d.NewlyMissed,
		})
	}
}

// historyHandler godoc
// @Summary Historial de dosis
// @Description Dosis programadas antes del inicio del día local, más recientes primero.
// @Tags doses
// @Produce json
// @Param tz query string false "Zona IANA"
// @Param limit query int false "Máximo de dosis (1-200). Por defecto 50"
// @Success 200 {array} doseViewResponse
// @Failure 400 {string} string "invalid timezone / limit"
// @Failure 401 {string} string "unauthorized"
// @Router /doses/history [get]
func historyHandler(svc *Service, defaultTimezone string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		loc, err := zoneParam(r, defaultTimezone)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		limit := DefaultHistoryLimit
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > MaxHistoryLimit {
				http.Error(w, "limit must be between 1 and 200", http.StatusBadRequest)
				return
			}
			limit = n
		}

		items, err := svc.History(r.Context(), claims.UserID, loc, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toViewResponses(items))
	}
}

func getDoseHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		d, err := svc.Get(r.Context(), claims.UserID, chi.URLParam(r, "doseID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoseResponse(d))
	}
}

// markDoneHandler godoc
// @Summary Marcar dosis como tomada
// @Description DUE -> DONE. Repetir sobre una dosis DONE no tiene efecto; desde SKIPPED o MISSED devuelve 409.
// @Tags doses
// @Produce json
// @Param doseID path string true "ID de la dosis"
// @Success 200 {object} doseResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "dose not found"
// @Failure 409 {string} string "invalid status transition"
// @Router /doses/{doseID}/done [post]
func markDoneHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		d, err := svc.MarkDone(r.Context(), claims.UserID, chi.URLParam(r, "doseID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoseResponse(d))
	}
}

// markSkippedHandler godoc
// @Summary Omitir dosis
// @Tags doses
// @Produce json
// @Param doseID path string true "ID de la dosis"
// @Success 200 {object} doseResponse
// @Failure 404 {string} string "dose not found"
// @Failure 409 {string} string "invalid status transition"
// @Router /doses/{doseID}/skip [post]
func markSkippedHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		d, err := svc.MarkSkipped(r.Context(), claims.UserID, chi.URLParam(r, "doseID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoseResponse(d))
	}
}

func zoneParam(r *http.Request, fallback string) (*time.Location, error) {
	name := strings.TrimSpace(r.URL.Query().Get("tz"))
	if name == "" {
		name = fallback
	}
	return schedule.LoadZone(name)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, schedule.ErrInvalidTimezone):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "dose not found", http.StatusNotFound)
	case errors.Is(err, schedule.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toDoseResponse(d Dose) doseResponse {
	return doseResponse{
		ID:             d.ID,
		ProtocolItemID: d.ProtocolItemID,
		ScheduledAt:    d.ScheduledAt,
		Status:         d.Status,
		DoneAt:         d.DoneAt,
		CreatedAt:      d.CreatedAt,
	}
}

func toViewResponses(vs []DoseView) []doseViewResponse {
	out := make([]doseViewResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, doseViewResponse{
			doseResponse:    toDoseResponse(v.Dose),
			ProtocolID:      v.Item.ProtocolID,
			ProtocolName:    v.Item.ProtocolName,
			SubstanceName:   v.Item.SubstanceName,
			Unit:            v.Item.Unit,
			DoseValue:       v.Item.DoseValue,
			TimeOfDay:       v.Item.TimeOfDay,
			SitePlanEnabled: v.Item.SitePlanEnabled,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
