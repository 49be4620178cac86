package protocols

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"peptide-tracker/internal/domain/schedule"
	"peptide-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/protocols", func(pr chi.Router) {
		pr.Post("/", createProtocolHandler(svc))
		pr.Get("/", listProtocolsHandler(svc))
		pr.Get("/{protocolID}", getProtocolHandler(svc))
		pr.Put("/{protocolID}", updateProtocolHandler(svc))
		pr.Delete("/{protocolID}", deleteProtocolHandler(svc))

		pr.Post("/{protocolID}/items", createItemHandler(svc))
		pr.Get("/{protocolID}/items", listItemsHandler(svc))
		pr.Get("/{protocolID}/preview", previewHandler(svc))
	})

	r.Route("/items/{itemID}", func(ir chi.Router) {
		ir.Get("/", getItemHandler(svc))
		ir.Put("/", updateItemHandler(svc))
		ir.Delete("/", deleteItemHandler(svc))
	})
}

type protocolRequest struct {
	Name      string  `json:"name"`
	StartDate string  `json:"start_date"`
	EndDate   *string `json:"end_date"`
	Timezone  string  `json:"timezone"`
	IsActive  *bool   `json:"is_active"`
}

type protocolResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate string    `json:"start_date"`
	EndDate   *string   `json:"end_date"`
	Timezone  string    `json:"timezone"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	DosesGenerated *int `json:"doses_generated,omitempty"`
}

type itemRequest struct {
	SubstanceID     string             `json:"substance_id"`
	DoseValue       float64            `json:"dose_value"`
	Frequency       schedule.Frequency `json:"frequency"`
	IntervalDays    *int               `json:"interval_days"`
	DaysOfWeek      []int              `json:"days_of_week"`
	TimeOfDay       string             `json:"time_of_day"`
	SitePlanEnabled bool               `json:"site_plan_enabled"`
}

type itemResponse struct {
	ID              string             `json:"id"`
	ProtocolID      string             `json:"protocol_id"`
	SubstanceID     string             `json:"substance_id"`
	DoseValue       float64            `json:"dose_value"`
	Frequency       schedule.Frequency `json:"frequency"`
	IntervalDays    *int               `json:"interval_days"`
	DaysOfWeek      []int              `json:"days_of_week"`
	TimeOfDay       string             `json:"time_of_day"`
	SitePlanEnabled bool               `json:"site_plan_enabled"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`

	DosesGenerated *int `json:"doses_generated,omitempty"`
}

type previewDoseResponse struct {
	ProtocolItemID string    `json:"protocol_item_id"`
	ScheduledAt    time.Time `json:"scheduled_at"`
}

func (req protocolRequest) toInput() ProtocolInput {
	return ProtocolInput{
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Timezone:  req.Timezone,
		IsActive:  req.IsActive,
	}
}

func (req itemRequest) toInput() ItemInput {
	return ItemInput{
		SubstanceID:     req.SubstanceID,
		DoseValue:       req.DoseValue,
		Frequency:       schedule.Frequency(strings.ToUpper(strings.TrimSpace(string(req.Frequency)))),
		IntervalDays:    req.IntervalDays,
		DaysOfWeek:      req.DaysOfWeek,
		TimeOfDay:       req.TimeOfDay,
		SitePlanEnabled: req.SitePlanEnabled,
	}
}

// createProtocolHandler godoc
// @Summary Crear protocolo
// @Description Crea un protocolo vacío. timezone es una zona IANA; si se omite se usa DEFAULT_TIMEZONE. end_date null = protocolo abierto.
// @Tags protocols
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body protocolRequest true "Datos del protocolo; fechas YYYY-MM-DD"
// @Success 201 {object} protocolResponse
// @Failure 400 {string} string "invalid json / validación"
// @Failure 401 {string} string "unauthorized"
// @Router /protocols [post]
func createProtocolHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req protocolRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.Create(r.Context(), claims.UserID, req.toInput())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toProtocolResponse(p, nil))
	}
}

func listProtocolsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.List(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]protocolResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toProtocolResponse(p, nil))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getProtocolHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := svc.Get(r.Context(), claims.UserID, chi.URLParam(r, "protocolID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProtocolResponse(p, nil))
	}
}

// updateProtocolHandler godoc
// @Summary Actualizar protocolo
// @Description Reemplaza los datos del protocolo. Si cambian start_date, end_date o timezone se regeneran las dosis pendientes de todos sus items.
// @Tags protocols
// @Accept json
// @Produce json
// @Param protocolID path string true "ID del protocolo"
// @Param payload body protocolRequest true "Datos del protocolo"
// @Success 200 {object} protocolResponse
// @Failure 400 {string} string "validación"
// @Failure 404 {string} string "protocol not found"
// @Router /protocols/{protocolID} [put]
func updateProtocolHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req protocolRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, n, err := svc.Update(r.Context(), claims.UserID, chi.URLParam(r, "protocolID"), req.toInput())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProtocolResponse(p, &n))
	}
}

func deleteProtocolHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), claims.UserID, chi.URLParam(r, "protocolID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// createItemHandler godoc
// @Summary Agregar item a un protocolo
// @Description Crea la regla de dosificación y genera sus dosis (ventana de 12 semanas desde start_date, acotada por end_date). frequency: ED, EOD, WEEKLY (days_of_week 0-6, 0=domingo) o CUSTOM (interval_days).
// @Tags protocols
// @Accept json
// @Produce json
// @Param protocolID path string true "ID del protocolo"
// @Param payload body itemRequest true "Regla; time_of_day HH:MM en la zona del protocolo"
// @Success 201 {object} itemResponse
// @Failure 400 {string} string "validación"
// @Failure 404 {string} string "protocol not found"
// @Router /protocols/{protocolID}/items [post]
func createItemHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req itemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		it, n, err := svc.CreateItem(r.Context(), claims.UserID, chi.URLParam(r, "protocolID"), req.toInput())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toItemResponse(it, &n))
	}
}

func listItemsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListItems(r.Context(), claims.UserID, chi.URLParam(r, "protocolID"))
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]itemResponse, 0, len(items))
		for _, it := range items {
			out = append(out, toItemResponse(it, nil))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// previewHandler: dosis que generaría el protocolo, sin persistir.
// ?from=YYYY-MM-DD opcional.
func previewHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		protocolID := chi.URLParam(r, "protocolID")
		p, err := svc.Get(r.Context(), claims.UserID, protocolID)
		if err != nil {
			writeError(w, err)
			return
		}

		var from *time.Time
		if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
			d, err := schedule.ParseDate(raw)
			if err != nil {
				http.Error(w, "from must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			from = &d
		}

		items, err := svc.ListItems(r.Context(), claims.UserID, protocolID)
		if err != nil {
			writeError(w, err)
			return
		}

		gen, err := Preview(p, items, from)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]previewDoseResponse, 0, len(gen))
		for _, g := range gen {
			out = append(out, previewDoseResponse{ProtocolItemID: g.ProtocolItemID, ScheduledAt: g.ScheduledAt})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getItemHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		it, _, err := svc.GetItem(r.Context(), claims.UserID, chi.URLParam(r, "itemID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toItemResponse(it, nil))
	}
}

// updateItemHandler godoc
// @Summary Actualizar item
// @Description Reemplaza la regla del item. Las dosis DUE se descartan y se regeneran desde hoy; DONE, SKIPPED y MISSED se conservan.
// @Tags protocols
// @Accept json
// @Produce json
// @Param itemID path string true "ID del item"
// @Param payload body itemRequest true "Regla"
// @Success 200 {object} itemResponse
// @Failure 400 {string} string "validación"
// @Failure 404 {string} string "protocol item not found"
// @Router /items/{itemID} [put]
func updateItemHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req itemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		it, n, err := svc.UpdateItem(r.Context(), claims.UserID, chi.URLParam(r, "itemID"), req.toInput())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toItemResponse(it, &n))
	}
}

func deleteItemHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.DeleteItem(r.Context(), claims.UserID, chi.URLParam(r, "itemID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, schedule.ErrInvalidTimezone),
		errors.Is(err, schedule.ErrInvalidDate),
		errors.Is(err, schedule.ErrInvalidTimeOfDay):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "protocol not found", http.StatusNotFound)
	case errors.Is(err, ErrItemNotFound):
		http.Error(w, "protocol item not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toProtocolResponse(p Protocol, generated *int) protocolResponse {
	return protocolResponse{
		ID:             p.ID,
		Name:           p.Name,
		StartDate:      p.StartDate,
		EndDate:        p.EndDate,
		Timezone:       p.Timezone,
		IsActive:       p.IsActive,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		DosesGenerated: generated,
	}
}

func toItemResponse(it Item, generated *int) itemResponse {
	days := it.DaysOfWeek
	if days == nil {
		days = []int{}
	}
	return itemResponse{
		ID:              it.ID,
		ProtocolID:      it.ProtocolID,
		SubstanceID:     it.SubstanceID,
		DoseValue:       it.DoseValue,
		Frequency:       it.Frequency,
		IntervalDays:    it.IntervalDays,
		DaysOfWeek:      days,
		TimeOfDay:       it.TimeOfDay,
		SitePlanEnabled: it.SitePlanEnabled,
		CreatedAt:       it.CreatedAt,
		UpdatedAt:       it.UpdatedAt,
		DosesGenerated:  generated,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
