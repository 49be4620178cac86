package doses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"peptide-tracker/internal/domain/schedule"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("dose not found")
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
	UpcomingDays        = 7
)

// ItemResolver trae los datos de item/sustancia/protocolo para las vistas.
// Lo implementa un adapter en router (evita importar protocols y substances).
type ItemResolver interface {
	ResolveItems(ctx context.Context, ownerID string, itemIDs []string) (map[string]ItemDetails, error)
}

type Service struct {
	repo  Repository
	items ItemResolver

	missedThresholdHours int
	now                  func() time.Time
}

func NewService(repo Repository, items ItemResolver) *Service {
	return &Service{
		repo:                 repo,
		items:                items,
		missedThresholdHours: schedule.DefaultMissedThresholdHours,
		now:                  time.Now,
	}
}

func (s *Service) SetMissedThreshold(hours int) {
	if hours > 0 {
		s.missedThresholdHours = hours
	}
}

func (s *Service) MissedThreshold() int {
	return s.missedThresholdHours
}

// UpsertGenerated persiste dosis generadas; las ya existentes se ignoran.
func (s *Service) UpsertGenerated(ctx context.Context, gen []schedule.GeneratedDose) (int, error) {
	if len(gen) == 0 {
		return 0, nil
	}

	now := s.now()
	batch := make([]Dose, 0, len(gen))
	for _, g := range gen {
		batch = append(batch, Dose{
			ID:             uuid.NewString(),
			ProtocolItemID: g.ProtocolItemID,
			OwnerID:        g.OwnerID,
			ScheduledAt:    g.ScheduledAt.UTC(),
			Status:         g.Status,
			CreatedAt:      now,
		})
	}
	return s.repo.InsertIgnoringConflicts(ctx, batch)
}

// DiscardDue borra las dosis pendientes del item; el historial (DONE/SKIPPED/MISSED) se conserva.
func (s *Service) DiscardDue(ctx context.Context, itemID string) (int, error) {
	return s.repo.DeleteByItem(ctx, itemID, true)
}

func (s *Service) DeleteForItem(ctx context.Context, itemID string) error {
	_, err := s.repo.DeleteByItem(ctx, itemID, false)
	return err
}

func (s *Service) Get(ctx context.Context, ownerID, id string) (Dose, error) {
	if strings.TrimSpace(id) == "" {
		return Dose{}, ErrNotFound
	}
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Dose{}, err
	}
	if d.OwnerID != ownerID {
		return Dose{}, ErrNotFound
	}
	return d, nil
}

func (s *Service) MarkDone(ctx context.Context, ownerID, id string) (Dose, error) {
	now := s.now().UTC()
	return s.transition(ctx, ownerID, id, schedule.StatusDone, &now)
}

func (s *Service) MarkSkipped(ctx context.Context, ownerID, id string) (Dose, error) {
	return s.transition(ctx, ownerID, id, schedule.StatusSkipped, nil)
}

// CompleteIfDue marca DONE sólo si la dosis sigue en DUE; un estado terminal no es error.
func (s *Service) CompleteIfDue(ctx context.Context, ownerID, id string, at time.Time) (bool, error) {
	d, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return false, err
	}
	if d.Status != schedule.StatusDue {
		return false, nil
	}
	at = at.UTC()
	return s.repo.UpdateStatusIfDue(ctx, id, schedule.StatusDone, &at)
}

func (s *Service) transition(ctx context.Context, ownerID, id string, target schedule.Status, doneAt *time.Time) (Dose, error) {
	d, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return Dose{}, err
	}

	changed, err := schedule.Transition(d.Status, target)
	if err != nil {
		return Dose{}, fmt.Errorf("%w: %s -> %s", err, d.Status, target)
	}
	if !changed {
		return d, nil
	}

	ok, err := s.repo.UpdateStatusIfDue(ctx, id, target, doneAt)
	if err != nil {
		return Dose{}, err
	}
	if !ok {
		// Otro proceso (barrido o marca concurrente) la sacó de DUE primero.
		cur, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return Dose{}, err
		}
		if cur.Status == target {
			return cur, nil
		}
		return Dose{}, fmt.Errorf("%w: %s -> %s", schedule.ErrInvalidTransition, cur.Status, target)
	}

	d.Status = target
	d.DoneAt = doneAt
	return d, nil
}

// DetectAndMarkMissed pasa a MISSED las dosis DUE más viejas que el umbral.
// ownerID vacío barre a todos los usuarios (job de fondo).
func (s *Service) DetectAndMarkMissed(ctx context.Context, ownerID string, thresholdHours int) (int, error) {
	if thresholdHours <= 0 {
		thresholdHours = s.missedThresholdHours
	}
	cutoff := schedule.MissedCutoff(s.now(), thresholdHours)
	return s.repo.MarkMissedBefore(ctx, ownerID, cutoff.UTC())
}

// Dashboard corre el barrido de perdidas y arma hoy + próximos días en loc.
func (s *Service) Dashboard(ctx context.Context, ownerID string, loc *time.Location) (Dashboard, error) {
	if strings.TrimSpace(ownerID) == "" || loc == nil {
		return Dashboard{}, ErrInvalidInput
	}

	missed, err := s.DetectAndMarkMissed(ctx, ownerID, s.missedThresholdHours)
	if err != nil {
		return Dashboard{}, err
	}

	today := schedule.TodayIn(s.now(), loc)
	midnight := schedule.TimeOfDay{}
	todayStart := schedule.At(today, midnight, loc)
	tomorrowStart := schedule.At(today.AddDate(0, 0, 1), midnight, loc)
	upcomingEnd := schedule.At(today.AddDate(0, 0, 1+UpcomingDays), midnight, loc)

	todayDoses, err := s.repo.List(ctx, ListFilter{OwnerID: ownerID, From: todayStart, To: tomorrowStart})
	if err != nil {
		return Dashboard{}, err
	}
	upcoming, err := s.repo.List(ctx, ListFilter{OwnerID: ownerID, From: tomorrowStart, To: upcomingEnd, Status: schedule.StatusDue})
	if err != nil {
		return Dashboard{}, err
	}

	todayViews, err := s.decorate(ctx, ownerID, todayDoses)
	if err != nil {
		return Dashboard{}, err
	}
	upcomingViews, err := s.decorate(ctx, ownerID, upcoming)
	if err != nil {
		return Dashboard{}, err
	}

	return Dashboard{
		Date:        schedule.FormatDate(today),
		Timezone:    loc.String(),
		Today:       todayViews,
		Upcoming:    upcomingViews,
		NewlyMissed: missed,
	}, nil
}

// History: dosis anteriores al inicio del día local, más recientes primero.
func (s *Service) History(ctx context.Context, ownerID string, loc *time.Location, limit int) ([]DoseView, error) {
	if strings.TrimSpace(ownerID) == "" || loc == nil {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	todayStart := schedule.At(schedule.TodayIn(s.now(), loc), schedule.TimeOfDay{}, loc)
	ds, err := s.repo.ListBefore(ctx, ownerID, todayStart, limit)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, ownerID, ds)
}

// decorate descarta dosis cuyo item ya no existe (equivale al inner join del listado).
func (s *Service) decorate(ctx context.Context, ownerID string, ds []Dose) ([]DoseView, error) {
	out := make([]DoseView, 0, len(ds))
	if len(ds) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(ds))
	seen := map[string]struct{}{}
	for _, d := range ds {
		if _, ok := seen[d.ProtocolItemID]; ok {
			continue
		}
		seen[d.ProtocolItemID] = struct{}{}
		ids = append(ids, d.ProtocolItemID)
	}

	details := map[string]ItemDetails{}
	if s.items != nil {
		var err error
		details, err = s.items.ResolveItems(ctx, ownerID, ids)
		if err != nil {
			return nil, err
		}
	}

	for _, d := range ds {
		item, ok := details[d.ProtocolItemID]
		if !ok && s.items != nil {
			continue
		}
		out = append(out, DoseView{Dose: d, Item: item})
	}
	return out, nil
}
