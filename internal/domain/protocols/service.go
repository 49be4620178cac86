package protocols

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
	ErrNotFound     = errors.New("protocol not found")
	ErrItemNotFound = errors.New("protocol item not found")
)

const DefaultTimezone = "Asia/Kuala_Lumpur"

// DoseScheduler persiste y descarta dosis generadas (lo implementa doses.Service).
type DoseScheduler interface {
	UpsertGenerated(ctx context.Context, gen []schedule.GeneratedDose) (int, error)
	DiscardDue(ctx context.Context, itemID string) (int, error)
	DeleteForItem(ctx context.Context, itemID string) error
	// hours <= 0 usa el umbral configurado.
	DetectAndMarkMissed(ctx context.Context, ownerID string, hours int) (int, error)
	MissedThreshold() int
}

// SubstanceChecker evita importar substances (rompe ciclos).
type SubstanceChecker interface {
	OwnsSubstance(ctx context.Context, ownerID, substanceID string) (bool, error)
}

type Service struct {
	repo       Repository
	doses      DoseScheduler
	substances SubstanceChecker

	defaultTimezone string
	now             func() time.Time
}

func NewService(repo Repository, doses DoseScheduler, substances SubstanceChecker, defaultTimezone string) *Service {
	if strings.TrimSpace(defaultTimezone) == "" {
		defaultTimezone = DefaultTimezone
	}
	return &Service{
		repo:            repo,
		doses:           doses,
		substances:      substances,
		defaultTimezone: defaultTimezone,
		now:             time.Now,
	}
}

// -------------------------
// Protocolos
// -------------------------

func (s *Service) Create(ctx context.Context, ownerID string, in ProtocolInput) (Protocol, error) {
	if strings.TrimSpace(ownerID) == "" {
		return Protocol{}, ErrInvalidInput
	}
	in, err := s.normalizeProtocol(in)
	if err != nil {
		return Protocol{}, err
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	now := s.now()
	p := Protocol{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      in.Name,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Timezone:  in.Timezone,
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return Protocol{}, err
	}
	return p, nil
}

// Get devuelve ErrNotFound también cuando el protocolo es de otro usuario.
func (s *Service) Get(ctx context.Context, ownerID, id string) (Protocol, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Protocol{}, err
	}
	if p.OwnerID != ownerID {
		return Protocol{}, ErrNotFound
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, ownerID string) ([]Protocol, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Update reemplaza los campos del protocolo. Si cambian fechas o zona,
// las dosis pendientes de todos sus items se regeneran.
func (s *Service) Update(ctx context.Context, ownerID, id string, in ProtocolInput) (Protocol, int, error) {
	current, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return Protocol{}, 0, err
	}
	in, err = s.normalizeProtocol(in)
	if err != nil {
		return Protocol{}, 0, err
	}

	scheduleChanged := current.StartDate != in.StartDate ||
		current.Timezone != in.Timezone ||
		!sameDate(current.EndDate, in.EndDate)

	current.Name = in.Name
	current.StartDate = in.StartDate
	current.EndDate = in.EndDate
	current.Timezone = in.Timezone
	if in.IsActive != nil {
		current.IsActive = *in.IsActive
	}
	current.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, current); err != nil {
		return Protocol{}, 0, err
	}
	if !scheduleChanged {
		return current, 0, nil
	}

	items, err := s.repo.ListItems(ctx, current.ID)
	if err != nil {
		return Protocol{}, 0, err
	}
	total := 0
	for _, it := range items {
		n, err := s.regenerate(ctx, current, it)
		if err != nil {
			return Protocol{}, total, err
		}
		total += n
	}
	return current, total, nil
}

// Delete borra en cascada items y dosis.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	p, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	items, err := s.repo.ListItems(ctx, p.ID)
	if err != nil {
		return err
	}
	for _, it := range items {
		if err := s.deleteItem(ctx, it.ID); err != nil {
			return err
		}
	}
	return s.repo.Delete(ctx, p.ID)
}

// -------------------------
// Items
// -------------------------

// CreateItem guarda el item y genera su ventana de dosis desde start_date.
// Devuelve cuántas dosis nuevas se insertaron.
func (s *Service) CreateItem(ctx context.Context, ownerID, protocolID string, in ItemInput) (Item, int, error) {
	p, err := s.Get(ctx, ownerID, protocolID)
	if err != nil {
		return Item{}, 0, err
	}
	in, err = s.validateItem(ctx, ownerID, in)
	if err != nil {
		return Item{}, 0, err
	}

	now := s.now()
	it := Item{
		ID:              uuid.NewString(),
		ProtocolID:      p.ID,
		SubstanceID:     in.SubstanceID,
		DoseValue:       in.DoseValue,
		Frequency:       in.Frequency,
		IntervalDays:    copyInt(in.IntervalDays),
		DaysOfWeek:      in.DaysOfWeek,
		TimeOfDay:       in.TimeOfDay,
		SitePlanEnabled: in.SitePlanEnabled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.CreateItem(ctx, it); err != nil {
		return Item{}, 0, err
	}

	gen, err := schedule.GenerateDoses(p.Plan(), it.Rule(), nil)
	if err != nil {
		return it, 0, err
	}
	n, err := s.doses.UpsertGenerated(ctx, gen)
	if err != nil {
		return it, 0, err
	}
	return it, n, nil
}

func (s *Service) GetItem(ctx context.Context, ownerID, itemID string) (Item, Protocol, error) {
	it, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return Item{}, Protocol{}, err
	}
	p, err := s.repo.GetByID(ctx, it.ProtocolID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Item{}, Protocol{}, ErrItemNotFound
		}
		return Item{}, Protocol{}, err
	}
	if p.OwnerID != ownerID {
		return Item{}, Protocol{}, ErrItemNotFound
	}
	return it, p, nil
}

func (s *Service) ListItems(ctx context.Context, ownerID, protocolID string) ([]Item, error) {
	if _, err := s.Get(ctx, ownerID, protocolID); err != nil {
		return nil, err
	}
	return s.repo.ListItems(ctx, protocolID)
}

// UpdateItem reemplaza la regla del item y regenera sus dosis pendientes.
func (s *Service) UpdateItem(ctx context.Context, ownerID, itemID string, in ItemInput) (Item, int, error) {
	it, p, err := s.GetItem(ctx, ownerID, itemID)
	if err != nil {
		return Item{}, 0, err
	}
	in, err = s.validateItem(ctx, ownerID, in)
	if err != nil {
		return Item{}, 0, err
	}

	it.SubstanceID = in.SubstanceID
	it.DoseValue = in.DoseValue
	it.Frequency = in.Frequency
	it.IntervalDays = copyInt(in.IntervalDays)
	it.DaysOfWeek = in.DaysOfWeek
	it.TimeOfDay = in.TimeOfDay
	it.SitePlanEnabled = in.SitePlanEnabled
	it.UpdatedAt = s.now()

	if err := s.repo.UpdateItem(ctx, it); err != nil {
		return Item{}, 0, err
	}

	n, err := s.regenerate(ctx, p, it)
	if err != nil {
		return it, 0, err
	}
	return it, n, nil
}

func (s *Service) DeleteItem(ctx context.Context, ownerID, itemID string) error {
	if _, _, err := s.GetItem(ctx, ownerID, itemID); err != nil {
		return err
	}
	return s.deleteItem(ctx, itemID)
}

func (s *Service) deleteItem(ctx context.Context, itemID string) error {
	if err := s.doses.DeleteForItem(ctx, itemID); err != nil {
		return err
	}
	return s.repo.DeleteItem(ctx, itemID)
}

// regenerate reemplaza las dosis DUE del item por las de la regla vigente.
// Antes de descartar, las vencidas pasan a MISSED: quedan en el historial.
// Las DUE aún dentro del umbral se regeneran desde el corte de MISSED, así que
// una dosis de hace pocas horas sigue pendiente. El historial resuelto
// (DONE/SKIPPED/MISSED) gana sobre una regenerada en el mismo instante.
func (s *Service) regenerate(ctx context.Context, p Protocol, it Item) (int, error) {
	if _, err := s.doses.DetectAndMarkMissed(ctx, p.OwnerID, 0); err != nil {
		return 0, err
	}
	if _, err := s.doses.DiscardDue(ctx, it.ID); err != nil {
		return 0, err
	}
	loc, err := schedule.LoadZone(p.Timezone)
	if err != nil {
		return 0, err
	}

	cutoff := schedule.MissedCutoff(s.now(), s.doses.MissedThreshold())
	gen, err := schedule.ExtendDoses(p.Plan(), it.Rule(), schedule.TodayIn(cutoff, loc))
	if err != nil {
		return 0, err
	}
	pending := gen[:0]
	for _, g := range gen {
		if !g.ScheduledAt.Before(cutoff) {
			pending = append(pending, g)
		}
	}
	return s.doses.UpsertGenerated(ctx, pending)
}

func (s *Service) validateItem(ctx context.Context, ownerID string, in ItemInput) (ItemInput, error) {
	in, err := normalizeItem(in)
	if err != nil {
		return in, err
	}
	if s.substances != nil {
		ok, err := s.substances.OwnsSubstance(ctx, ownerID, in.SubstanceID)
		if err != nil {
			return in, err
		}
		if !ok {
			return in, fmt.Errorf("%w: substance_id: unknown substance", ErrInvalidInput)
		}
	}
	return in, nil
}

// -------------------------
// Generación periódica
// -------------------------

// RefreshSchedules extiende la ventana móvil de los protocolos activos
// (de ownerID, o de todos si es vacío) anclándola en el día local de hoy.
// Un protocolo con error no frena al resto; los errores se devuelven juntos.
func (s *Service) RefreshSchedules(ctx context.Context, ownerID string) (int, error) {
	ps, err := s.repo.ListActive(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	now := s.now()
	total := 0
	var errs []error
	for _, p := range ps {
		n, err := s.refreshProtocol(ctx, p, now)
		total += n
		if err != nil {
			errs = append(errs, fmt.Errorf("protocol %s: %w", p.ID, err))
		}
	}
	return total, errors.Join(errs...)
}

func (s *Service) refreshProtocol(ctx context.Context, p Protocol, now time.Time) (int, error) {
	loc, err := schedule.LoadZone(p.Timezone)
	if err != nil {
		return 0, err
	}
	today := schedule.TodayIn(now, loc)

	items, err := s.repo.ListItems(ctx, p.ID)
	if err != nil {
		return 0, err
	}

	gen := make([]schedule.GeneratedDose, 0)
	for _, it := range items {
		ds, err := schedule.ExtendDoses(p.Plan(), it.Rule(), today)
		if err != nil {
			return 0, fmt.Errorf("item %s: %w", it.ID, err)
		}
		gen = append(gen, ds...)
	}
	return s.doses.UpsertGenerated(ctx, gen)
}

// Preview genera las dosis de un protocolo sin persistir nada.
func Preview(p Protocol, items []Item, from *time.Time) ([]schedule.GeneratedDose, error) {
	return schedule.GenerateDosesForProtocol(p.Plan(), rules(items), from)
}

// Draft valida un protocolo con sus items sin tocar storage. Los items
// reciben ids "item-1", "item-2"... en el orden recibido.
func Draft(defaultTimezone string, in ProtocolInput, items []ItemInput) (Protocol, []Item, error) {
	s := &Service{defaultTimezone: defaultTimezone}
	pin, err := s.normalizeProtocol(in)
	if err != nil {
		return Protocol{}, nil, err
	}
	p := Protocol{
		ID:        "draft",
		Name:      pin.Name,
		StartDate: pin.StartDate,
		EndDate:   pin.EndDate,
		Timezone:  pin.Timezone,
		IsActive:  true,
	}

	out := make([]Item, 0, len(items))
	for i, raw := range items {
		in, err := normalizeItem(raw)
		if err != nil {
			return Protocol{}, nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		out = append(out, Item{
			ID:              fmt.Sprintf("item-%d", i+1),
			ProtocolID:      p.ID,
			SubstanceID:     in.SubstanceID,
			DoseValue:       in.DoseValue,
			Frequency:       in.Frequency,
			IntervalDays:    in.IntervalDays,
			DaysOfWeek:      in.DaysOfWeek,
			TimeOfDay:       in.TimeOfDay,
			SitePlanEnabled: in.SitePlanEnabled,
		})
	}
	return p, out, nil
}

// SubstanceInUse implementa substances.UsageChecker.
func (s *Service) SubstanceInUse(ctx context.Context, substanceID string) (bool, error) {
	n, err := s.repo.CountItemsBySubstance(ctx, substanceID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func sameDate(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
