package substances

import (
	"context"
	"errors"
	"strings"
	"time"

	"peptide-tracker/internal/platform/validation"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("substance not found")
	ErrInUse        = errors.New("substance is used by protocol items")
)

// UsageChecker evita importar protocols (rompe ciclos).
type UsageChecker interface {
	SubstanceInUse(ctx context.Context, substanceID string) (bool, error)
}

type Service struct {
	repo  Repository
	usage UsageChecker
	now   func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// SetUsageChecker se inyecta después de construir protocols (dependencia circular en el wiring).
func (s *Service) SetUsageChecker(u UsageChecker) {
	s.usage = u
}

type Input struct {
	Name  string
	Unit  string
	Route string
	Notes string
}

func (in Input) normalize() Input {
	return Input{
		Name:  strings.TrimSpace(in.Name),
		Unit:  strings.TrimSpace(in.Unit),
		Route: strings.TrimSpace(in.Route),
		Notes: strings.TrimSpace(in.Notes),
	}
}

func (in Input) validate() error {
	if err := validation.Length(ErrInvalidInput, "name", in.Name, 1, 100); err != nil {
		return err
	}
	if err := validation.Length(ErrInvalidInput, "unit", in.Unit, 1, 20); err != nil {
		return err
	}
	if err := validation.Length(ErrInvalidInput, "route", in.Route, 0, 50); err != nil {
		return err
	}
	return validation.Length(ErrInvalidInput, "notes", in.Notes, 0, 500)
}

func (s *Service) Create(ctx context.Context, ownerID string, in Input) (Substance, error) {
	if strings.TrimSpace(ownerID) == "" {
		return Substance{}, ErrInvalidInput
	}
	in = in.normalize()
	if err := in.validate(); err != nil {
		return Substance{}, err
	}

	now := s.now()
	sub := Substance{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      in.Name,
		Unit:      in.Unit,
		Route:     in.Route,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return Substance{}, err
	}
	return sub, nil
}

// Get devuelve ErrNotFound también cuando la sustancia es de otro usuario.
func (s *Service) Get(ctx context.Context, ownerID, id string) (Substance, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Substance{}, err
	}
	if sub.OwnerID != ownerID {
		return Substance{}, ErrNotFound
	}
	return sub, nil
}

func (s *Service) List(ctx context.Context, ownerID string) ([]Substance, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *Service) Update(ctx context.Context, ownerID, id string, in Input) (Substance, error) {
	current, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return Substance{}, err
	}
	in = in.normalize()
	if err := in.validate(); err != nil {
		return Substance{}, err
	}

	current.Name = in.Name
	current.Unit = in.Unit
	current.Route = in.Route
	current.Notes = in.Notes
	current.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, current); err != nil {
		return Substance{}, err
	}
	return current, nil
}

func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	if s.usage != nil {
		used, err := s.usage.SubstanceInUse(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return ErrInUse
		}
	}
	return s.repo.Delete(ctx, id)
}
