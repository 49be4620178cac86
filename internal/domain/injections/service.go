package injections

import (
	"context"
	"errors"
	"strings"
	"time"

	"peptide-tracker/internal/domain/sites"
	"peptide-tracker/internal/platform/validation"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("injection log not found")
	ErrDoseNotFound  = errors.New("dose not found")
	ErrAlreadyLogged = errors.New("dose already has an injection log")
)

const (
	DefaultListLimit  = 50
	MaxListLimit      = 200
	SiteHistoryWindow = 100
)

// DoseCompleter marca la dosis como DONE si sigue pendiente.
// Debe devolver ErrDoseNotFound si la dosis no existe o es de otro usuario.
type DoseCompleter interface {
	CompleteIfDue(ctx context.Context, ownerID, doseID string, at time.Time) (bool, error)
}

type Service struct {
	repo  Repository
	doses DoseCompleter
	now   func() time.Time
}

func NewService(repo Repository, doses DoseCompleter) *Service {
	return &Service{
		repo:  repo,
		doses: doses,
		now:   time.Now,
	}
}

type CreateInput struct {
	ScheduledDoseID string
	ActualTime      *time.Time // nil = ahora
	Site            string
	PainScore       *int
	Notes           string
}

type UpdateInput struct {
	ActualTime *time.Time // nil = no tocar
	Site       string
	PainScore  *int
	Notes      string
}

func validateDetails(site string, pain *int, notes string) error {
	if site != "" && !sites.Valid(site) {
		return validation.Field(ErrInvalidInput, "site", "unknown injection site")
	}
	if pain != nil && (*pain < 0 || *pain > 10) {
		return validation.Field(ErrInvalidInput, "pain_score", "must be between 0 and 10")
	}
	return validation.Length(ErrInvalidInput, "notes", notes, 0, 500)
}

// Create registra la inyección y marca la dosis como DONE si seguía en DUE.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (Log, error) {
	doseID := strings.TrimSpace(in.ScheduledDoseID)
	if strings.TrimSpace(ownerID) == "" {
		return Log{}, ErrInvalidInput
	}
	if doseID == "" {
		return Log{}, validation.Field(ErrInvalidInput, "scheduled_dose_id", "required")
	}
	site := strings.TrimSpace(in.Site)
	notes := strings.TrimSpace(in.Notes)
	if err := validateDetails(site, in.PainScore, notes); err != nil {
		return Log{}, err
	}

	if _, err := s.repo.GetByDose(ctx, doseID); err == nil {
		return Log{}, ErrAlreadyLogged
	} else if !errors.Is(err, ErrNotFound) {
		return Log{}, err
	}

	now := s.now()
	actual := now
	if in.ActualTime != nil && !in.ActualTime.IsZero() {
		actual = *in.ActualTime
	}

	if _, err := s.doses.CompleteIfDue(ctx, ownerID, doseID, actual); err != nil {
		return Log{}, err
	}

	l := Log{
		ID:              uuid.NewString(),
		OwnerID:         ownerID,
		ScheduledDoseID: doseID,
		ActualTime:      actual.UTC(),
		Site:            site,
		PainScore:       in.PainScore,
		Notes:           notes,
		CreatedAt:       now,
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return Log{}, err
	}
	return l, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id string) (Log, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Log{}, err
	}
	if l.OwnerID != ownerID {
		return Log{}, ErrNotFound
	}
	return l, nil
}

func (s *Service) List(ctx context.Context, ownerID string, limit int) ([]Log, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.repo.List(ctx, ownerID, limit)
}

func (s *Service) Update(ctx context.Context, ownerID, id string, in UpdateInput) (Log, error) {
	l, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return Log{}, err
	}
	site := strings.TrimSpace(in.Site)
	notes := strings.TrimSpace(in.Notes)
	if err := validateDetails(site, in.PainScore, notes); err != nil {
		return Log{}, err
	}

	if in.ActualTime != nil && !in.ActualTime.IsZero() {
		l.ActualTime = in.ActualTime.UTC()
	}
	l.Site = site
	l.PainScore = in.PainScore
	l.Notes = notes

	if err := s.repo.Update(ctx, l); err != nil {
		return Log{}, err
	}
	return l, nil
}

// Delete borra el log; la dosis conserva su estado.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// SitePlan arma el catálogo con el último uso de cada sitio y la sugerencia de rotación.
func (s *Service) SitePlan(ctx context.Context, ownerID, locale string) (SitePlan, error) {
	usage, err := s.repo.RecentSiteUsage(ctx, ownerID, SiteHistoryWindow)
	if err != nil {
		return SitePlan{}, err
	}

	lastUsed := sites.BuildSiteUsageMap(usage)
	toUsage := func(site sites.Site) SiteUsage {
		u := SiteUsage{Site: site, Label: sites.Label(site.ID, locale)}
		if t, ok := lastUsed[site.ID]; ok {
			u.LastUsedAt = &t
		}
		return u
	}

	all := sites.All()
	plan := SitePlan{Sites: make([]SiteUsage, 0, len(all))}
	for _, site := range all {
		plan.Sites = append(plan.Sites, toUsage(site))
	}
	plan.Suggested = toUsage(sites.SuggestNextSite(sites.RecentSiteIDs(usage)))
	return plan, nil
}
