package substances

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID map[string]Substance
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Substance{}}
}

func (r *testRepo) Create(ctx context.Context, s Substance) error {
	if _, ok := r.byID[s.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[s.ID] = s
	return nil
}

func (r *testRepo) Update(ctx context.Context, s Substance) error {
	if _, ok := r.byID[s.ID]; !ok {
		return ErrNotFound
	}
	r.byID[s.ID] = s
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Substance, error) {
	s, ok := r.byID[id]
	if !ok {
		return Substance{}, ErrNotFound
	}
	return s, nil
}

func (r *testRepo) ListByOwner(ctx context.Context, ownerID string) ([]Substance, error) {
	out := make([]Substance, 0)
	for _, s := range r.byID {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

type fixedUsage bool

func (f fixedUsage) SubstanceInUse(ctx context.Context, substanceID string) (bool, error) {
	return bool(f), nil
}

// -------------------------
// Tests
// -------------------------

func newTestService() *Service {
	svc := NewService(newTestRepo())
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc
}

func TestService_Create_TrimsAndStores(t *testing.T) {
	svc := newTestService()

	s, err := svc.Create(context.Background(), "u1", Input{Name: "  BPC-157 ", Unit: "mcg", Route: "subcutaneous"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if s.ID == "" || s.Name != "BPC-157" || s.OwnerID != "u1" {
		t.Fatalf("unexpected substance: %+v", s)
	}
	if !s.CreatedAt.Equal(svc.now()) {
		t.Fatalf("expected CreatedAt from clock, got %v", s.CreatedAt)
	}
}

func TestService_Create_Validation(t *testing.T) {
	svc := newTestService()

	cases := []struct {
		name string
		in   Input
	}{
		{"missing name", Input{Unit: "mcg"}},
		{"missing unit", Input{Name: "BPC-157"}},
		{"long name", Input{Name: strings.Repeat("x", 101), Unit: "mcg"}},
		{"long unit", Input{Name: "BPC-157", Unit: strings.Repeat("u", 21)}},
		{"long route", Input{Name: "BPC-157", Unit: "mcg", Route: strings.Repeat("r", 51)}},
		{"long notes", Input{Name: "BPC-157", Unit: "mcg", Notes: strings.Repeat("n", 501)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "u1", tc.in)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	if _, err := svc.Create(context.Background(), " ", Input{Name: "x", Unit: "mg"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty owner, got %v", err)
	}
}

func TestService_Get_OtherOwnerIsNotFound(t *testing.T) {
	svc := newTestService()
	s, err := svc.Create(context.Background(), "u1", Input{Name: "TB-500", Unit: "mg"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(context.Background(), "u2", s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Update(context.Background(), "u2", s.ID, Input{Name: "x", Unit: "mg"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
}

func TestService_Update(t *testing.T) {
	svc := newTestService()
	s, _ := svc.Create(context.Background(), "u1", Input{Name: "TB-500", Unit: "mg"})

	later := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return later }

	got, err := svc.Update(context.Background(), "u1", s.ID, Input{Name: "TB-500", Unit: "mcg", Notes: "reconstituted"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Unit != "mcg" || got.Notes != "reconstituted" || !got.UpdatedAt.Equal(later) {
		t.Fatalf("unexpected update result: %+v", got)
	}
}

func TestService_Delete_RespectsUsage(t *testing.T) {
	svc := newTestService()
	s, _ := svc.Create(context.Background(), "u1", Input{Name: "TB-500", Unit: "mg"})

	svc.SetUsageChecker(fixedUsage(true))
	if err := svc.Delete(context.Background(), "u1", s.ID); !errors.Is(err, ErrInUse) {
		t.Fatalf("expected ErrInUse, got %v", err)
	}

	svc.SetUsageChecker(fixedUsage(false))
	if err := svc.Delete(context.Background(), "u1", s.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), "u1", s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
