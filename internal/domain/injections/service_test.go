package injections

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"peptide-tracker/internal/domain/sites"
)

// -------------------------
// Fakes (in-memory)
// -------------------------

type testRepo struct {
	byID map[string]Log
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Log{}}
}

func (r *testRepo) Create(ctx context.Context, l Log) error {
	r.byID[l.ID] = l
	return nil
}

func (r *testRepo) Update(ctx context.Context, l Log) error {
	if _, ok := r.byID[l.ID]; !ok {
		return ErrNotFound
	}
	r.byID[l.ID] = l
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Log, error) {
	l, ok := r.byID[id]
	if !ok {
		return Log{}, ErrNotFound
	}
	return l, nil
}

func (r *testRepo) GetByDose(ctx context.Context, doseID string) (Log, error) {
	for _, l := range r.byID {
		if l.ScheduledDoseID == doseID {
			return l, nil
		}
	}
	return Log{}, ErrNotFound
}

func (r *testRepo) sorted(ownerID string) []Log {
	out := make([]Log, 0)
	for _, l := range r.byID {
		if l.OwnerID == ownerID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActualTime.After(out[j].ActualTime) })
	return out
}

func (r *testRepo) List(ctx context.Context, ownerID string, limit int) ([]Log, error) {
	out := r.sorted(ownerID)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	delete(r.byID, id)
	return nil
}

func (r *testRepo) RecentSiteUsage(ctx context.Context, ownerID string, limit int) ([]sites.UsageLog, error) {
	out := make([]sites.UsageLog, 0)
	for _, l := range r.sorted(ownerID) {
		if l.Site == "" {
			continue
		}
		out = append(out, sites.UsageLog{Site: l.Site, ActualTime: l.ActualTime})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeDoses struct {
	owner     map[string]string
	completed map[string]time.Time
}

func (f *fakeDoses) CompleteIfDue(ctx context.Context, ownerID, doseID string, at time.Time) (bool, error) {
	if f.owner[doseID] != ownerID {
		return false, ErrDoseNotFound
	}
	if _, ok := f.completed[doseID]; ok {
		return false, nil
	}
	f.completed[doseID] = at
	return true, nil
}

func newTestService(now time.Time) (*Service, *testRepo, *fakeDoses) {
	repo := newTestRepo()
	doses := &fakeDoses{
		owner:     map[string]string{"d1": "u1", "d2": "u1", "d3": "u1", "dx": "u2"},
		completed: map[string]time.Time{},
	}
	svc := NewService(repo, doses)
	svc.now = func() time.Time { return now }
	return svc, repo, doses
}

func intPtr(n int) *int { return &n }

// -------------------------
// Tests
// -------------------------

func TestService_Create_CompletesDose(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	svc, _, doses := newTestService(now)

	l, err := svc.Create(context.Background(), "u1", CreateInput{ScheduledDoseID: "d1", Site: "arm-left", PainScore: intPtr(2)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !l.ActualTime.Equal(now) || l.Site != "arm-left" || *l.PainScore != 2 {
		t.Fatalf("unexpected log: %+v", l)
	}
	if at, ok := doses.completed["d1"]; !ok || !at.Equal(now) {
		t.Fatalf("dose should be completed at actual time")
	}

	if _, err := svc.Create(context.Background(), "u1", CreateInput{ScheduledDoseID: "d1"}); !errors.Is(err, ErrAlreadyLogged) {
		t.Fatalf("expected ErrAlreadyLogged, got %v", err)
	}
}

func TestService_Create_Validation(t *testing.T) {
	svc, _, _ := newTestService(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateInput
		want error
	}{
		{"missing dose", CreateInput{}, ErrInvalidInput},
		{"unknown site", CreateInput{ScheduledDoseID: "d1", Site: "elbow"}, ErrInvalidInput},
		{"pain too high", CreateInput{ScheduledDoseID: "d1", PainScore: intPtr(11)}, ErrInvalidInput},
		{"pain negative", CreateInput{ScheduledDoseID: "d1", PainScore: intPtr(-1)}, ErrInvalidInput},
		{"foreign dose", CreateInput{ScheduledDoseID: "dx"}, ErrDoseNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, "u1", tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestService_Create_ToleratesResolvedDose(t *testing.T) {
	svc, _, doses := newTestService(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC))
	doses.completed["d2"] = time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	if _, err := svc.Create(context.Background(), "u1", CreateInput{ScheduledDoseID: "d2"}); err != nil {
		t.Fatalf("logging an already completed dose should work: %v", err)
	}
}

func TestService_UpdateAndDelete(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now)
	ctx := context.Background()

	l, _ := svc.Create(ctx, "u1", CreateInput{ScheduledDoseID: "d1"})

	at := now.Add(-30 * time.Minute)
	got, err := svc.Update(ctx, "u1", l.ID, UpdateInput{ActualTime: &at, Site: "glute-right", Notes: "ok"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !got.ActualTime.Equal(at) || got.Site != "glute-right" || got.PainScore != nil {
		t.Fatalf("unexpected update: %+v", got)
	}

	if _, err := svc.Update(ctx, "u2", l.ID, UpdateInput{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign update: %v", err)
	}
	if err := svc.Delete(ctx, "u1", l.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, "u1", l.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestService_SitePlan(t *testing.T) {
	now := time.Date(2025, 1, 3, 9, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now)
	ctx := context.Background()

	all := sites.All()
	first := now.Add(-48 * time.Hour)
	second := now.Add(-24 * time.Hour)

	_, _ = svc.Create(ctx, "u1", CreateInput{ScheduledDoseID: "d1", ActualTime: &first, Site: all[0].ID})
	_, _ = svc.Create(ctx, "u1", CreateInput{ScheduledDoseID: "d2", ActualTime: &second, Site: all[1].ID})
	_, _ = svc.Create(ctx, "u1", CreateInput{ScheduledDoseID: "d3"}) // sin sitio

	plan, err := svc.SitePlan(ctx, "u1", "ms")
	if err != nil {
		t.Fatalf("site plan: %v", err)
	}
	if len(plan.Sites) != len(all) {
		t.Fatalf("expected full catalog, got %d", len(plan.Sites))
	}
	if plan.Suggested.Site.ID != all[2].ID {
		t.Fatalf("expected first unused site %s, got %s", all[2].ID, plan.Suggested.Site.ID)
	}
	if plan.Sites[0].LastUsedAt == nil || !plan.Sites[0].LastUsedAt.Equal(first) {
		t.Fatalf("unexpected last use for %s: %v", all[0].ID, plan.Sites[0].LastUsedAt)
	}
	if plan.Sites[2].LastUsedAt != nil {
		t.Fatalf("unused site should have no last use")
	}
	if plan.Sites[0].Label != all[0].LabelMs {
		t.Fatalf("expected malay label, got %q", plan.Sites[0].Label)
	}
}
