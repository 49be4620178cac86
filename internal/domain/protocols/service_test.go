package protocols

import (
	"context"
	"errors"
	"testing"
	"time"

	"peptide-tracker/internal/domain/schedule"
)

// -------------------------
// Fakes (in-memory)
// -------------------------

type testRepo struct {
	protocols map[string]Protocol
	items     map[string]Item
}

func newTestRepo() *testRepo {
	return &testRepo{protocols: map[string]Protocol{}, items: map[string]Item{}}
}

func (r *testRepo) Create(ctx context.Context, p Protocol) error {
	r.protocols[p.ID] = p
	return nil
}

func (r *testRepo) Update(ctx context.Context, p Protocol) error {
	if _, ok := r.protocols[p.ID]; !ok {
		return ErrNotFound
	}
	r.protocols[p.ID] = p
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Protocol, error) {
	p, ok := r.protocols[id]
	if !ok {
		return Protocol{}, ErrNotFound
	}
	return p, nil
}

func (r *testRepo) ListByOwner(ctx context.Context, ownerID string) ([]Protocol, error) {
	out := make([]Protocol, 0)
	for _, p := range r.protocols {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *testRepo) ListActive(ctx context.Context, ownerID string) ([]Protocol, error) {
	out := make([]Protocol, 0)
	for _, p := range r.protocols {
		if p.IsActive && (ownerID == "" || p.OwnerID == ownerID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	delete(r.protocols, id)
	return nil
}

func (r *testRepo) CreateItem(ctx context.Context, it Item) error {
	r.items[it.ID] = it
	return nil
}

func (r *testRepo) UpdateItem(ctx context.Context, it Item) error {
	if _, ok := r.items[it.ID]; !ok {
		return ErrItemNotFound
	}
	r.items[it.ID] = it
	return nil
}

func (r *testRepo) GetItem(ctx context.Context, id string) (Item, error) {
	it, ok := r.items[id]
	if !ok {
		return Item{}, ErrItemNotFound
	}
	return it, nil
}

func (r *testRepo) ListItems(ctx context.Context, protocolID string) ([]Item, error) {
	out := make([]Item, 0)
	for _, it := range r.items {
		if it.ProtocolID == protocolID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *testRepo) DeleteItem(ctx context.Context, id string) error {
	delete(r.items, id)
	return nil
}

func (r *testRepo) CountItemsBySubstance(ctx context.Context, substanceID string) (int, error) {
	n := 0
	for _, it := range r.items {
		if it.SubstanceID == substanceID {
			n++
		}
	}
	return n, nil
}

// fakeDoses guarda dosis como (item, instante) -> estado, con la misma
// semántica de deduplicación que el storage real.
type doseKey struct {
	item string
	at   time.Time
}

type fakeDoses struct {
	doses map[doseKey]schedule.Status
	now   func() time.Time
}

func newFakeDoses(now func() time.Time) *fakeDoses {
	return &fakeDoses{doses: map[doseKey]schedule.Status{}, now: now}
}

func (f *fakeDoses) UpsertGenerated(ctx context.Context, gen []schedule.GeneratedDose) (int, error) {
	n := 0
	for _, g := range gen {
		k := doseKey{g.ProtocolItemID, g.ScheduledAt}
		if _, ok := f.doses[k]; ok {
			continue
		}
		f.doses[k] = g.Status
		n++
	}
	return n, nil
}

func (f *fakeDoses) DiscardDue(ctx context.Context, itemID string) (int, error) {
	n := 0
	for k, st := range f.doses {
		if k.item == itemID && st == schedule.StatusDue {
			delete(f.doses, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeDoses) DeleteForItem(ctx context.Context, itemID string) error {
	for k := range f.doses {
		if k.item == itemID {
			delete(f.doses, k)
		}
	}
	return nil
}

func (f *fakeDoses) MissedThreshold() int {
	return schedule.DefaultMissedThresholdHours
}

// DetectAndMarkMissed ignora el owner: los tests usan un solo usuario.
func (f *fakeDoses) DetectAndMarkMissed(ctx context.Context, ownerID string, hours int) (int, error) {
	if hours <= 0 {
		hours = f.MissedThreshold()
	}
	cutoff := schedule.MissedCutoff(f.now(), hours)
	n := 0
	for k, st := range f.doses {
		if schedule.IsOverdue(st, k.at, cutoff) {
			f.doses[k] = schedule.StatusMissed
			n++
		}
	}
	return n, nil
}

func (f *fakeDoses) countFor(itemID string, status schedule.Status) int {
	n := 0
	for k, st := range f.doses {
		if k.item == itemID && (status == "" || st == status) {
			n++
		}
	}
	return n
}

type ownedSubstances map[string]string // substanceID -> owner

func (o ownedSubstances) OwnsSubstance(ctx context.Context, ownerID, substanceID string) (bool, error) {
	return o[substanceID] == ownerID, nil
}

// -------------------------
// Helpers
// -------------------------

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func newTestService(now time.Time) (*Service, *testRepo, *fakeDoses) {
	repo := newTestRepo()
	svc := NewService(repo, nil, ownedSubstances{"sub-1": "u1"}, "UTC")
	svc.now = func() time.Time { return now }
	// el fake comparte el reloj del servicio (los tests lo mueven con svc.now)
	doses := newFakeDoses(func() time.Time { return svc.now() })
	svc.doses = doses
	return svc, repo, doses
}

func dailyItem() ItemInput {
	return ItemInput{
		SubstanceID: "sub-1",
		DoseValue:   250,
		Frequency:   schedule.EveryDay,
		TimeOfDay:   "08:00",
	}
}

// -------------------------
// Tests
// -------------------------

func TestService_Create_DefaultsAndValidation(t *testing.T) {
	svc, _, _ := newTestService(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	p, err := svc.Create(ctx, "u1", ProtocolInput{Name: " Recovery ", StartDate: "2025-01-01"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Name != "Recovery" || p.Timezone != "UTC" || !p.IsActive || p.EndDate != nil {
		t.Fatalf("unexpected defaults: %+v", p)
	}

	cases := []struct {
		name string
		in   ProtocolInput
	}{
		{"missing name", ProtocolInput{StartDate: "2025-01-01"}},
		{"bad start", ProtocolInput{Name: "x", StartDate: "tomorrow"}},
		{"end before start", ProtocolInput{Name: "x", StartDate: "2025-01-10", EndDate: strPtr("2025-01-01")}},
		{"bad zone", ProtocolInput{Name: "x", StartDate: "2025-01-01", Timezone: "Mars/Base"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, "u1", tc.in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	// end_date vacío = abierto
	open, err := svc.Create(ctx, "u1", ProtocolInput{Name: "x", StartDate: "2025-01-01", EndDate: strPtr("")})
	if err != nil || open.EndDate != nil {
		t.Fatalf("empty end_date should mean open-ended: %+v err=%v", open, err)
	}
}

func TestService_CreateItem_GeneratesDoses(t *testing.T) {
	svc, _, doses := newTestService(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	p, _ := svc.Create(ctx, "u1", ProtocolInput{Name: "P", StartDate: "2025-01-01", EndDate: strPtr("2025-01-07")})

	it, n, err := svc.CreateItem(ctx, "u1", p.ID, dailyItem())
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if n != 7 || doses.countFor(it.ID, schedule.StatusDue) != 7 {
		t.Fatalf("expected 7 doses, got n=%d stored=%d", n, doses.countFor(it.ID, ""))
	}
}

func TestService_CreateItem_Validation(t *testing.T) {
	svc, _, _ := newTestService(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()
	p, _ := svc.Create(ctx, "u1", ProtocolInput{Name: "P", StartDate: "2025-01-01"})

	mod := func(f func(*ItemInput)) ItemInput {
		in := dailyItem()
		f(&in)
		return in
	}

	cases := []struct {
		name string
		in   ItemInput
	}{
		{"zero dose", mod(func(in *ItemInput) { in.DoseValue = 0 })},
		{"unknown frequency", mod(func(in *ItemInput) { in.Frequency = "MONTHLY" })},
		{"custom without interval", mod(func(in *ItemInput) { in.Frequency = schedule.CustomInterval })},
		{"weekly without days", mod(func(in *ItemInput) { in.Frequency = schedule.Weekly })},
		{"weekly day out of range", mod(func(in *ItemInput) {
			in.Frequency = schedule.Weekly
			in.DaysOfWeek = []int{7}
		})},
		{"bad time", mod(func(in *ItemInput) { in.TimeOfDay = "8am" })},
		{"foreign substance", mod(func(in *ItemInput) { in.SubstanceID = "sub-2" })},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := svc.CreateItem(ctx, "u1", p.ID, tc.in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	if _, _, err := svc.CreateItem(ctx, "u2", p.ID, dailyItem()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign protocol, got %v", err)
	}
}

func TestService_CreateItem_NormalizesRule(t *testing.T) {
	svc, _, _ := newTestService(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()
	p, _ := svc.Create(ctx, "u1", ProtocolInput{Name: "P", StartDate: "2025-01-01", EndDate: strPtr("2025-01-14")})

	in := dailyItem()
	in.Frequency = schedule.Weekly
	in.DaysOfWeek = []int{3, 1, 3}
	in.IntervalDays = intPtr(5)
	in.TimeOfDay = "7:30:00"

	it, n, err := svc.CreateItem(ctx, "u1", p.ID, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if it.IntervalDays != nil || len(it.DaysOfWeek) != 2 || it.DaysOfWeek[0] != 1 || it.DaysOfWeek[1] != 3 {
		t.Fatalf("rule not normalized: %+v", it)
	}
	if it.TimeOfDay != "07:30" {
		t.Fatalf("time not normalized: %q", it.TimeOfDay)
	}
	if n != 4 {
		t.Fatalf("expected 4 weekly doses, got %d", n)
	}
}

func TestService_UpdateItem_RegeneratesOnlyPending(t *testing.T) {
	// hoy = 2025-01-04; corte de MISSED = 2025-01-03 21:00
	now := time.Date(2025, 1, 4, 9, 0, 0, 0, time.UTC)
	svc, _, doses := newTestService(now)
	ctx := context.Background()

	p, _ := svc.Create(ctx, "u1", ProtocolInput{Name: "P", StartDate: "2025-01-01", EndDate: strPtr("2025-01-07")})
	it, _, err := svc.CreateItem(ctx, "u1", p.ID, dailyItem())
	if err != nil {
		t.Fatalf("create item: %v", err)
	}

	// los tres primeros días ya se resolvieron
	for d := 1; d <= 3; d++ {
		doses.doses[doseKey{it.ID, time.Date(2025, 1, d, 8, 0, 0, 0, time.UTC)}] = schedule.StatusDone
	}

	in := dailyItem()
	in.TimeOfDay = "20:00"
	updated, n, err := svc.UpdateItem(ctx, "u1", it.ID, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.TimeOfDay != "20:00" {
		t.Fatalf("unexpected item: %+v", updated)
	}

	// 4..7 a las 20:00; el historial DONE se conserva
	if n != 4 {
		t.Fatalf("expected 4 regenerated doses, got %d", n)
	}
	if got := doses.countFor(it.ID, schedule.StatusDone); got != 3 {
		t.Fatalf("history lost: %d DONE", got)
	}
	if got := doses.countFor(it.ID, schedule.StatusDue); got != 4 {
		t.Fatalf("expected 4 DUE, got %d", got)
	}
	if _, ok := doses.doses[doseKey{it.ID, time.Date(2025, 1, 4, 8, 0, 0, 0, time.UTC)}]; ok {
		t.Fatalf("old pending dose should be discarded")
	}
}

func TestService_UpdateItem_KeepsRecentPendingAndMissesOverdue(t *testing.T) {
	// 02:00 del 6: la dosis de las 23:00 del 5 sigue dentro del umbral de 12h
	now := time.Date(2025, 1, 6, 2, 0, 0, 0, time.UTC)
	svc, _, doses := newTestService(now)
	ctx := context.Background()

	p, _ := svc.Create(ctx, "u1", ProtocolInput{Name: "P", StartDate: "2025-01-01", EndDate: strPtr("2025-01-10")})
	in := dailyItem()
	in.TimeOfDay = "23:00"
	it, n, err := svc.CreateItem(ctx, "u1", p.ID, in)
	if err != nil || n != 10 {
		t.Fatalf("create item: n=%d err=%v", n, err)
	}

	in.DoseValue = 500
	if _, _, err := svc.UpdateItem(ctx, "u1", it.ID, in); err != nil {
		t.Fatalf("update: %v", err)
	}

	recent := doseKey{it.ID, time.Date(2025, 1, 5, 23, 0, 0, 0, time.UTC)}
	if st, ok := doses.doses[recent]; !ok || st != schedule.StatusDue {
		t.Fatalf("recent pending dose should survive the edit, got %q present=%v", st, ok)
	}
	// 1..4 vencidas quedan como MISSED en vez de desaparecer
	if got := doses.countFor(it.ID, schedule.StatusMissed); got != 4 {
		t.Fatalf("expected 4 MISSED, got %d", got)
	}
	if got := doses.countFor(it.ID, schedule.StatusDue); got != 6 {
		t.Fatalf("expected 6 DUE (5..10), got %d", got)
	}
}

func TestService_Update_ScheduleChangeRegenerates(t *testing.T) {
	svc, _, doses := newTestService(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	p, _ := svc.Create(ctx, "u1", ProtocolInput{Name: "P", StartDate: "2025-01-01", EndDate: strPtr("2025-01-07")})
	it, _, _ := svc.CreateItem(ctx, "u1", p.ID, dailyItem())

	// sólo nombre: sin regeneración
	_, n, err := svc.Update(ctx, "u1", p.ID, ProtocolInput{Name: "Renamed", StartDate: "2025-01-01", EndDate: strPtr("2025-01-07"), Timezone: "UTC"})
	if err != nil || n != 0 {
		t.Fatalf("rename should not regenerate: n=%d err=%v", n, err)
	}

	// zona distinta: mismas fechas, otros instantes
	_, n, err = svc.Update(ctx, "u1", p.ID, ProtocolInput{Name: "Renamed", StartDate: "2025-01-01", EndDate: strPtr("2025-01-07"), Timezone: "Asia/Kuala_Lumpur"})
	if err != nil || n != 7 {
		t.Fatalf("zone change should regenerate 7: n=%d err=%v", n, err)
	}
	if _, ok := doses.doses[doseKey{it.ID, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}]; !ok {
		t.Fatalf("expected 08:00 Kuala Lumpur = 00:00 UTC dose")
	}
	if got := doses.countFor(it.ID, ""); got != 7 {
		t.Fatalf("expected 7 doses after regeneration, got %d", got)
	}
}

func TestService_Delete_Cascades(t *testing.T) {
	svc, repo, doses := newTestService(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	p, _ := svc.Create(ctx, "u1", ProtocolInput{Name: "P", StartDate: "2025-01-01", EndDate: strPtr("2025-01-07")})
	it, _, _ := svc.CreateItem(ctx, "u1", p.ID, dailyItem())

	if err := svc.Delete(ctx, "u2", p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign delete: %v", err)
	}
	if err := svc.Delete(ctx, "u1", p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(repo.items) != 0 || len(repo.protocols) != 0 || doses.countFor(it.ID, "") != 0 {
		t.Fatalf("cascade incomplete")
	}
}

func TestService_RefreshSchedules_ExtendsActiveProtocols(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc, _, doses := newTestService(start)
	ctx := context.Background()

	p, _ := svc.Create(ctx, "u1", ProtocolInput{Name: "Open", StartDate: "2025-01-01"})
	it, n, _ := svc.CreateItem(ctx, "u1", p.ID, dailyItem())
	if n != 85 {
		t.Fatalf("expected 85 initial doses, got %d", n)
	}

	inactive := false
	q, _ := svc.Create(ctx, "u1", ProtocolInput{Name: "Paused", StartDate: "2025-01-01", IsActive: &inactive})
	paused, _, _ := svc.CreateItem(ctx, "u1", q.ID, dailyItem())

	// diez días después la ventana avanza diez días
	svc.now = func() time.Time { return start.AddDate(0, 0, 10) }
	added, err := svc.RefreshSchedules(ctx, "")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if added != 10 {
		t.Fatalf("expected 10 new doses, got %d", added)
	}
	if doses.countFor(it.ID, "") != 95 {
		t.Fatalf("expected 95 doses, got %d", doses.countFor(it.ID, ""))
	}
	if doses.countFor(paused.ID, "") != 85 {
		t.Fatalf("inactive protocol should not be refreshed")
	}

	// idempotente
	if added, _ := svc.RefreshSchedules(ctx, "u1"); added != 0 {
		t.Fatalf("second refresh should add nothing, got %d", added)
	}
}

func TestService_SubstanceInUse(t *testing.T) {
	svc, _, _ := newTestService(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	used, _ := svc.SubstanceInUse(ctx, "sub-1")
	if used {
		t.Fatalf("no items yet")
	}
	p, _ := svc.Create(ctx, "u1", ProtocolInput{Name: "P", StartDate: "2025-01-01", EndDate: strPtr("2025-01-02")})
	_, _, _ = svc.CreateItem(ctx, "u1", p.ID, dailyItem())

	used, _ = svc.SubstanceInUse(ctx, "sub-1")
	if !used {
		t.Fatalf("expected substance in use")
	}
}

func TestPreview(t *testing.T) {
	p := Protocol{OwnerID: "u1", StartDate: "2025-01-01", EndDate: strPtr("2025-01-03"), Timezone: "UTC"}
	items := []Item{
		{ID: "a", Frequency: schedule.EveryDay, TimeOfDay: "08:00"},
		{ID: "b", Frequency: schedule.EveryDay, TimeOfDay: "20:00"},
	}

	gen, err := Preview(p, items, nil)
	if err != nil || len(gen) != 6 {
		t.Fatalf("expected 6 preview doses, got %d err=%v", len(gen), err)
	}
	empty, err := Preview(p, nil, nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty preview")
	}
}
