package memory

import (
	"context"
	"testing"
	"time"

	"peptide-tracker/internal/domain/doses"
	"peptide-tracker/internal/domain/schedule"
)

func TestDoseRepo_InsertIgnoresDuplicateSlots(t *testing.T) {
	repo := NewDoseRepo()
	ctx := context.Background()
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	n, err := repo.InsertIgnoringConflicts(ctx, []doses.Dose{
		{ID: "a", ProtocolItemID: "it1", OwnerID: "u1", ScheduledAt: at, Status: schedule.StatusDue},
		{ID: "b", ProtocolItemID: "it1", OwnerID: "u1", ScheduledAt: at.In(time.FixedZone("KL", 8*3600)), Status: schedule.StatusDue},
		{ID: "c", ProtocolItemID: "it2", OwnerID: "u1", ScheduledAt: at, Status: schedule.StatusDue},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 inserted, got %d", n)
	}
}

func TestDoseRepo_ConditionalUpdatesOnlyTouchDue(t *testing.T) {
	repo := NewDoseRepo()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	inserted, err := repo.InsertIgnoringConflicts(ctx, []doses.Dose{
		{ID: "a", ProtocolItemID: "it1", OwnerID: "u1", ScheduledAt: base, Status: schedule.StatusDue},
		{ID: "b", ProtocolItemID: "it1", OwnerID: "u1", ScheduledAt: base.Add(24 * time.Hour), Status: schedule.StatusDue},
		{ID: "c", ProtocolItemID: "it2", OwnerID: "u2", ScheduledAt: base, Status: schedule.StatusDue},
	})
	if err != nil || inserted != 3 {
		t.Fatalf("expected 3 inserted, got %d (%v)", inserted, err)
	}

	done := base.Add(time.Hour)
	changed, err := repo.UpdateStatusIfDue(ctx, "a", schedule.StatusDone, &done)
	if err != nil || !changed {
		t.Fatalf("expected change, got %v %v", changed, err)
	}
	changed, _ = repo.UpdateStatusIfDue(ctx, "a", schedule.StatusSkipped, nil)
	if changed {
		t.Fatalf("terminal dose must not change")
	}

	n, _ := repo.MarkMissedBefore(ctx, "u1", base.Add(48*time.Hour))
	if n != 1 {
		t.Fatalf("expected 1 missed for u1, got %d", n)
	}
	if d, _ := repo.GetByID(ctx, "a"); d.Status != schedule.StatusDone {
		t.Fatalf("done dose was overwritten: %s", d.Status)
	}
	if d, _ := repo.GetByID(ctx, "c"); d.Status != schedule.StatusDue {
		t.Fatalf("other owner's dose was swept")
	}

	// it1 ya no tiene dosis DUE (a=DONE, b=MISSED)
	if deleted, _ := repo.DeleteByItem(ctx, "it1", true); deleted != 0 {
		t.Fatalf("resolved doses must survive, deleted %d", deleted)
	}
	if deleted, _ := repo.DeleteByItem(ctx, "it2", true); deleted != 1 {
		t.Fatalf("u2's DUE dose should be deleted, got %d", deleted)
	}
}

func TestDoseRepo_ListRangesAndOrder(t *testing.T) {
	repo := NewDoseRepo()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"d0", "d1", "d2", "d3"} {
		_, _ = repo.InsertIgnoringConflicts(ctx, []doses.Dose{{
			ID: id, ProtocolItemID: "it1", OwnerID: "u1",
			ScheduledAt: base.Add(time.Duration(i) * 24 * time.Hour), Status: schedule.StatusDue,
		}})
	}

	got, _ := repo.List(ctx, doses.ListFilter{OwnerID: "u1", From: base.Add(24 * time.Hour), To: base.Add(72 * time.Hour)})
	if len(got) != 2 || got[0].ID != "d1" || got[1].ID != "d2" {
		t.Fatalf("unexpected range: %+v", got)
	}

	hist, _ := repo.ListBefore(ctx, "u1", base.Add(72*time.Hour), 2)
	if len(hist) != 2 || hist[0].ID != "d2" || hist[1].ID != "d1" {
		t.Fatalf("unexpected history: %+v", hist)
	}
}
