package memory

import (
	"context"
	"testing"

	"github.com/hamed0406/netmonitor/internal/domain"
	"github.com/hamed0406/netmonitor/internal/repo"
)

func TestStore_CreateAndFetchTarget(t *testing.T) {
	ctx := context.Background()
	s := New()

	tgt, err := s.Create(ctx, repo.CreateTarget{Name: "t", Address: "https://x.test", OwnerID: "u1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tgt.ID == "" {
		t.Fatalf("expected target ID to be set")
	}
	if tgt.SpeedTestResults == nil || len(tgt.SpeedTestResults) != 0 {
		t.Fatalf("expected empty results collection, got %+v", tgt.SpeedTestResults)
	}
	if tgt.AlertRules == nil || len(tgt.AlertRules) != 0 {
		t.Fatalf("expected empty alert rules collection, got %+v", tgt.AlertRules)
	}

	got, err := s.FindByIDWithRelations(ctx, tgt.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Name != "t" || got.Address != "https://x.test" || got.OwnerID != "u1" {
		t.Fatalf("unexpected target: %+v", got)
	}
}

func TestStore_FindByOwnerAndUpdate(t *testing.T) {
	ctx := context.Background()
	s := New()

	a, _ := s.Create(ctx, repo.CreateTarget{Name: "a", Address: "https://a.test", OwnerID: "u1"})
	_, _ = s.Create(ctx, repo.CreateTarget{Name: "b", Address: "https://b.test", OwnerID: "u2"})

	mine, err := s.FindByOwnerWithRelations(ctx, "u1")
	if err != nil || len(mine) != 1 || mine[0].ID != a.ID {
		t.Fatalf("owner filter wrong: %v %+v", err, mine)
	}

	name := "renamed"
	upd, err := s.Update(ctx, a.ID, repo.UpdateTarget{Name: &name})
	if err != nil || upd.Name != "renamed" || upd.Address != "https://a.test" {
		t.Fatalf("update wrong: %v %+v", err, upd)
	}
}

func TestStore_DeleteRemovesResults(t *testing.T) {
	ctx := context.Background()
	s := New()
	rs := s.Results()

	tgt, _ := s.Create(ctx, repo.CreateTarget{Name: "t", Address: "https://x.test", OwnerID: "u1"})
	ping := 12.0
	dl := 94.5
	zero := 0.0
	if _, err := rs.Create(ctx, repo.CreateResult{
		TargetID: tgt.ID, Ping: &ping, Download: &dl, Upload: &zero, Status: domain.StatusSuccess,
	}); err != nil {
		t.Fatalf("create result: %v", err)
	}

	if err := s.Delete(ctx, tgt.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.FindByID(ctx, tgt.ID); err != repo.ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	got, _ := rs.FindByTargetID(ctx, tgt.ID, 0)
	if len(got) != 0 {
		t.Fatalf("results should cascade on delete, got %d", len(got))
	}
}

func TestResults_LimitNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	rs := s.Results()

	tgt, _ := s.Create(ctx, repo.CreateTarget{Name: "t", Address: "https://x.test", OwnerID: "u1"})
	for i := 0; i < 3; i++ {
		p := float64(i)
		d := float64(i * 10)
		z := 0.0
		_, _ = rs.Create(ctx, repo.CreateResult{
			TargetID: tgt.ID, Ping: &p, Download: &d, Upload: &z, Status: domain.StatusSuccess,
		})
	}

	got, err := rs.FindByTargetID(ctx, tgt.ID, 2)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 results, got %d", len(got))
	}
	if *got[0].Ping != 2 {
		t.Fatalf("want newest first, got ping=%v", *got[0].Ping)
	}
}

func TestStore_PreferenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.GetByUserID(ctx, "u1"); err != repo.ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := s.SetPreference(ctx, domain.SpeedTestPreference{UserID: "u1", SourceID: "hetzner-10mb"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	p, err := s.GetByUserID(ctx, "u1")
	if err != nil || p.SourceID != "hetzner-10mb" {
		t.Fatalf("get: %v %+v", err, p)
	}
}
