package leveldb

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	domain "github.com/bryanwahyu/medscan/internal/domain/analysis"
)

func openTemp(t *testing.T) *AnalysisRepository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func result(id string, st domain.ScanType, patient string, at time.Time) *domain.Result {
	return &domain.Result{
		ID:           id,
		ScanType:     st,
		FileName:     id + ".dcm",
		AnalysisDate: at,
		PatientInfo:  domain.PatientInfo{PatientID: patient},
		Confidence:   0.9,
		Findings:     domain.Findings{Normal: true}.Normalize(),
	}
}

func TestSaveGet(t *testing.T) {
	repo := openTemp(t)
	ctx := context.Background()
	want := result("a", domain.ScanCT, "P1", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	missing, err := repo.Get(ctx, "nope")
	if missing != nil || err != nil {
		t.Errorf("Get(nope) = (%v, %v), want (nil, nil)", missing, err)
	}
}

func TestPaginateNewestFirst(t *testing.T) {
	repo := openTemp(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		st := domain.ScanXRay
		if i%2 == 0 {
			st = domain.ScanMRI
		}
		if err := repo.Save(ctx, result(fmt.Sprintf("r%d", i), st, "P1", base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatal(err)
		}
	}

	ids := func(rs []*domain.Result) []string {
		out := make([]string, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.ID)
		}
		return out
	}

	page1, err := repo.Paginate(ctx, 1, 2, domain.ListFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"r4", "r3"}, ids(page1)); diff != "" {
		t.Errorf("page 1 (-want +got):\n%s", diff)
	}
	page3, _ := repo.Paginate(ctx, 3, 2, domain.ListFilter{})
	if diff := cmp.Diff([]string{"r0"}, ids(page3)); diff != "" {
		t.Errorf("page 3 (-want +got):\n%s", diff)
	}
	mri, _ := repo.Paginate(ctx, 1, 10, domain.ListFilter{ScanType: domain.ScanMRI})
	if diff := cmp.Diff([]string{"r4", "r2", "r0"}, ids(mri)); diff != "" {
		t.Errorf("mri filter (-want +got):\n%s", diff)
	}
	none, _ := repo.Paginate(ctx, 1, 10, domain.ListFilter{PatientID: "P9"})
	if len(none) != 0 {
		t.Errorf("patient filter returned %v", ids(none))
	}
}

func TestSaveReplacesIndex(t *testing.T) {
	repo := openTemp(t)
	ctx := context.Background()
	r := result("same", domain.ScanCT, "P1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err := repo.Save(ctx, r); err != nil {
		t.Fatal(err)
	}
	r2 := result("same", domain.ScanCT, "P1", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	if err := repo.Save(ctx, r2); err != nil {
		t.Fatal(err)
	}

	all, err := repo.Paginate(ctx, 1, 10, domain.ListFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || !all[0].AnalysisDate.Equal(r2.AnalysisDate) {
		t.Errorf("got %d entries after re-save, want the updated one", len(all))
	}
}

func TestCheck(t *testing.T) {
	repo, err := Open(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Check(context.Background()); err != nil {
		t.Errorf("Check on open db: %v", err)
	}
	repo.Close()
	if err := repo.Check(context.Background()); err == nil {
		t.Error("Check on closed db: want error")
	}
}

func TestFailureLogNewestFirst(t *testing.T) {
	repo := openTemp(t)
	log := repo.Failures()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, phase := range []string{domain.PhasePredict, domain.PhaseArchive, domain.PhaseSave} {
		f := &domain.Failure{ID: fmt.Sprintf("f%d", i), ScanType: domain.ScanMRI, Phase: phase, Message: "boom", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := log.Record(ctx, f); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	// same timestamp twice still keeps both
	if err := log.Record(ctx, &domain.Failure{ID: "dup", CreatedAt: base}); err != nil {
		t.Fatal(err)
	}

	got, err := log.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	var phases []string
	for _, f := range got {
		phases = append(phases, f.Phase)
	}
	if diff := cmp.Diff([]string{domain.PhaseSave, domain.PhaseArchive}, phases); diff != "" {
		t.Errorf("Recent mismatch (-want +got):\n%s", diff)
	}

	all, err := log.Recent(ctx, 0)
	if err != nil || len(all) != 4 {
		t.Errorf("Recent(0) = %d entries, err %v; want 4", len(all), err)
	}

	// failures never show up in the analysis index
	list, err := repo.Paginate(ctx, 1, 10, domain.ListFilter{})
	if err != nil || len(list) != 0 {
		t.Errorf("Paginate = (%v, %v), want empty", list, err)
	}
}
