package history

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/deixis/steward/internal/outcome"
	"github.com/deixis/steward/internal/report"
)

func sampleRecord(id string, started time.Time) *Record {
	r := report.New()
	r.AddUnreachable("compute0")
	return &Record{
		ID:       id,
		RunID:    "run-1",
		Stage:    "deploy",
		Command:  "kolla-ansible deploy",
		ExitCode: 2,
		Decision: "unreachable",
		Report:   r,
		Started:  started,
		Finished: started.Add(time.Minute),
	}
}

func TestDiskStore_RoundTrip(t *testing.T) {
	s := NewDiskStore(filepath.Join(t.TempDir(), "history"))
	want := sampleRecord("a1", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))

	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load("a1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Stage != want.Stage || got.ExitCode != want.ExitCode || got.Decision != want.Decision {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
	if got.Report == nil || got.Report.NumUnreachable != 1 || got.Report.Unreachable[0] != "compute0" {
		t.Errorf("Report = %+v, want one unreachable host", got.Report)
	}
	if !got.Started.Equal(want.Started) || got.Duration() != time.Minute {
		t.Errorf("times = %v..%v, want %v + 1m", got.Started, got.Finished, want.Started)
	}
}

func TestDiskStore_LazyTempDir(t *testing.T) {
	s := NewDiskStore("")
	dir, err := s.Dir()
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	again, _ := s.Dir()
	if again != dir {
		t.Errorf("Dir changed from %s to %s", dir, again)
	}
}

func TestDiskStore_LoadMissing(t *testing.T) {
	s := NewDiskStore(t.TempDir())
	_, err := s.Load("nope")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load error = %v, want not exist", err)
	}
}

func TestDiskStore_RejectsPathIDs(t *testing.T) {
	s := NewDiskStore(t.TempDir())
	for _, id := range []string{"", "..", "../x", `a\b`} {
		if err := s.Save(&Record{ID: id}); err == nil {
			t.Errorf("Save(%q) succeeded, want error", id)
		}
		if _, err := s.Load(id); err == nil {
			t.Errorf("Load(%q) succeeded, want error", id)
		}
	}
}

func TestDiskStore_List(t *testing.T) {
	s := NewDiskStore(t.TempDir())
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"c", "a", "b"} {
		if err := s.Save(sampleRecord(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatal(err)
		}
	}
	recs, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var ids []string
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	if len(ids) != 3 || ids[0] != "c" || ids[1] != "a" || ids[2] != "b" {
		t.Errorf("List order = %v, want [c a b]", ids)
	}
}

// countingStore counts backing loads.
type countingStore struct {
	Store
	loads int
}

func (c *countingStore) Load(id string) (*Record, error) {
	c.loads++
	return c.Store.Load(id)
}

func TestLRUStore_HitAndEvict(t *testing.T) {
	back := &countingStore{Store: NewDiskStore(t.TempDir())}
	s := NewLRUStore(2, back)
	now := time.Now()

	for _, id := range []string{"a", "b", "c"} {
		if err := s.Save(sampleRecord(id, now)); err != nil {
			t.Fatal(err)
		}
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}

	if _, err := s.Load("c"); err != nil {
		t.Fatal(err)
	}
	if back.loads != 0 {
		t.Errorf("backing loads = %d after cache hit, want 0", back.loads)
	}

	// "a" was evicted and must come from disk.
	if _, err := s.Load("a"); err != nil {
		t.Fatal(err)
	}
	if back.loads != 1 {
		t.Errorf("backing loads = %d after miss, want 1", back.loads)
	}

	// Loading "a" evicted "b", the least recently used.
	if _, err := s.Load("b"); err != nil {
		t.Fatal(err)
	}
	if back.loads != 2 {
		t.Errorf("backing loads = %d, want 2", back.loads)
	}
}

func TestLRUStore_SaveErrorNotCached(t *testing.T) {
	s := NewLRUStore(4, NewDiskStore(t.TempDir()))
	if err := s.Save(&Record{ID: "../bad"}); err == nil {
		t.Fatal("Save succeeded, want error")
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestRecord_Apply(t *testing.T) {
	r := report.New()
	r.AddUnreachable("h1")

	tests := []struct {
		name     string
		decision outcome.Decision
		code     int
		label    string
		reason   string
	}{
		{"success", outcome.Success{}, 0, "success", ""},
		{"fatal", outcome.Fatal{ExitCode: 2, Reason: outcome.ReasonFailures}, 2, "fatal", outcome.ReasonFailures},
		{"unreachable", outcome.RecoverableUnreachable{Command: "x", ExitCode: 1, Report: r}, 1, "unreachable", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec Record
			rec.Apply(tt.decision)
			if rec.ExitCode != tt.code || rec.Decision != tt.label || rec.Reason != tt.reason {
				t.Errorf("Apply = %+v, want code=%d decision=%s reason=%q", rec, tt.code, tt.label, tt.reason)
			}
		})
	}
}

func TestRecord_String(t *testing.T) {
	rec := sampleRecord("a1", time.Now())
	want := "a1 deploy exit=2 unreachable: 0 failed, 1 unreachable"
	if got := rec.String(); got != want {
		t.Errorf("String = %q, want %q", got, want)
	}
}
