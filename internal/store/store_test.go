package store

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"halfqwerty/internal/ime"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult(started time.Time, layoutName string, wpm, acc float64) *Result {
	return &Result{
		StartedAt:   started,
		Elapsed:     time.Minute,
		Layout:      layoutName,
		Source:      SourceTutor,
		TotalChars:  int(wpm * 5),
		MirrorChars: int(wpm),
		Errors:      1,
		WPM:         wpm,
		Accuracy:    acc,
	}
}

func TestOpenAndClose(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "test.db")
	s, err := Open(dbPath, WithBusyTimeout(time.Second))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	if s.Path() != dbPath {
		t.Errorf("Path() = %s", s.Path())
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file missing: %v", err)
	}
}

func TestCloseNilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close on nil db should not error: %v", err)
	}
}

func TestReopenKeepsResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	id, err := s.InsertResult(sampleResult(time.Now(), "wide", 40, 95))
	if err != nil {
		t.Fatalf("InsertResult failed: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	if _, err := s.GetResult(id); err != nil {
		t.Errorf("result lost after reopen: %v", err)
	}
}

func TestInsertAndGetResult(t *testing.T) {
	s := openTestStore(t)

	started := time.Unix(1_700_000_000, 123_000_000)
	r := sampleResult(started, "left", 37.5, 97.25)
	r.Elapsed = 61500 * time.Millisecond

	id, err := s.InsertResult(r)
	if err != nil {
		t.Fatalf("InsertResult failed: %v", err)
	}
	if id <= 0 || r.ID != id {
		t.Fatalf("unexpected id %d (result has %d)", id, r.ID)
	}

	got, err := s.GetResult(id)
	if err != nil {
		t.Fatalf("GetResult failed: %v", err)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, expected %v", got.StartedAt, started)
	}
	if got.Elapsed != r.Elapsed {
		t.Errorf("Elapsed = %v, expected %v", got.Elapsed, r.Elapsed)
	}
	if got.Layout != "left" || got.Source != SourceTutor {
		t.Errorf("Layout/Source = %s/%s", got.Layout, got.Source)
	}
	if got.TotalChars != r.TotalChars || got.MirrorChars != r.MirrorChars || got.Errors != r.Errors {
		t.Errorf("counters mismatch: %+v vs %+v", got, r)
	}
	if math.Abs(got.WPM-37.5) > 1e-9 || math.Abs(got.Accuracy-97.25) > 1e-9 {
		t.Errorf("WPM/Accuracy = %v/%v", got.WPM, got.Accuracy)
	}
}

func TestInsertResultDefaultsSource(t *testing.T) {
	s := openTestStore(t)
	r := sampleResult(time.Now(), "wide", 20, 90)
	r.Source = ""
	id, err := s.InsertResult(r)
	if err != nil {
		t.Fatalf("InsertResult failed: %v", err)
	}
	got, _ := s.GetResult(id)
	if got.Source != SourceTutor {
		t.Errorf("Source = %q, expected %q", got.Source, SourceTutor)
	}
}

func TestInsertResultRejectsInvalid(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.InsertResult(nil); err == nil {
		t.Error("expected error for nil result")
	}

	r := sampleResult(time.Now(), "", 20, 90)
	if _, err := s.InsertResult(r); err == nil {
		t.Error("expected error for empty layout")
	}

	r = sampleResult(time.Now(), "wide", 20, 90)
	r.MirrorChars = r.TotalChars + 1
	if _, err := s.InsertResult(r); err == nil {
		t.Error("expected constraint error for mirror_chars > total_chars")
	}
}

func TestGetResultNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetResult(42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListResultsOrderAndLimit(t *testing.T) {
	s := openTestStore(t)
	base := time.Unix(1_700_000_000, 0)

	for i, wpm := range []float64{30, 35, 40, 45} {
		if _, err := s.InsertResult(sampleResult(base.Add(time.Duration(i)*time.Hour), "wide", wpm, 95)); err != nil {
			t.Fatalf("InsertResult %d failed: %v", i, err)
		}
	}

	all, err := s.ListResults(0)
	if err != nil {
		t.Fatalf("ListResults failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 results, got %d", len(all))
	}
	if all[0].WPM != 45 || all[3].WPM != 30 {
		t.Errorf("not newest first: %v ... %v", all[0].WPM, all[3].WPM)
	}

	recent, err := s.ListResults(2)
	if err != nil {
		t.Fatalf("ListResults failed: %v", err)
	}
	if len(recent) != 2 || recent[1].WPM != 40 {
		t.Errorf("unexpected limited list: %+v", recent)
	}

	since, err := s.ListSince(base.Add(2 * time.Hour))
	if err != nil {
		t.Fatalf("ListSince failed: %v", err)
	}
	if len(since) != 2 || since[0].WPM != 40 {
		t.Errorf("unexpected ListSince: %+v", since)
	}
}

func TestListResultsEmpty(t *testing.T) {
	s := openTestStore(t)
	results, err := s.ListResults(10)
	if err != nil {
		t.Fatalf("ListResults failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestSummary(t *testing.T) {
	s := openTestStore(t)

	empty, err := s.Summary()
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if empty.Count != 0 || empty.BestWPM != 0 || len(empty.ByLayout) != 0 {
		t.Errorf("unexpected empty summary: %+v", empty)
	}

	base := time.Unix(1_700_000_000, 0)
	s.InsertResult(sampleResult(base, "wide", 30, 90))
	s.InsertResult(sampleResult(base.Add(time.Hour), "wide", 50, 100))
	s.InsertResult(sampleResult(base.Add(2*time.Hour), "right", 40, 95))

	sum, err := s.Summary()
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.Count != 3 {
		t.Errorf("Count = %d", sum.Count)
	}
	if sum.BestWPM != 50 {
		t.Errorf("BestWPM = %v", sum.BestWPM)
	}
	if math.Abs(sum.AverageWPM-40) > 1e-9 {
		t.Errorf("AverageWPM = %v", sum.AverageWPM)
	}
	if math.Abs(sum.AverageAcc-95) > 1e-9 {
		t.Errorf("AverageAcc = %v", sum.AverageAcc)
	}
	if sum.TotalChars != 150+250+200 {
		t.Errorf("TotalChars = %d", sum.TotalChars)
	}
	if sum.ByLayout["wide"] != 2 || sum.ByLayout["right"] != 1 {
		t.Errorf("ByLayout = %v", sum.ByLayout)
	}
	if !sum.FirstResult.Equal(base) || !sum.LastResult.Equal(base.Add(2*time.Hour)) {
		t.Errorf("range = %v..%v", sum.FirstResult, sum.LastResult)
	}
}

func TestDeleteBefore(t *testing.T) {
	s := openTestStore(t)
	base := time.Unix(1_700_000_000, 0)
	for i := 0; i < 5; i++ {
		s.InsertResult(sampleResult(base.Add(time.Duration(i)*24*time.Hour), "wide", 30, 90))
	}

	n, err := s.DeleteBefore(base.Add(48 * time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore failed: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d, expected 2", n)
	}

	left, _ := s.ListResults(0)
	if len(left) != 3 {
		t.Errorf("expected 3 remaining, got %d", len(left))
	}
}

func TestNewResultFromStats(t *testing.T) {
	stats := ime.TypingStats{
		TotalChars:  100,
		MirrorChars: 40,
		Errors:      5,
		Elapsed:     30 * time.Second,
	}
	started := time.Unix(1_700_000_000, 0)
	r := NewResult(stats, "wide", SourceTry, started)

	if r.WPM != 40 {
		t.Errorf("WPM = %v, expected 40", r.WPM)
	}
	if r.Accuracy != 95 {
		t.Errorf("Accuracy = %v, expected 95", r.Accuracy)
	}
	if r.Source != SourceTry || r.Layout != "wide" || !r.StartedAt.Equal(started) {
		t.Errorf("unexpected result: %+v", r)
	}
}

func TestMigrationStatus(t *testing.T) {
	s := openTestStore(t)

	status, err := GetMigrationStatus(s.DB())
	if err != nil {
		t.Fatalf("GetMigrationStatus failed: %v", err)
	}
	if status.CurrentVersion != status.LatestVersion {
		t.Errorf("CurrentVersion = %d, LatestVersion = %d", status.CurrentVersion, status.LatestVersion)
	}
	if len(status.Pending) != 0 {
		t.Errorf("pending migrations: %+v", status.Pending)
	}
	if err := ValidateSchema(s.DB()); err != nil {
		t.Errorf("ValidateSchema failed: %v", err)
	}
}

func TestRollbackAndReapply(t *testing.T) {
	s := openTestStore(t)

	if err := RollbackMigration(s.DB()); err != nil {
		t.Fatalf("RollbackMigration failed: %v", err)
	}
	status, _ := GetMigrationStatus(s.DB())
	if status.CurrentVersion != status.LatestVersion-1 || len(status.Pending) != 1 {
		t.Errorf("unexpected status after rollback: %+v", status)
	}

	if err := MigrateDB(s.DB()); err != nil {
		t.Fatalf("MigrateDB failed: %v", err)
	}
	if _, err := s.InsertResult(sampleResult(time.Now(), "wide", 30, 90)); err != nil {
		t.Errorf("insert after reapply failed: %v", err)
	}
}

func TestExportDocument(t *testing.T) {
	s := openTestStore(t)
	loc := time.FixedZone("UTC+2", 2*60*60)
	started := time.Date(2026, 9, 30, 10, 0, 0, 0, loc)
	s.InsertResult(sampleResult(started, "wide", 30, 90))

	results, _ := s.ListResults(0)
	doc := NewExport(results, time.Date(2026, 10, 1, 12, 0, 0, 500, time.UTC))

	if doc.Schema != ExportSchema || len(doc.Results) != 1 {
		t.Fatalf("unexpected export: %+v", doc)
	}
	if doc.Results[0].ElapsedMs != 60000 {
		t.Errorf("ElapsedMs = %d", doc.Results[0].ElapsedMs)
	}
	if doc.Results[0].StartedAt.Location() != time.UTC {
		t.Error("StartedAt not in UTC")
	}

	data, err := doc.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	if decoded["exported_at"] != "2026-10-01T12:00:00Z" {
		t.Errorf("exported_at = %v", decoded["exported_at"])
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "export.json")

	if err := WriteFileAtomic(path, []byte("first")); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("second")); err != nil {
		t.Fatalf("WriteFileAtomic overwrite failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q", data)
	}

	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v", info.Mode().Perm())
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, "out", "*.tmp"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func BenchmarkInsertResult(b *testing.B) {
	s, err := Open(filepath.Join(b.TempDir(), "bench.db"))
	if err != nil {
		b.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	r := sampleResult(time.Now(), "wide", 40, 95)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.InsertResult(r)
	}
}
