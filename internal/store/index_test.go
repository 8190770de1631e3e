package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := OpenIndex(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("OpenIndex failed: %v", err)
	}
	t.Cleanup(func() { ix.Close() })
	return ix
}

func TestIndexInsertAndGet(t *testing.T) {
	ix := openTestIndex(t)

	record := testRecord()
	if err := ix.InsertRun(record); err != nil {
		t.Fatalf("InsertRun failed: %v", err)
	}

	info, err := ix.GetRun(record.RunID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if info.RunID != record.RunID {
		t.Errorf("RunID = %q, want %q", info.RunID, record.RunID)
	}
	if info.Method != "quads" || info.Function != "sphere" || info.Sampler != "classical" {
		t.Errorf("unexpected config columns: %+v", info)
	}
	if info.Status != record.Status {
		t.Errorf("Status = %q, want %q", info.Status, record.Status)
	}
	if info.TotalEvals != record.TotalEvals {
		t.Errorf("TotalEvals = %v, want %v", info.TotalEvals, record.TotalEvals)
	}
	if !info.CreatedAt.Equal(record.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", info.CreatedAt, record.CreatedAt)
	}
}

func TestIndexGetMissing(t *testing.T) {
	ix := openTestIndex(t)

	_, err := ix.GetRun("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestIndexListNewestFirst(t *testing.T) {
	ix := openTestIndex(t)

	older := testRecord()
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := testRecord()

	if err := ix.InsertRun(older); err != nil {
		t.Fatalf("InsertRun failed: %v", err)
	}
	if err := ix.InsertRun(newer); err != nil {
		t.Fatalf("InsertRun failed: %v", err)
	}

	infos, err := ix.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("listed %d runs, want 2", len(infos))
	}
	if infos[0].RunID != newer.RunID {
		t.Errorf("first listed run = %q, want newest %q", infos[0].RunID, newer.RunID)
	}
}

func TestIndexDelete(t *testing.T) {
	ix := openTestIndex(t)

	record := testRecord()
	if err := ix.InsertRun(record); err != nil {
		t.Fatalf("InsertRun failed: %v", err)
	}
	if err := ix.DeleteRun(record.RunID); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}
	if err := ix.DeleteRun(record.RunID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestIndexRejectsInvalidRecord(t *testing.T) {
	ix := openTestIndex(t)

	record := testRecord()
	record.RunID = ""
	if err := ix.InsertRun(record); err == nil {
		t.Error("expected error inserting invalid record")
	}
}
