package store

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/quadsopt/quads/internal/quads"
)

func testRecord() *RunRecord {
	res := &quads.Result{
		Final:      quads.NewParam([]float64{0.8, 0.2}, quads.IdentityCov(2, 1), 0.05, 0.5),
		Status:     quads.StatusConverged,
		Iterations: 3,
		TotalEvals: 42.5,
		History: quads.History{
			MinValue:   []float64{1.2, 0.6, 0.1},
			Evals:      []float64{14, 14, 14.5},
			DistTarget: []float64{0.9, 0.4, 0.005},
		},
	}
	return NewRunRecord(RunConfig{
		Method:   "quads",
		Function: "sphere",
		Sampler:  "classical",
		Dim:      2,
		MaxIter:  100,
		NSamples: 4,
		Seed:     7,
	}, res)
}

func TestFSStoreSaveAndLoad(t *testing.T) {
	fs, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	record := testRecord()
	if err := fs.SaveRun(record); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	loaded, err := fs.LoadRun(record.RunID)
	if err != nil {
		t.Fatalf("LoadRun failed: %v", err)
	}

	if loaded.RunID != record.RunID {
		t.Errorf("RunID = %q, want %q", loaded.RunID, record.RunID)
	}
	if loaded.Status != record.Status {
		t.Errorf("Status = %q, want %q", loaded.Status, record.Status)
	}
	if loaded.Iterations != record.Iterations {
		t.Errorf("Iterations = %d, want %d", loaded.Iterations, record.Iterations)
	}
	if len(loaded.History.MinValue) != len(record.History.MinValue) {
		t.Errorf("history length = %d, want %d",
			len(loaded.History.MinValue), len(record.History.MinValue))
	}
	if loaded.Final.Mean[0] != record.Final.Mean[0] {
		t.Errorf("final mean = %v, want %v", loaded.Final.Mean, record.Final.Mean)
	}
}

func TestFSStoreLoadMissing(t *testing.T) {
	fs, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	_, err = fs.LoadRun(uuid.New().String())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFSStoreListRuns(t *testing.T) {
	fs, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	// Empty store lists cleanly.
	infos, err := fs.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("expected no runs, got %d", len(infos))
	}

	a, b := testRecord(), testRecord()
	if err := fs.SaveRun(a); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	if err := fs.SaveRun(b); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	infos, err = fs.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != 2 {
		t.Errorf("expected 2 runs, got %d", len(infos))
	}
}

func TestFSStoreDeleteRun(t *testing.T) {
	fs, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	record := testRecord()
	if err := fs.SaveRun(record); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	if err := fs.DeleteRun(record.RunID); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}
	if _, err := fs.LoadRun(record.RunID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := fs.DeleteRun(record.RunID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestRunRecordValidate(t *testing.T) {
	record := testRecord()
	if err := record.Validate(); err != nil {
		t.Errorf("valid record rejected: %v", err)
	}

	bad := *record
	bad.RunID = ""
	if err := bad.Validate(); err == nil {
		t.Error("expected error for empty run ID")
	}

	bad = *record
	bad.Status = ""
	if err := bad.Validate(); err == nil {
		t.Error("expected error for empty status")
	}

	bad = *record
	bad.CreatedAt = time.Time{}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero creation time")
	}
}
