package store

import (
	"errors"
	"testing"
	"time"
)

func TestTraceWriteAndReadBack(t *testing.T) {
	dir := t.TempDir()
	runID := "test-run"

	tw, err := NewTraceWriter(dir, runID)
	if err != nil {
		t.Fatalf("NewTraceWriter failed: %v", err)
	}

	entries := []TraceEntry{
		{Iteration: 0, MinValue: 1.5, Evals: 14, DistTarget: 0.9, StepSize: 0.5, Threshold: 2.0, Timestamp: time.Now().UTC()},
		{Iteration: 1, MinValue: 0.7, Evals: 16, DistTarget: 0.4, StepSize: 0.4, Threshold: 1.1, Timestamp: time.Now().UTC()},
		{Iteration: 2, MinValue: 0.1, Evals: 12, DistTarget: 0.01, StepSize: 0.2, Threshold: 0.4, Timestamp: time.Now().UTC()},
	}
	for _, e := range entries {
		if err := tw.Write(e); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	tr, err := NewTraceReader(dir, runID)
	if err != nil {
		t.Fatalf("NewTraceReader failed: %v", err)
	}
	defer tr.Close()

	got, err := tr.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("read %d entries, want %d", len(got), len(entries))
	}
	for i, e := range entries {
		if got[i].Iteration != e.Iteration {
			t.Errorf("entry %d: iteration = %d, want %d", i, got[i].Iteration, e.Iteration)
		}
		if got[i].MinValue != e.MinValue {
			t.Errorf("entry %d: minValue = %v, want %v", i, got[i].MinValue, e.MinValue)
		}
		if got[i].StepSize != e.StepSize {
			t.Errorf("entry %d: stepSize = %v, want %v", i, got[i].StepSize, e.StepSize)
		}
	}
}

func TestTraceFlushMakesEntriesVisible(t *testing.T) {
	dir := t.TempDir()
	runID := "flush-run"

	tw, err := NewTraceWriter(dir, runID)
	if err != nil {
		t.Fatalf("NewTraceWriter failed: %v", err)
	}
	defer tw.Close()

	if err := tw.Write(TraceEntry{Iteration: 0, MinValue: 1}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := tw.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	// Entries are readable while the writer is still open.
	tr, err := NewTraceReader(dir, runID)
	if err != nil {
		t.Fatalf("NewTraceReader failed: %v", err)
	}
	defer tr.Close()

	got, err := tr.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("read %d entries, want 1", len(got))
	}
}

func TestTraceReaderMissing(t *testing.T) {
	_, err := NewTraceReader(t.TempDir(), "no-such-run")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
