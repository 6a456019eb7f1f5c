package batch

import (
	"os"
	"path/filepath"
	"testing"

	"omdl/internal/model"
	"omdl/internal/runstore"
)

func TestHistoryNewestFirst(t *testing.T) {
	logDir := t.TempDir()
	reports := []model.BatchResult{
		{BatchID: "b-old", StartedAt: "2026-01-01T10:00:00Z", Total: 1, Succeeded: 1},
		{BatchID: "a-new", StartedAt: "2026-03-01T10:00:00Z", Total: 2, Failed: 1, Skipped: 1},
		{BatchID: "c-mid", StartedAt: "2026-02-01T10:00:00Z", Total: 1, Skipped: 1},
	}
	for _, r := range reports {
		if err := runstore.WriteJSON(filepath.Join(logDir, r.BatchID, reportFile), r); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(logDir, "interrupted"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := History(logDir, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(got))
	}
	if got[0].BatchID != "a-new" || got[1].BatchID != "c-mid" || got[2].BatchID != "b-old" {
		t.Fatalf("unexpected order: %s %s %s", got[0].BatchID, got[1].BatchID, got[2].BatchID)
	}
	if got[0].LogDir != filepath.Join(logDir, "a-new") {
		t.Fatalf("expected log dir to be filled in, got %q", got[0].LogDir)
	}

	limited, err := History(logDir, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].BatchID != "a-new" {
		t.Fatalf("unexpected limited history: %+v", limited)
	}
}

func TestHistoryMissingLogDirIsEmpty(t *testing.T) {
	got, err := History(filepath.Join(t.TempDir(), "none"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no history, got %d", len(got))
	}
}
