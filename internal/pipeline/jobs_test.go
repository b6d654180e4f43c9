package pipeline

import (
	"testing"
	"time"

	"github.com/dgallion1/actgen/internal/act"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_DifferentInputs(t *testing.T) {
	h1 := ContentHashHex([]byte("aaa"))
	h2 := ContentHashHex([]byte("bbb"))
	if h1 == h2 {
		t.Error("expected different hashes for different inputs")
	}
}

func TestContentHashHex_EmptyInput(t *testing.T) {
	h := ContentHashHex([]byte{})
	// SHA-256 of empty input is well-known.
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if h != want {
		t.Errorf("expected hash %q, got %q", want, h)
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusParsing, "parsing page"},
		{StatusGenerating, "building tree"},
		{StatusPublishing, "publishing templates"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJob_SetStatusFailed(t *testing.T) {
	job := &Job{
		ID:        "test-fail",
		Status:    StatusGenerating,
		UpdatedAt: time.Now(),
	}
	job.SetStatus(StatusFailed, "unbalanced markers")
	if job.Status != StatusFailed {
		t.Errorf("expected status %q, got %q", StatusFailed, job.Status)
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("publish pages/p/nodes/a failed")
	job.AddError("publish pages/p/nodes/b failed")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "publish pages/p/nodes/a failed" {
		t.Errorf("expected first error %q, got %q", "publish pages/p/nodes/a failed", snap.Progress.Errors[0])
	}
}

func TestJob_IncrPublished(t *testing.T) {
	job := &Job{ID: "incr-test", UpdatedAt: time.Now()}
	job.IncrPublished()
	job.IncrPublished()
	job.IncrPublished()

	snap := job.Snapshot()
	if snap.Progress.NodesPublished != 3 {
		t.Errorf("expected 3 nodes published, got %d", snap.Progress.NodesPublished)
	}
}

func TestJob_SetGenerated(t *testing.T) {
	job := &Job{ID: "gen-test", UpdatedAt: time.Now()}
	issues := []act.Issue{{NodeID: "r1", Kind: act.KindRendering, Code: act.IssueMissingContent, Severity: act.SeverityWarn}}
	job.SetGenerated("Home", 4, issues)

	snap := job.Snapshot()
	if snap.Title != "Home" {
		t.Errorf("expected title %q, got %q", "Home", snap.Title)
	}
	if snap.Progress.TotalNodes != 4 {
		t.Errorf("expected 4 nodes, got %d", snap.Progress.TotalNodes)
	}
	if snap.Progress.Issues != 1 || len(snap.Issues) != 1 {
		t.Fatalf("expected 1 issue, got %d/%d", snap.Progress.Issues, len(snap.Issues))
	}
	if snap.Issues[0].NodeID != "r1" {
		t.Errorf("expected issue for r1, got %q", snap.Issues[0].NodeID)
	}
}

func TestJob_SetGeneratedKeepsExplicitTitle(t *testing.T) {
	job := &Job{ID: "title-test", Title: "Custom"}
	job.SetGenerated("Home", 0, nil)
	if job.Snapshot().Title != "Custom" {
		t.Errorf("expected explicit title to win, got %q", job.Snapshot().Title)
	}
}

func TestNewJob(t *testing.T) {
	data := []byte("<p>x</p>")
	job := NewJob("x.html", "main", data)
	if len(job.ID) != 26 {
		t.Errorf("expected 26-char ULID, got %q", job.ID)
	}
	if job.PageID != ContentHashHex(data)[:16] {
		t.Errorf("expected page id from content hash, got %q", job.PageID)
	}
	if job.Status != StatusQueued {
		t.Errorf("expected %s, got %s", StatusQueued, job.Status)
	}
	if string(job.FileData()) != string(data) {
		t.Error("expected file data to be kept")
	}
	if other := NewJob("x.html", "main", data); other.ID == job.ID {
		t.Error("expected distinct job ids")
	}
}

func TestJob_FileData(t *testing.T) {
	job := &Job{ID: "data-test"}
	data := []byte("file content here")
	job.SetFileData(data)
	got := job.FileData()
	if string(got) != string(data) {
		t.Errorf("expected file data %q, got %q", data, got)
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil errors slice.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if len(snap.Progress.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Progress.Errors))
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", UpdatedAt: time.Now()}
	store.Put(expired)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	// Add a fresh job.
	fresh := &Job{ID: "new", UpdatedAt: time.Now()}
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}
