package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/dgallion1/actgen/internal/templatestore"
	"github.com/google/go-cmp/cmp"
)

func newTestWorker(store Store) *Worker {
	w := NewWorker(newTestEngine(false), store, nil, 2)
	w.backoff = noBackoff
	return w
}

func TestWorker_NoStoreCompletes(t *testing.T) {
	job := NewJob("home.html", "", samplePage(`<section>Hero</section>`))
	newTestWorker(nil).Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected %s, got %s (errors %v)", StatusCompleted, snap.Status, snap.Progress.Errors)
	}
	if snap.Title != "Home" {
		t.Errorf("expected title Home, got %q", snap.Title)
	}
	if snap.Progress.TotalNodes != 2 {
		t.Errorf("expected 2 nodes, got %d", snap.Progress.TotalNodes)
	}
	if snap.Progress.NodesPublished != 0 {
		t.Errorf("expected nothing published, got %d", snap.Progress.NodesPublished)
	}
}

func TestWorker_PublishesTree(t *testing.T) {
	store := newFakeStore()
	job := NewJob("home.html", "", samplePage(`<section>Hero</section>`))
	newTestWorker(store).Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected %s, got %s (errors %v)", StatusCompleted, snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.NodesPublished != 2 {
		t.Errorf("expected 2 nodes published, got %d", snap.Progress.NodesPublished)
	}

	v, ok := store.get(templatestore.NodeKey(job.PageID, []string{"main"}))
	if !ok {
		t.Fatalf("expected placeholder node written, got keys %v", store.keys())
	}
	ph := v.(NodeRecord)
	if diff := cmp.Diff([]string{"hero"}, ph.Renderings); diff != "" {
		t.Errorf("placeholder renderings mismatch (-want +got):\n%s", diff)
	}

	v, ok = store.get(templatestore.NodeKey(job.PageID, []string{"main", "hero"}))
	if !ok {
		t.Fatalf("expected rendering node written, got keys %v", store.keys())
	}
	if got := v.(NodeRecord).Template; got != `<section>Hero</section>` {
		t.Errorf("expected rendering template, got %q", got)
	}

	v, ok = store.get(templatestore.RootKey(job.PageID))
	if !ok {
		t.Fatal("expected root written")
	}
	root := v.(RootRecord)
	if diff := cmp.Diff([]string{"main"}, root.Children); diff != "" {
		t.Errorf("root children mismatch (-want +got):\n%s", diff)
	}

	v, ok = store.get(templatestore.MetaKey(job.PageID))
	if !ok {
		t.Fatal("expected meta written")
	}
	meta := v.(PageMeta)
	if meta.Title != "Home" || meta.Nodes != 2 || meta.Filename != "home.html" {
		t.Errorf("unexpected meta %+v", meta)
	}
}

func TestWorker_SkipsPublishedPage(t *testing.T) {
	data := samplePage(`<section>Hero</section>`)
	store := newFakeStore()
	store.existing[templatestore.MetaKey(PageID(data))] = true

	job := NewJob("home.html", "", data)
	newTestWorker(store).Process(context.Background(), job)
	if snap := job.Snapshot(); snap.Status != StatusDupSkipped {
		t.Fatalf("expected %s, got %s", StatusDupSkipped, snap.Status)
	}
	if keys := store.keys(); len(keys) != 0 {
		t.Errorf("expected no writes, got %v", keys)
	}

	forced := NewJob("home.html", "", data)
	forced.Force = true
	newTestWorker(store).Process(context.Background(), forced)
	if snap := forced.Snapshot(); snap.Status != StatusCompleted {
		t.Fatalf("expected forced job %s, got %s", StatusCompleted, snap.Status)
	}
}

func TestWorker_RetriesTransientErrors(t *testing.T) {
	store := newFakeStore()
	store.fail = func(key string, call int) error {
		if call == 1 {
			return &templatestore.RetryableError{StatusCode: 503, Message: "busy"}
		}
		return nil
	}

	job := NewJob("home.html", "", samplePage(`<section>Hero</section>`))
	newTestWorker(store).Process(context.Background(), job)

	if snap := job.Snapshot(); snap.Status != StatusCompleted {
		t.Fatalf("expected %s, got %s (errors %v)", StatusCompleted, snap.Status, snap.Progress.Errors)
	}
	for _, key := range store.keys() {
		if n := store.calls[key]; n != 2 {
			t.Errorf("expected 2 attempts for %s, got %d", key, n)
		}
	}
}

func TestWorker_PartialWhenNodeWriteFails(t *testing.T) {
	store := newFakeStore()
	store.fail = func(key string, call int) error {
		if strings.HasSuffix(key, "/hero") {
			return errPermanent
		}
		return nil
	}

	job := NewJob("home.html", "", samplePage(`<section>Hero</section>`))
	newTestWorker(store).Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusPartial {
		t.Fatalf("expected %s, got %s", StatusPartial, snap.Status)
	}
	if snap.Progress.NodesPublished != 1 {
		t.Errorf("expected 1 node published, got %d", snap.Progress.NodesPublished)
	}
	if len(snap.Progress.Errors) != 1 {
		t.Errorf("expected 1 error, got %v", snap.Progress.Errors)
	}
	if store.calls[templatestore.NodeKey(job.PageID, []string{"main", "hero"})] != 1 {
		t.Error("expected permanent failure not to be retried")
	}
	if hasSuffixKey(store.keys(), "/meta") {
		t.Error("expected meta to be withheld for a partial publish")
	}
}

func TestWorker_DuplicateRenderingKeyIsReported(t *testing.T) {
	second := `<code chrometype="rendering" kind="close"></code>` +
		`<code chrometype="rendering" kind="open" id="hero"></code>` +
		`<section>Again</section>`
	store := newFakeStore()
	job := NewJob("home.html", "", samplePage(`<section>Hero</section>`+second))
	newTestWorker(store).Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusPartial {
		t.Fatalf("expected %s, got %s (errors %v)", StatusPartial, snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.TotalNodes != 3 {
		t.Errorf("expected 3 nodes, got %d", snap.Progress.TotalNodes)
	}
	if snap.Progress.NodesPublished != 2 {
		t.Errorf("expected 2 nodes published, got %d", snap.Progress.NodesPublished)
	}
	if len(snap.Progress.Errors) != 1 || !strings.Contains(snap.Progress.Errors[0], "duplicate node key") {
		t.Errorf("expected one duplicate key error, got %v", snap.Progress.Errors)
	}

	key := templatestore.NodeKey(job.PageID, []string{"main", "hero"})
	if n := store.calls[key]; n != 1 {
		t.Errorf("expected 1 write for %s, got %d", key, n)
	}
	v, _ := store.get(key)
	if got := v.(NodeRecord).Template; got != `<section>Hero</section>` {
		t.Errorf("expected the first rendering to own the key, got %q", got)
	}
	if hasSuffixKey(store.keys(), "/meta") {
		t.Error("expected meta to be withheld")
	}
}

func TestWorker_FailsOnBadInput(t *testing.T) {
	cases := []struct {
		name     string
		filename string
		selector string
		phase    string
	}{
		{"unsupported extension", "home.pdf", "", "parsing"},
		{"missing root", "home.html", "#missing", "generating"},
	}
	for _, tc := range cases {
		job := NewJob(tc.filename, tc.selector, samplePage(`<section>Hero</section>`))
		newTestWorker(newFakeStore()).Process(context.Background(), job)

		snap := job.Snapshot()
		if snap.Status != StatusFailed {
			t.Errorf("%s: expected %s, got %s", tc.name, StatusFailed, snap.Status)
		}
		if snap.Phase != tc.phase {
			t.Errorf("%s: expected phase %q, got %q", tc.name, tc.phase, snap.Phase)
		}
		if len(snap.Progress.Errors) == 0 {
			t.Errorf("%s: expected an error to be recorded", tc.name)
		}
	}
}
