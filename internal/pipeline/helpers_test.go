package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/actgen/internal/components"
	"github.com/dgallion1/actgen/internal/templatestore"
)

func samplePage(heroContent string) []byte {
	return []byte(`<html><head><title>Home</title></head><body><main><div class="ph">` +
		`<code chrometype="placeholder" kind="open" id="main"></code>` +
		`<code chrometype="rendering" kind="open" id="hero"></code>` +
		heroContent +
		`<code chrometype="rendering" kind="close"></code>` +
		`<code chrometype="placeholder" kind="close"></code>` +
		`</div></main></body></html>`)
}

func newTestEngine(minify bool) *Engine {
	return NewEngine(components.Default(), EngineConfig{Minify: minify}, NewStats(time.Hour), nil)
}

// fakeStore records writes in memory.
type fakeStore struct {
	mu       sync.Mutex
	puts     map[string]any
	calls    map[string]int
	existing map[string]bool
	fail     func(key string, call int) error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		puts:     make(map[string]any),
		calls:    make(map[string]int),
		existing: make(map[string]bool),
	}
}

func (f *fakeStore) PutNode(ctx context.Context, key string, req templatestore.NodeRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[key]++
	if f.fail != nil {
		if err := f.fail(key, f.calls[key]); err != nil {
			return err
		}
	}
	f.puts[key] = req.Value
	return nil
}

func (f *fakeStore) GetNode(ctx context.Context, key string) (*templatestore.NodeResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existing[key] {
		return &templatestore.NodeResponse{Key: key}, nil
	}
	return nil, nil
}

func (f *fakeStore) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for k := range f.puts {
		out = append(out, k)
	}
	return out
}

func (f *fakeStore) get(key string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.puts[key]
	return v, ok
}

func noBackoff(int) time.Duration { return 0 }

func waitForStatus(t *testing.T, job *Job, done ...JobStatus) JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap := job.Snapshot()
		for _, s := range done {
			if snap.Status == s {
				return snap
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not reach %v, last status %s", job.ID, done, job.Snapshot().Status)
	return JobSnapshot{}
}

func hasSuffixKey(keys []string, suffix string) bool {
	for _, k := range keys {
		if strings.HasSuffix(k, suffix) {
			return true
		}
	}
	return false
}

var errPermanent = fmt.Errorf("put node: status 400: bad request")
