package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/dgallion1/actgen/internal/act"
	"github.com/dgallion1/actgen/internal/templatestore"
	xhtml "golang.org/x/net/html"
)

// Store is the part of the template store a worker writes through.
type Store interface {
	PutNode(ctx context.Context, key string, req templatestore.NodeRequest) error
	GetNode(ctx context.Context, key string) (*templatestore.NodeResponse, error)
}

// NodeRecord is the stored form of one tree node. Nested nodes are
// referenced by id; each has its own key under the parent's path.
type NodeRecord struct {
	ID         string   `json:"id"`
	Kind       act.Kind `json:"kind"`
	FieldType  string   `json:"field_type,omitempty"`
	IsFragment bool     `json:"is_fragment"`
	Template   string   `json:"template"`
	Renderings []string `json:"renderings,omitempty"`
	Children   []string `json:"children,omitempty"`
}

// RootRecord is the stored form of the tree root.
type RootRecord struct {
	Template   string   `json:"template"`
	Renderings []string `json:"renderings"`
	Children   []string `json:"children,omitempty"`
}

// PageMeta is written last; its presence marks a page as fully published.
type PageMeta struct {
	Title        string      `json:"title"`
	Filename     string      `json:"filename"`
	RootSelector string      `json:"root_selector,omitempty"`
	Nodes        int         `json:"nodes"`
	Issues       []act.Issue `json:"issues,omitempty"`
	PublishedAt  string      `json:"published_at"`
}

const storeSource = "actgen"

// Worker processes a single generation job.
type Worker struct {
	engine *Engine
	store  Store
	log    *slog.Logger

	maxConcurrentPublish int
	backoff              func(int) time.Duration
}

// NewWorker creates a worker. A nil store disables publishing.
func NewWorker(engine *Engine, store Store, log *slog.Logger, maxPublish int) *Worker {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if maxPublish <= 0 {
		maxPublish = 1
	}
	return &Worker{
		engine:               engine,
		store:                store,
		log:                  log,
		maxConcurrentPublish: maxPublish,
		backoff:              Backoff,
	}
}

// Process runs parse, generate and publish for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "page_id", job.PageID)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	page, err := w.engine.Load(job.FileData(), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	// Phase 2: Generate
	job.SetStatus(StatusGenerating, "generating")
	tree, err := w.engine.Generate(page, job.RootSelector)
	if err != nil {
		log.Error("generation failed", "error", err)
		job.AddError(fmt.Sprintf("generate: %s", err))
		job.SetStatus(StatusFailed, "generating")
		return
	}
	job.SetGenerated(page.Title, tree.Len(), tree.Issues)

	if w.store == nil {
		job.SetStatus(StatusCompleted, "done")
		return
	}

	// Phase 2.5: Dedup check
	if !job.Force {
		existing, err := w.store.GetNode(ctx, templatestore.MetaKey(job.PageID))
		if err != nil {
			log.Warn("dedup check failed, proceeding", "error", err)
		} else if existing != nil {
			log.Info("page already published, skipping")
			job.SetStatus(StatusDupSkipped, "dedup")
			return
		}
	}

	// Phase 3: Publish
	job.SetStatus(StatusPublishing, "publishing")
	published, failed := w.publishNodes(ctx, log, job, tree)
	log.Info("nodes published", "published", published, "failed", failed)

	if err := w.put(ctx, templatestore.RootKey(job.PageID), rootRecord(tree)); err != nil {
		log.Error("root write failed", "error", err)
		job.AddError(fmt.Sprintf("root: %s", err))
		job.SetStatus(StatusFailed, "publishing")
		return
	}

	if failed > 0 {
		// Meta stays unwritten so the page is republished next time.
		if published > 0 {
			job.SetStatus(StatusPartial, "done")
		} else {
			job.SetStatus(StatusFailed, "publishing")
		}
		return
	}

	snap := job.Snapshot()
	meta := PageMeta{
		Title:        snap.Title,
		Filename:     job.Filename,
		RootSelector: job.RootSelector,
		Nodes:        tree.Len(),
		Issues:       tree.Issues,
		PublishedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := w.put(ctx, templatestore.MetaKey(job.PageID), meta); err != nil {
		log.Error("meta write failed", "error", err)
		job.AddError(fmt.Sprintf("meta: %s", err))
		job.SetStatus(StatusPartial, "done")
		return
	}
	job.SetStatus(StatusCompleted, "done")
}

type publishResult struct {
	key string
	err error
}

// publishNodes writes every node with bounded concurrency.
func (w *Worker) publishNodes(ctx context.Context, log *slog.Logger, job *Job, tree *Tree) (published, failed int) {
	type entry struct {
		key    string
		record NodeRecord
	}
	var entries []entry
	seen := make(map[string]bool)
	tree.Walk(func(path []string, n *act.Node[*xhtml.Node]) {
		key := templatestore.NodeKey(job.PageID, path)
		if seen[key] {
			// Placeholders may hold renderings sharing an id; only the first
			// one owns the key.
			log.Error("duplicate node key", "key", key)
			job.AddError(fmt.Sprintf("publish %s: duplicate node key", key))
			failed++
			return
		}
		seen[key] = true
		entries = append(entries, entry{key: key, record: nodeRecord(n)})
	})

	results := make(chan publishResult, len(entries))
	sem := make(chan struct{}, w.maxConcurrentPublish)
	for _, e := range entries {
		sem <- struct{}{}
		go func(e entry) {
			defer func() { <-sem }()
			results <- publishResult{key: e.key, err: w.put(ctx, e.key, e.record)}
		}(e)
	}

	for range entries {
		r := <-results
		if r.err != nil {
			log.Error("node write failed", "key", r.key, "error", r.err)
			job.AddError(fmt.Sprintf("publish %s: %s", r.key, r.err))
			failed++
			continue
		}
		job.IncrPublished()
		published++
	}
	return published, failed
}

func (w *Worker) put(ctx context.Context, key string, value any) error {
	return retry(ctx, w.backoff, func() error {
		err := w.store.PutNode(ctx, key, templatestore.NodeRequest{Value: value, Source: storeSource})
		if err != nil && IsRetryable(err) {
			w.log.Warn("retryable store error", "key", key, "error", err)
		}
		return err
	})
}

func nodeRecord(n *act.Node[*xhtml.Node]) NodeRecord {
	rec := NodeRecord{
		ID:         n.ID,
		Kind:       n.Kind,
		FieldType:  n.FieldType,
		IsFragment: n.IsFragment,
		Template:   n.Template,
		Children:   slices.Sorted(maps.Keys(n.Children)),
	}
	for _, r := range n.Renderings {
		rec.Renderings = append(rec.Renderings, r.ID)
	}
	return rec
}

func rootRecord(tree *Tree) RootRecord {
	rec := RootRecord{
		Template:   tree.Template,
		Renderings: []string{},
		Children:   slices.Sorted(maps.Keys(tree.Children)),
	}
	for _, r := range tree.Renderings {
		rec.Renderings = append(rec.Renderings, r.ID)
	}
	return rec
}
