package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/actgen/internal/act"
)

// JobStatus represents the state of a generation job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusGenerating JobStatus = "generating"
	StatusPublishing JobStatus = "publishing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// Job tracks the state of a single page generation.
type Job struct {
	mu sync.Mutex

	ID     string `json:"job_id"`
	PageID string `json:"page_id"`

	Status       JobStatus `json:"status"`
	Phase        string    `json:"phase"`
	Filename     string    `json:"filename"`
	Title        string    `json:"title"`
	RootSelector string    `json:"root_selector,omitempty"`
	Force        bool      `json:"force,omitempty"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	issues   []act.Issue
	errors   []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalNodes     int      `json:"total_nodes"`
	NodesPublished int      `json:"nodes_published"`
	Issues         int      `json:"issues"`
	Errors         []string `json:"errors"`
}

// NewJob creates a queued job for the given page bytes.
func NewJob(filename, selector string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:           generateULID(),
		PageID:       PageID(data),
		Status:       StatusQueued,
		Phase:        "queued",
		Filename:     filename,
		RootSelector: selector,
		CreatedAt:    now,
		UpdatedAt:    now,
		fileData:     data,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetGenerated records the tree size, the extraction issues and the page
// title once generation finishes.
func (j *Job) SetGenerated(title string, nodes int, issues []act.Issue) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Title == "" {
		j.Title = title
	}
	j.Progress.TotalNodes = nodes
	j.Progress.Issues = len(issues)
	j.issues = issues
	j.UpdatedAt = time.Now()
}

// IncrPublished atomically increments the published node count.
func (j *Job) IncrPublished() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.NodesPublished++
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw page bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw page bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string      `json:"job_id"`
	PageID   string      `json:"page_id"`
	Status   JobStatus   `json:"status"`
	Phase    string      `json:"phase"`
	Filename string      `json:"filename"`
	Title    string      `json:"title"`
	Progress Progress    `json:"progress"`
	Issues   []act.Issue `json:"issues"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	issues := append([]act.Issue{}, j.issues...)
	return JobSnapshot{
		ID:       j.ID,
		PageID:   j.PageID,
		Status:   j.Status,
		Phase:    j.Phase,
		Filename: j.Filename,
		Title:    j.Title,
		Progress: Progress{
			TotalNodes:     j.Progress.TotalNodes,
			NodesPublished: j.Progress.NodesPublished,
			Issues:         j.Progress.Issues,
			Errors:         errs,
		},
		Issues: issues,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
