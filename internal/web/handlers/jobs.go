package handlers

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/constants"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/progress"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/validator"
)

// JobStatus represents the status of an async job.
type JobStatus string

// JobStatus constants define the lifecycle states of an async job.
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// BatchJobOptions represents batch job options.
type BatchJobOptions struct {
	Workers   int  `json:"workers"`    // fixed pool size, 0 keeps the adaptive pool
	BatchSize int  `json:"batch_size"` // 0 uses the configured batch size
	KeepLog   bool `json:"keep_log"`
}

// BatchJob is one asynchronous validation run.
type BatchJob struct {
	EventBroadcaster

	ID          string
	Directory   string
	Status      JobStatus
	Progress    progress.Snapshot
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
	Options     BatchJobOptions
	Summary     *validator.Summary

	ctx     context.Context // cancelled by Cancel, set before the job is visible
	outputs []string        // holding directory and result log
}

// BatchJobView is the JSON form of a job.
type BatchJobView struct {
	ID          string             `json:"id"`
	Directory   string             `json:"directory"`
	Status      JobStatus          `json:"status"`
	Progress    progress.Snapshot  `json:"progress"`
	Error       string             `json:"error,omitempty"`
	StartedAt   time.Time          `json:"started_at"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
	Options     BatchJobOptions    `json:"options"`
	Summary     *validator.Summary `json:"summary,omitempty"`
}

// View copies the job state under its lock.
func (j *BatchJob) View() BatchJobView {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return BatchJobView{
		ID:          j.ID,
		Directory:   j.Directory,
		Status:      j.Status,
		Progress:    j.Progress,
		Error:       j.Error,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		Options:     j.Options,
		Summary:     j.Summary,
	}
}

// GetStatus returns the current job status (implements SSEJob).
func (j *BatchJob) GetStatus() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// Cancel cancels the batch job. The run stops at the next batch boundary.
func (j *BatchJob) Cancel() {
	j.EventBroadcaster.Cancel()
	j.mu.Lock()
	if !isJobTerminal(j.Status) {
		j.Status = JobStatusCancelled
	}
	j.mu.Unlock()
}

func (j *BatchJob) setRunning() {
	j.mu.Lock()
	if j.Status == JobStatusPending {
		j.Status = JobStatusRunning
	}
	j.mu.Unlock()
}

func (j *BatchJob) setProgress(p progress.Snapshot) {
	j.mu.Lock()
	j.Progress = p
	j.mu.Unlock()
}

// finish records the terminal state. A job cancelled by the user stays
// cancelled even when the run reports success for its last batch.
func (j *BatchJob) finish(status JobStatus, summary *validator.Summary, message string) {
	now := time.Now()
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status != JobStatusCancelled {
		j.Status = status
	}
	j.Summary = summary
	j.Error = message
	j.CompletedAt = &now
}

// JobEvent represents an event from a job.
type JobEvent struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// EventBroadcaster provides listener management and event broadcasting for async jobs.
// Embed this in job structs to get AddListener, RemoveListener, and SendEvent methods.
type EventBroadcaster struct {
	cancel    context.CancelFunc
	listeners []chan JobEvent
	mu        sync.RWMutex
}

// AddListener adds an event listener.
func (b *EventBroadcaster) AddListener() chan JobEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan JobEvent, constants.EventChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener removes an event listener.
func (b *EventBroadcaster) RemoveListener(ch chan JobEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// SendEvent sends an event to all listeners.
func (b *EventBroadcaster) SendEvent(event JobEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			// Listener buffer full, skip.
		}
	}
}

// Cancel cancels the job via context and sends a cancelled event.
func (b *EventBroadcaster) Cancel() {
	b.mu.RLock()
	cancel := b.cancel
	b.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
	b.SendEvent(JobEvent{Type: "cancelled", Message: "Job cancelled by user"})
}

// release frees the job context without reporting a cancellation.
func (b *EventBroadcaster) release() {
	b.mu.RLock()
	cancel := b.cancel
	b.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
}

func (b *EventBroadcaster) setCancel(cancel context.CancelFunc) {
	b.mu.Lock()
	b.cancel = cancel
	b.mu.Unlock()
}

// SSEJob is the interface required by streamSSEEvents to stream job events via SSE.
type SSEJob interface {
	AddListener() chan JobEvent
	RemoveListener(ch chan JobEvent)
	GetStatus() JobStatus
}

// JobManager manages async jobs. Running jobs never expire; finished jobs
// stay queryable for the retention period.
type JobManager struct {
	jobs     *ttlcache.Cache[string, *BatchJob]
	createMu sync.Mutex
}

// ErrJobActive is returned when a directory already has an unfinished job.
var ErrJobActive = errors.New("a batch is already running for this directory")

// ErrOutputInUse is returned when an unfinished job writes to one of the
// output locations of a new job.
var ErrOutputInUse = errors.New("a running batch uses the same holding directory or result log")

// NewJobManager creates a new job manager. A non-positive retention uses
// the default.
func NewJobManager(retention time.Duration) *JobManager {
	if retention <= 0 {
		retention = constants.JobRetention
	}
	cache := ttlcache.New(
		ttlcache.WithTTL[string, *BatchJob](retention),
		ttlcache.WithDisableTouchOnHit[string, *BatchJob](),
	)
	go cache.Start()
	return &JobManager{jobs: cache}
}

// CreateJob creates a new pending batch job with its cancellable context.
// outputs are the resolved holding directory and result log. A job whose
// directory or outputs overlap an unfinished job is refused.
func (m *JobManager) CreateJob(dir string, outputs []string, options BatchJobOptions) (*BatchJob, error) {
	m.createMu.Lock()
	defer m.createMu.Unlock()
	if m.ActiveFor(dir) != nil {
		return nil, ErrJobActive
	}

	locations := make([]string, len(outputs))
	for i, o := range outputs {
		locations[i] = filepath.Clean(o)
	}
	claimed := append([]string{filepath.Clean(dir)}, locations...)
	for _, job := range m.ListJobs() {
		if !isJobTerminal(job.GetStatus()) && overlaps(job.locations(), claimed) {
			return nil, ErrOutputInUse
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	job := &BatchJob{
		ID:        uuid.NewString(),
		Directory: filepath.Clean(dir),
		Status:    JobStatusPending,
		StartedAt: time.Now(),
		Options:   options,
		ctx:       ctx,
		outputs:   locations,
	}
	job.setCancel(cancel)
	m.jobs.Set(job.ID, job, ttlcache.NoTTL)
	return job, nil
}

// locations lists every path the job writes to.
func (j *BatchJob) locations() []string {
	return append([]string{j.Directory}, j.outputs...)
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// Finish starts the retention clock of a terminal job.
func (m *JobManager) Finish(job *BatchJob) {
	m.jobs.Set(job.ID, job, ttlcache.DefaultTTL)
}

// GetJob retrieves a job by ID.
func (m *JobManager) GetJob(id string) *BatchJob {
	item := m.jobs.Get(id)
	if item == nil {
		return nil
	}
	return item.Value()
}

// DeleteJob removes a job.
func (m *JobManager) DeleteJob(id string) {
	m.jobs.Delete(id)
}

// ListJobs returns all jobs, newest first.
func (m *JobManager) ListJobs() []*BatchJob {
	items := m.jobs.Items()
	jobs := make([]*BatchJob, 0, len(items))
	for _, item := range items {
		jobs = append(jobs, item.Value())
	}
	sort.Slice(jobs, func(a, b int) bool {
		return jobs[a].StartedAt.After(jobs[b].StartedAt)
	})
	return jobs
}

// ActiveFor returns the unfinished job working on dir, if any.
func (m *JobManager) ActiveFor(dir string) *BatchJob {
	dir = filepath.Clean(dir)
	for _, job := range m.ListJobs() {
		if job.Directory == dir && !isJobTerminal(job.GetStatus()) {
			return job
		}
	}
	return nil
}

// Stop ends the expiry loop.
func (m *JobManager) Stop() {
	m.jobs.Stop()
}
