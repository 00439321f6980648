// internal/api/job/store.go
package job

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/newthinker/vega/internal/core"
)

// Status represents job status.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status is a final one.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job represents an async job.
type Job struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Status    Status      `json:"status"`
	Result    any         `json:"result,omitempty"`
	Error     *core.Error `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Store manages async jobs in memory. Jobs are evicted oldest-first
// once maxSize is reached, and swept once their ttl has elapsed since
// the last update, so finished jobs stay queryable for a full ttl
// after completion. A ttl of zero disables time-based eviction.
type Store struct {
	jobs    map[string]*Job
	order   []string // insertion order for eviction
	maxSize int
	ttl     time.Duration
	mu      sync.RWMutex
}

// NewStore creates a new job store.
func NewStore(maxSize int, ttl time.Duration) *Store {
	return &Store{
		jobs:    make(map[string]*Job),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Create creates a new job and returns it.
func (s *Store) Create(jobType string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.sweepLocked(now)

	// Evict oldest if still at capacity
	if len(s.jobs) >= s.maxSize && len(s.order) > 0 {
		oldest := s.order[0]
		delete(s.jobs, oldest)
		s.order = s.order[1:]
	}

	job := &Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)

	return job
}

// Get retrieves a job by ID. Expired jobs report not found even before
// the next sweep removes them.
func (s *Store) Get(id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok || s.expired(job, time.Now()) {
		return nil, core.WrapErrorf(core.ErrNotFound, "job %s", id)
	}

	// Return a copy so callers never race the worker goroutine
	jobCopy := *job
	return &jobCopy, nil
}

// Update modifies a job using an update function.
func (s *Store) Update(id string, fn func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return core.WrapErrorf(core.ErrNotFound, "job %s", id)
	}

	fn(job)
	job.UpdatedAt = time.Now()
	return nil
}

// List returns all live jobs in insertion order.
func (s *Store) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	result := make([]Job, 0, len(s.jobs))
	for _, id := range s.order {
		job, ok := s.jobs[id]
		if !ok || s.expired(job, now) {
			continue
		}
		result = append(result, *job)
	}
	return result
}

// CountActive returns the number of jobs of the given type that have
// not reached a terminal status.
func (s *Store) CountActive(jobType string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, job := range s.jobs {
		if job.Type == jobType && !job.Status.Terminal() {
			n++
		}
	}
	return n
}

// expired reports whether the job's ttl has elapsed since its last
// update. The caller must hold at least a read lock.
func (s *Store) expired(job *Job, now time.Time) bool {
	return s.ttl > 0 && now.Sub(job.UpdatedAt) > s.ttl
}

// sweepLocked drops expired jobs. The caller must hold the write lock.
func (s *Store) sweepLocked(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	kept := s.order[:0]
	for _, id := range s.order {
		job, ok := s.jobs[id]
		if ok && s.expired(job, now) {
			delete(s.jobs, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
}
