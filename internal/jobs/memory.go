package jobs

import (
	"context"
	"sync"

	"panelnorm/internal/errors"
	"panelnorm/models"
	"panelnorm/ports"
)

// MemoryStore keeps job records in process memory. It is the default
// repository when no database URL is configured; records vanish on
// restart, which is acceptable because output files carry the same TTL.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

// NewMemoryStore creates an empty in-memory job repository.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*models.Job)}
}

var _ ports.JobRepository = (*MemoryStore)(nil)

// Save stores or replaces a job record.
func (s *MemoryStore) Save(_ context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

// Get returns the job with the given ID.
func (s *MemoryStore) Get(_ context.Context, id string) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, errors.NotFound("job " + id)
	}
	copied := *job
	return &copied, nil
}

// Delete removes the job record; deleting an unknown ID is not an error.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	return nil
}
