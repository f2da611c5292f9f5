package ports

import (
	"context"

	"panelnorm/models"
)

// JobRepository persists transformation job bookkeeping. Implementations
// are the in-memory store (default) and the Postgres adapter (when a
// database URL is configured).
type JobRepository interface {
	Save(ctx context.Context, job *models.Job) error
	Get(ctx context.Context, id string) (*models.Job, error)
	Delete(ctx context.Context, id string) error
}
