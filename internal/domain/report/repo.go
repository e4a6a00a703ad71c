package report

import (
	"context"

	"github.com/google/uuid"

	"github.com/labms/report-service/pkg/pagination"
)

// Repository is the persistence contract for reports. GetByID returns the
// record regardless of its deleted flag; callers check the flag themselves.
// Implementations return ErrNotFound for absent records.
type Repository interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	Update(ctx context.Context, r *Report) error
	Search(ctx context.Context, f Filter, pg pagination.Params) ([]*Report, int, error)
}
