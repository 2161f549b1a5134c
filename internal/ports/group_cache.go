package ports

import (
	"context"

	"github.com/google/uuid"

	"mailcenter-service/internal/domain"
)

// Port: optional cache of per-contact grouped summaries. A miss is not an
// error; callers recompute and Set.
type GroupCache interface {
	GetGroups(ctx context.Context, contactID uuid.UUID) ([]domain.SimpleGroup, bool, error)
	SetGroups(ctx context.Context, contactID uuid.UUID, groups []domain.SimpleGroup) error
	InvalidateContact(ctx context.Context, contactID uuid.UUID) error
}
