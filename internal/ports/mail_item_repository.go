package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"mailcenter-service/internal/domain"
)

// MailItemFilter narrows a listing. From/To are instants built from
// inclusive calendar-day boundaries (StartOfDay/EndOfDay).
type MailItemFilter struct {
	ContactID *uuid.UUID
	From      *time.Time
	To        *time.Time
}

// Port: boundary for reading and recording mail-item intake rows.
type MailItemRepository interface {
	ListMailItems(ctx context.Context, filter MailItemFilter) ([]domain.MailItem, error)
	CreateMailItem(ctx context.Context, item domain.MailItem) error

	// IntakeMailItem persists the item and, when non-nil, its opened fee in
	// one transaction. Either both rows commit or neither does.
	IntakeMailItem(ctx context.Context, item domain.MailItem, fee *domain.Fee) error
}
