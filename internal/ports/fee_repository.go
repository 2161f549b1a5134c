package ports

import (
	"context"

	"github.com/google/uuid"

	"mailcenter-service/internal/domain"
)

// FeeFilter narrows a fee listing.
type FeeFilter struct {
	ContactID   *uuid.UUID
	PendingOnly bool
}

// Port: boundary for fee rows and their settlement.
//
// Settle and UpdateSnapshot must be atomic conditional updates
// (UPDATE … WHERE fee_status = 'pending'): two staff racing on the same fee
// is resolved here, not in the pure billing engine.
type FeeRepository interface {
	ListFees(ctx context.Context, filter FeeFilter) ([]domain.Fee, error)
	GetFee(ctx context.Context, feeID uuid.UUID) (domain.Fee, error)
	CreateFee(ctx context.Context, fee domain.Fee) error

	// Settle persists a paid or waived fee. Returns InvalidStateError when
	// the stored row is no longer pending.
	Settle(ctx context.Context, fee domain.Fee) error

	// UpdateSnapshot persists a recalculated days-charged/amount snapshot
	// for a still-pending fee.
	UpdateSnapshot(ctx context.Context, fee domain.Fee) error
}
