package domain

import (
	"time"

	"github.com/google/uuid"
)

// FeeStatus is the settlement state of a storage fee.
// pending -> paid and pending -> waived are the only transitions; both are
// terminal.
type FeeStatus string

const (
	FeeStatusPending FeeStatus = "pending"
	FeeStatusPaid    FeeStatus = "paid"
	FeeStatusWaived  FeeStatus = "waived"
)

// Fee is the storage charge attached to one billable package. Amounts are
// integer cents. DaysCharged and AmountCents are a snapshot as of the last
// recalculation, not live-computed on read.
//
// ContactID and ReceivedAt are carried from the associated mail item so the
// billing engine and reports never re-join on the hot path.
type Fee struct {
	FeeID      uuid.UUID
	MailItemID uuid.UUID
	ContactID  uuid.UUID
	ReceivedAt time.Time

	AmountCents int64
	DaysCharged int
	Status      FeeStatus

	PaidDate       *time.Time
	PaymentMethod  string
	CollectedCents *int64
	CollectedBy    string

	WaivedDate  *time.Time
	WaiveReason string
}

func (f Fee) IsPending() bool { return f.Status == FeeStatusPending }

// SettledCents is the amount that actually changed hands. For paid fees the
// collected amount is authoritative (it may carry a manual discount); waived
// and pending fees settle nothing.
func (f Fee) SettledCents() int64 {
	if f.Status != FeeStatusPaid {
		return 0
	}
	if f.CollectedCents != nil {
		return *f.CollectedCents
	}
	return f.AmountCents
}
