package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ItemType classifies a piece of intake mail.
type ItemType string

const (
	ItemTypeLetter    ItemType = "Letter"
	ItemTypePackage   ItemType = "Package"
	ItemTypeMagazine  ItemType = "Magazine"
	ItemTypeOversized ItemType = "Oversized"
)

// Status is the lifecycle state of a mail item, mutated by the
// pickup/notify workflow.
type Status string

const (
	StatusReceived       Status = "Received"
	StatusNotified       Status = "Notified"
	StatusPickedUp       Status = "Picked Up"
	StatusForwarded      Status = "Forwarded"
	StatusScannedAndSent Status = "Scanned & Sent"
	StatusAbandoned      Status = "Abandoned"
)

// MailItem is a single intake record. Immutable once created except for
// Status. Only Package items are billable.
type MailItem struct {
	MailItemID  uuid.UUID
	ContactID   uuid.UUID
	Type        ItemType
	Status      Status
	ReceivedAt  time.Time
	Quantity    int
	Description string
}

// Validate checks intake preconditions.
func (m MailItem) Validate() error {
	if m.ContactID == uuid.Nil {
		return &ValidationError{Field: "contact_id", Reason: "is required"}
	}
	if strings.TrimSpace(string(m.Type)) == "" {
		return &ValidationError{Field: "item_type", Reason: "is required"}
	}
	if m.Quantity < 0 {
		return &ValidationError{Field: "quantity", Reason: "must not be negative"}
	}
	if m.ReceivedAt.IsZero() {
		return &ValidationError{Field: "received_at", Reason: "is required"}
	}
	return nil
}

// BillingQuantity is the effective quantity: an absent quantity counts as
// one piece, never zero.
func (m MailItem) BillingQuantity() int {
	if m.Quantity < 1 {
		return 1
	}
	return m.Quantity
}

// Billable reports whether intake of this item opens a storage fee.
func (m MailItem) Billable() bool {
	return m.Type == ItemTypePackage
}

func (m MailItem) HasDescription() bool {
	return strings.TrimSpace(m.Description) != ""
}
