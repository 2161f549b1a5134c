package ports

import (
	"context"

	"github.com/google/uuid"

	"mailcenter-service/internal/domain"
)

// Port: boundary for the customer directory.
type ContactRepository interface {
	ListContacts(ctx context.Context) ([]domain.Contact, error)
	GetContact(ctx context.Context, contactID uuid.UUID) (domain.Contact, error)
	CreateContact(ctx context.Context, contact domain.Contact) error
}
