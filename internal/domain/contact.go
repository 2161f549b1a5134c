package domain

import "github.com/google/uuid"

// Contact is a mailbox customer in the directory.
type Contact struct {
	ContactID uuid.UUID
	Name      string
	Email     string
	Phone     string
	MailboxNo string
}
