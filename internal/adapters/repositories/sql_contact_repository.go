package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"mailcenter-service/internal/domain"
)

// Postgres-backed implementation of the ContactRepository port.
type SQLContactRepository struct{ DB *sql.DB }

func NewSQLContactRepository(db *sql.DB) *SQLContactRepository {
	return &SQLContactRepository{DB: db}
}

func (s *SQLContactRepository) ListContacts(ctx context.Context) ([]domain.Contact, error) {
	if s.DB == nil {
		return nil, errors.New("sql contact repository: DB is nil")
	}

	query := `
	SELECT
		contact_id,
		name,
		email,
		phone,
		mailbox_no
	FROM contacts
	ORDER BY name;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list contacts: query contacts table: %w", err)
	}
	defer rows.Close()

	contacts := make([]domain.Contact, 0, 64)
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("list contacts: %w", err)
		}
		contacts = append(contacts, contact)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list contacts: row iteration: %w", err)
	}

	return contacts, nil
}

func (s *SQLContactRepository) GetContact(ctx context.Context, contactID uuid.UUID) (domain.Contact, error) {
	if s.DB == nil {
		return domain.Contact{}, errors.New("sql contact repository: DB is nil")
	}

	query := `
	SELECT
		contact_id,
		name,
		email,
		phone,
		mailbox_no
	FROM contacts
	WHERE contact_id = $1;
	`
	rows, err := s.DB.QueryContext(ctx, query, contactID.String())
	if err != nil {
		return domain.Contact{}, fmt.Errorf("get contact: query contact_id=%s: %w", contactID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.Contact{}, fmt.Errorf("get contact: row iteration: %w", err)
		}
		return domain.Contact{}, domain.ErrNotFound
	}
	contact, err := scanContact(rows)
	if err != nil {
		return domain.Contact{}, fmt.Errorf("get contact: %w", err)
	}
	return contact, nil
}

func (s *SQLContactRepository) CreateContact(ctx context.Context, contact domain.Contact) error {
	if s.DB == nil {
		return errors.New("sql contact repository: DB is nil")
	}

	query := `
	INSERT INTO contacts (
		contact_id,
		name,
		email,
		phone,
		mailbox_no
	)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (contact_id) DO UPDATE SET
		name = EXCLUDED.name,
		email = EXCLUDED.email,
		phone = EXCLUDED.phone,
		mailbox_no = EXCLUDED.mailbox_no;
	`
	_, err := s.DB.ExecContext(ctx, query,
		contact.ContactID.String(),
		contact.Name,
		nullString(contact.Email),
		nullString(contact.Phone),
		nullString(contact.MailboxNo),
	)
	if err != nil {
		return fmt.Errorf("create contact: insert contact_id=%s: %w", contact.ContactID, err)
	}
	return nil
}
