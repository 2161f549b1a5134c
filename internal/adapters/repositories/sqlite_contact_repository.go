package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"mailcenter-service/internal/domain"
)

// SQLite-backed implementation of the ContactRepository port.
type SqliteContactRepository struct{ DB *sql.DB }

func NewSqliteContactRepository(db *sql.DB) *SqliteContactRepository {
	return &SqliteContactRepository{DB: db}
}

func (s *SqliteContactRepository) ListContacts(ctx context.Context) ([]domain.Contact, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite contact repository: DB is nil")
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

func (s *SqliteContactRepository) GetContact(ctx context.Context, contactID uuid.UUID) (domain.Contact, error) {
	if s.DB == nil {
		return domain.Contact{}, errors.New("sqlite contact repository: DB is nil")
	}

	query := `
	SELECT
		contact_id,
		name,
		email,
		phone,
		mailbox_no
	FROM contacts
	WHERE contact_id = ?;
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

func (s *SqliteContactRepository) CreateContact(ctx context.Context, contact domain.Contact) error {
	if s.DB == nil {
		return errors.New("sqlite contact repository: DB is nil")
	}

	query := `
	INSERT OR REPLACE INTO contacts (
		contact_id,
		name,
		email,
		phone,
		mailbox_no
	)
	VALUES (?, ?, ?, ?, ?);
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

func scanContact(rows *sql.Rows) (domain.Contact, error) {
	var (
		id                      string
		name                    string
		email, phone, mailboxNo sql.NullString
	)
	if err := rows.Scan(&id, &name, &email, &phone, &mailboxNo); err != nil {
		return domain.Contact{}, fmt.Errorf("scan row: %w", err)
	}

	contactID, err := uuid.Parse(id)
	if err != nil {
		return domain.Contact{}, fmt.Errorf("parse contact_id %q: %w", id, err)
	}

	return domain.Contact{
		ContactID: contactID,
		Name:      name,
		Email:     email.String,
		Phone:     phone.String,
		MailboxNo: mailboxNo.String,
	}, nil
}
