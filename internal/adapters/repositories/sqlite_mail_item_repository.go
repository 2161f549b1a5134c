package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"mailcenter-service/internal/dates"
	"mailcenter-service/internal/domain"
	"mailcenter-service/internal/ports"
)

// SQLite-backed implementation of the MailItemRepository port.
type SqliteMailItemRepository struct {
	DB  *sql.DB
	Cal dates.Calendar
}

func NewSqliteMailItemRepository(db *sql.DB, cal dates.Calendar) *SqliteMailItemRepository {
	return &SqliteMailItemRepository{DB: db, Cal: cal}
}

func (s *SqliteMailItemRepository) ListMailItems(ctx context.Context, filter ports.MailItemFilter) ([]domain.MailItem, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite mail item repository: DB is nil")
	}

	query := `
	SELECT
		mail_item_id,
		contact_id,
		item_type,
		status,
		received_at,
		quantity,
		description
	FROM mail_items
	WHERE 1=1
	`
	args := []any{}
	if filter.ContactID != nil {
		query += " AND contact_id = ?"
		args = append(args, filter.ContactID.String())
	}
	// Text timestamps carry the civil offset; comparing storage strings of
	// day boundaries keeps the range inclusive and index-friendly.
	if filter.From != nil {
		query += " AND received_at >= ?"
		args = append(args, s.Cal.FormatForStorage(*filter.From))
	}
	if filter.To != nil {
		query += " AND received_at <= ?"
		args = append(args, s.Cal.FormatForStorage(*filter.To))
	}
	query += ";"

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list mail items: query mail_items table: %w", err)
	}
	defer rows.Close()

	items := make([]domain.MailItem, 0, 64)
	for rows.Next() {
		item, err := scanMailItem(rows, s.Cal)
		if err != nil {
			return nil, fmt.Errorf("list mail items: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list mail items: row iteration: %w", err)
	}

	sortMailItemsByInstant(items)
	return items, nil
}

// sortMailItemsByInstant orders rows chronologically after scanning. The
// stored wall-clock strings cannot be ordered in SQL: inside the DST
// fall-back overlap hour 01:30-04:00 sorts after 01:15-05:00 as text even
// though it is the earlier instant.
func sortMailItemsByInstant(items []domain.MailItem) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].ReceivedAt.Equal(items[j].ReceivedAt) {
			return items[i].ReceivedAt.Before(items[j].ReceivedAt)
		}
		return items[i].MailItemID.String() < items[j].MailItemID.String()
	})
}

const sqliteMailItemInsert = `
	INSERT INTO mail_items (
		mail_item_id,
		contact_id,
		item_type,
		status,
		received_at,
		quantity,
		description
	)
	VALUES (?, ?, ?, ?, ?, ?, ?);
	`

func (s *SqliteMailItemRepository) CreateMailItem(ctx context.Context, item domain.MailItem) error {
	if s.DB == nil {
		return errors.New("sqlite mail item repository: DB is nil")
	}

	_, err := s.DB.ExecContext(ctx, sqliteMailItemInsert, mailItemInsertArgs(item, s.Cal)...)
	if err != nil {
		return fmt.Errorf("create mail item: insert mail_item_id=%s: %w", item.MailItemID, err)
	}
	return nil
}

// IntakeMailItem records an intake atomically: the mail item and, for a
// billable package, its opened fee commit together or not at all. A fee
// insert failure must never strand a billable item without a pending fee.
func (s *SqliteMailItemRepository) IntakeMailItem(ctx context.Context, item domain.MailItem, fee *domain.Fee) error {
	if s.DB == nil {
		return errors.New("sqlite mail item repository: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("intake mail item: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, sqliteMailItemInsert, mailItemInsertArgs(item, s.Cal)...); err != nil {
		return fmt.Errorf("intake mail item: insert mail_item_id=%s: %w", item.MailItemID, err)
	}
	if fee != nil {
		if _, err := tx.ExecContext(ctx, sqliteFeeInsert, feeInsertArgs(*fee, s.Cal)...); err != nil {
			return fmt.Errorf("intake mail item: open fee fee_id=%s: %w", fee.FeeID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("intake mail item: commit: %w", err)
	}
	return nil
}

// mailItemInsertArgs builds the insert argument list; shared by both
// dialects.
func mailItemInsertArgs(item domain.MailItem, cal dates.Calendar) []any {
	return []any{
		item.MailItemID.String(),
		item.ContactID.String(),
		string(item.Type),
		string(item.Status),
		cal.FormatForStorage(item.ReceivedAt),
		item.Quantity,
		item.Description,
	}
}

// scanMailItem maps one mail_items row; shared by both dialects.
func scanMailItem(rows *sql.Rows, cal dates.Calendar) (domain.MailItem, error) {
	var (
		id, contactID, itemType, status, receivedAt string
		quantity                                    int
		description                                 sql.NullString
	)
	if err := rows.Scan(&id, &contactID, &itemType, &status, &receivedAt, &quantity, &description); err != nil {
		return domain.MailItem{}, fmt.Errorf("scan row: %w", err)
	}

	mailItemID, err := uuid.Parse(id)
	if err != nil {
		return domain.MailItem{}, fmt.Errorf("parse mail_item_id %q: %w", id, err)
	}
	contact, err := uuid.Parse(contactID)
	if err != nil {
		return domain.MailItem{}, fmt.Errorf("parse contact_id %q: %w", contactID, err)
	}
	received, err := cal.ParseInstant(receivedAt)
	if err != nil {
		return domain.MailItem{}, fmt.Errorf("parse received_at: %w", err)
	}

	return domain.MailItem{
		MailItemID:  mailItemID,
		ContactID:   contact,
		Type:        domain.ItemType(itemType),
		Status:      domain.Status(status),
		ReceivedAt:  received,
		Quantity:    quantity,
		Description: description.String,
	}, nil
}
