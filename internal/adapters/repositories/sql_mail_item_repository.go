package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mailcenter-service/internal/dates"
	"mailcenter-service/internal/domain"
	"mailcenter-service/internal/ports"
)

// Postgres-backed implementation of the MailItemRepository port.
type SQLMailItemRepository struct {
	DB  *sql.DB
	Cal dates.Calendar
}

func NewSQLMailItemRepository(db *sql.DB, cal dates.Calendar) *SQLMailItemRepository {
	return &SQLMailItemRepository{DB: db, Cal: cal}
}

func (s *SQLMailItemRepository) ListMailItems(ctx context.Context, filter ports.MailItemFilter) ([]domain.MailItem, error) {
	if s.DB == nil {
		return nil, errors.New("sql mail item repository: DB is nil")
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
		args = append(args, filter.ContactID.String())
		query += fmt.Sprintf(" AND contact_id = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, s.Cal.FormatForStorage(*filter.From))
		query += fmt.Sprintf(" AND received_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, s.Cal.FormatForStorage(*filter.To))
		query += fmt.Sprintf(" AND received_at <= $%d", len(args))
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

const sqlMailItemInsert = `
	INSERT INTO mail_items (
		mail_item_id,
		contact_id,
		item_type,
		status,
		received_at,
		quantity,
		description
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7);
	`

func (s *SQLMailItemRepository) CreateMailItem(ctx context.Context, item domain.MailItem) error {
	if s.DB == nil {
		return errors.New("sql mail item repository: DB is nil")
	}

	_, err := s.DB.ExecContext(ctx, sqlMailItemInsert, mailItemInsertArgs(item, s.Cal)...)
	if err != nil {
		return fmt.Errorf("create mail item: insert mail_item_id=%s: %w", item.MailItemID, err)
	}
	return nil
}

// IntakeMailItem is the transactional intake; see the sqlite twin.
func (s *SQLMailItemRepository) IntakeMailItem(ctx context.Context, item domain.MailItem, fee *domain.Fee) error {
	if s.DB == nil {
		return errors.New("sql mail item repository: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("intake mail item: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, sqlMailItemInsert, mailItemInsertArgs(item, s.Cal)...); err != nil {
		return fmt.Errorf("intake mail item: insert mail_item_id=%s: %w", item.MailItemID, err)
	}
	if fee != nil {
		if _, err := tx.ExecContext(ctx, sqlFeeInsert, feeInsertArgs(*fee, s.Cal)...); err != nil {
			return fmt.Errorf("intake mail item: open fee fee_id=%s: %w", fee.FeeID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("intake mail item: commit: %w", err)
	}
	return nil
}
