package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"mailcenter-service/internal/dates"
	"mailcenter-service/internal/domain"
	"mailcenter-service/internal/ports"
)

// Postgres-backed implementation of the FeeRepository port.
type SQLFeeRepository struct {
	DB  *sql.DB
	Cal dates.Calendar
}

func NewSQLFeeRepository(db *sql.DB, cal dates.Calendar) *SQLFeeRepository {
	return &SQLFeeRepository{DB: db, Cal: cal}
}

func (s *SQLFeeRepository) ListFees(ctx context.Context, filter ports.FeeFilter) ([]domain.Fee, error) {
	if s.DB == nil {
		return nil, errors.New("sql fee repository: DB is nil")
	}

	query := feeColumns + " WHERE 1=1"
	args := []any{}
	if filter.ContactID != nil {
		args = append(args, filter.ContactID.String())
		query += fmt.Sprintf(" AND m.contact_id = $%d", len(args))
	}
	if filter.PendingOnly {
		args = append(args, string(domain.FeeStatusPending))
		query += fmt.Sprintf(" AND f.fee_status = $%d", len(args))
	}
	query += ";"

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list fees: query fees table: %w", err)
	}
	defer rows.Close()

	fees := make([]domain.Fee, 0, 64)
	for rows.Next() {
		fee, err := scanFee(rows, s.Cal)
		if err != nil {
			return nil, fmt.Errorf("list fees: %w", err)
		}
		fees = append(fees, fee)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list fees: row iteration: %w", err)
	}

	sortFeesByInstant(fees)
	return fees, nil
}

func (s *SQLFeeRepository) GetFee(ctx context.Context, feeID uuid.UUID) (domain.Fee, error) {
	if s.DB == nil {
		return domain.Fee{}, errors.New("sql fee repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, feeColumns+" WHERE f.fee_id = $1;", feeID.String())
	if err != nil {
		return domain.Fee{}, fmt.Errorf("get fee: query fee_id=%s: %w", feeID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.Fee{}, fmt.Errorf("get fee: row iteration: %w", err)
		}
		return domain.Fee{}, domain.ErrNotFound
	}
	fee, err := scanFee(rows, s.Cal)
	if err != nil {
		return domain.Fee{}, fmt.Errorf("get fee: %w", err)
	}
	return fee, nil
}

const sqlFeeInsert = `
	INSERT INTO fees (
		fee_id,
		mail_item_id,
		amount_cents,
		days_charged,
		fee_status,
		paid_date,
		payment_method,
		collected_cents,
		collected_by,
		waived_date,
		waive_reason
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`

func (s *SQLFeeRepository) CreateFee(ctx context.Context, fee domain.Fee) error {
	if s.DB == nil {
		return errors.New("sql fee repository: DB is nil")
	}

	_, err := s.DB.ExecContext(ctx, sqlFeeInsert, feeInsertArgs(fee, s.Cal)...)
	if err != nil {
		return fmt.Errorf("create fee: insert fee_id=%s: %w", fee.FeeID, err)
	}
	return nil
}

func (s *SQLFeeRepository) Settle(ctx context.Context, fee domain.Fee) error {
	if s.DB == nil {
		return errors.New("sql fee repository: DB is nil")
	}

	query := `
	UPDATE fees SET
		fee_status = $1,
		paid_date = $2,
		payment_method = $3,
		collected_cents = $4,
		collected_by = $5,
		waived_date = $6,
		waive_reason = $7
	WHERE fee_id = $8 AND fee_status = $9;
	`
	res, err := s.DB.ExecContext(ctx, query,
		string(fee.Status),
		nullInstant(fee.PaidDate, s.Cal),
		nullString(fee.PaymentMethod),
		nullInt(fee.CollectedCents),
		nullString(fee.CollectedBy),
		nullInstant(fee.WaivedDate, s.Cal),
		nullString(fee.WaiveReason),
		fee.FeeID.String(),
		string(domain.FeeStatusPending),
	)
	if err != nil {
		return fmt.Errorf("settle fee: update fee_id=%s: %w", fee.FeeID, err)
	}
	return s.checkConditionalUpdate(ctx, res, fee.FeeID, "settle")
}

func (s *SQLFeeRepository) UpdateSnapshot(ctx context.Context, fee domain.Fee) error {
	if s.DB == nil {
		return errors.New("sql fee repository: DB is nil")
	}

	query := `
	UPDATE fees SET
		amount_cents = $1,
		days_charged = $2
	WHERE fee_id = $3 AND fee_status = $4;
	`
	res, err := s.DB.ExecContext(ctx, query,
		fee.AmountCents,
		fee.DaysCharged,
		fee.FeeID.String(),
		string(domain.FeeStatusPending),
	)
	if err != nil {
		return fmt.Errorf("update fee snapshot: update fee_id=%s: %w", fee.FeeID, err)
	}
	return s.checkConditionalUpdate(ctx, res, fee.FeeID, "recalculate")
}

func (s *SQLFeeRepository) checkConditionalUpdate(ctx context.Context, res sql.Result, feeID uuid.UUID, attempted string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("conditional update: rows affected for fee_id=%s: %w", feeID, err)
	}
	if affected > 0 {
		return nil
	}

	current, err := s.GetFee(ctx, feeID)
	if err != nil {
		return fmt.Errorf("conditional update: fee_id=%s: %w", feeID, err)
	}
	return &domain.InvalidStateError{
		Entity:    "fee",
		Current:   string(current.Status),
		Attempted: attempted,
	}
}
