package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"mailcenter-service/internal/dates"
	"mailcenter-service/internal/domain"
	"mailcenter-service/internal/ports"
)

// feeColumns is the join shared by both dialects: fee rows carry their mail
// item's contact and received instant so the billing engine never re-joins.
const feeColumns = `
	SELECT
		f.fee_id,
		f.mail_item_id,
		m.contact_id,
		m.received_at,
		f.amount_cents,
		f.days_charged,
		f.fee_status,
		f.paid_date,
		f.payment_method,
		f.collected_cents,
		f.collected_by,
		f.waived_date,
		f.waive_reason
	FROM fees f
	JOIN mail_items m ON m.mail_item_id = f.mail_item_id
`

// SQLite-backed implementation of the FeeRepository port.
type SqliteFeeRepository struct {
	DB  *sql.DB
	Cal dates.Calendar
}

func NewSqliteFeeRepository(db *sql.DB, cal dates.Calendar) *SqliteFeeRepository {
	return &SqliteFeeRepository{DB: db, Cal: cal}
}

func (s *SqliteFeeRepository) ListFees(ctx context.Context, filter ports.FeeFilter) ([]domain.Fee, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite fee repository: DB is nil")
	}

	query := feeColumns + " WHERE 1=1"
	args := []any{}
	if filter.ContactID != nil {
		query += " AND m.contact_id = ?"
		args = append(args, filter.ContactID.String())
	}
	if filter.PendingOnly {
		query += " AND f.fee_status = ?"
		args = append(args, string(domain.FeeStatusPending))
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

// sortFeesByInstant orders fee rows by their mail item's received instant,
// resolved in Go for the same DST-overlap reason as sortMailItemsByInstant.
func sortFeesByInstant(fees []domain.Fee) {
	sort.Slice(fees, func(i, j int) bool {
		if !fees[i].ReceivedAt.Equal(fees[j].ReceivedAt) {
			return fees[i].ReceivedAt.Before(fees[j].ReceivedAt)
		}
		return fees[i].FeeID.String() < fees[j].FeeID.String()
	})
}

func (s *SqliteFeeRepository) GetFee(ctx context.Context, feeID uuid.UUID) (domain.Fee, error) {
	if s.DB == nil {
		return domain.Fee{}, errors.New("sqlite fee repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, feeColumns+" WHERE f.fee_id = ?;", feeID.String())
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

const sqliteFeeInsert = `
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
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`

func (s *SqliteFeeRepository) CreateFee(ctx context.Context, fee domain.Fee) error {
	if s.DB == nil {
		return errors.New("sqlite fee repository: DB is nil")
	}

	_, err := s.DB.ExecContext(ctx, sqliteFeeInsert, feeInsertArgs(fee, s.Cal)...)
	if err != nil {
		return fmt.Errorf("create fee: insert fee_id=%s: %w", fee.FeeID, err)
	}
	return nil
}

// Settle persists a settled fee with an atomic conditional update. A race
// between two settlements resolves here: whoever loses the condition gets an
// InvalidStateError, never a double settlement.
func (s *SqliteFeeRepository) Settle(ctx context.Context, fee domain.Fee) error {
	if s.DB == nil {
		return errors.New("sqlite fee repository: DB is nil")
	}

	query := `
	UPDATE fees SET
		fee_status = ?,
		paid_date = ?,
		payment_method = ?,
		collected_cents = ?,
		collected_by = ?,
		waived_date = ?,
		waive_reason = ?
	WHERE fee_id = ? AND fee_status = ?;
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

func (s *SqliteFeeRepository) UpdateSnapshot(ctx context.Context, fee domain.Fee) error {
	if s.DB == nil {
		return errors.New("sqlite fee repository: DB is nil")
	}

	query := `
	UPDATE fees SET
		amount_cents = ?,
		days_charged = ?
	WHERE fee_id = ? AND fee_status = ?;
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

// checkConditionalUpdate turns a zero-row conditional update into the right
// domain error: missing row or a fee that is no longer pending.
func (s *SqliteFeeRepository) checkConditionalUpdate(ctx context.Context, res sql.Result, feeID uuid.UUID, attempted string) error {
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

// Row/argument mapping shared by both dialects.

func scanFee(rows *sql.Rows, cal dates.Calendar) (domain.Fee, error) {
	var (
		id, mailItemID, contactID, receivedAt string
		amountCents                           int64
		daysCharged                           int
		status                                string
		paidDate, paymentMethod               sql.NullString
		collectedCents                        sql.NullInt64
		collectedBy                           sql.NullString
		waivedDate, waiveReason               sql.NullString
	)
	err := rows.Scan(
		&id, &mailItemID, &contactID, &receivedAt,
		&amountCents, &daysCharged, &status,
		&paidDate, &paymentMethod, &collectedCents, &collectedBy,
		&waivedDate, &waiveReason,
	)
	if err != nil {
		return domain.Fee{}, fmt.Errorf("scan row: %w", err)
	}

	feeID, err := uuid.Parse(id)
	if err != nil {
		return domain.Fee{}, fmt.Errorf("parse fee_id %q: %w", id, err)
	}
	itemID, err := uuid.Parse(mailItemID)
	if err != nil {
		return domain.Fee{}, fmt.Errorf("parse mail_item_id %q: %w", mailItemID, err)
	}
	contact, err := uuid.Parse(contactID)
	if err != nil {
		return domain.Fee{}, fmt.Errorf("parse contact_id %q: %w", contactID, err)
	}
	received, err := cal.ParseInstant(receivedAt)
	if err != nil {
		return domain.Fee{}, fmt.Errorf("parse received_at: %w", err)
	}

	fee := domain.Fee{
		FeeID:       feeID,
		MailItemID:  itemID,
		ContactID:   contact,
		ReceivedAt:  received,
		AmountCents: amountCents,
		DaysCharged: daysCharged,
		Status:      domain.FeeStatus(status),
	}
	if fee.PaidDate, err = scanInstant(paidDate, cal, "paid_date"); err != nil {
		return domain.Fee{}, err
	}
	if fee.WaivedDate, err = scanInstant(waivedDate, cal, "waived_date"); err != nil {
		return domain.Fee{}, err
	}
	fee.PaymentMethod = paymentMethod.String
	fee.CollectedBy = collectedBy.String
	fee.WaiveReason = waiveReason.String
	if collectedCents.Valid {
		collected := collectedCents.Int64
		fee.CollectedCents = &collected
	}
	return fee, nil
}

func scanInstant(v sql.NullString, cal dates.Calendar, column string) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := cal.ParseInstant(v.String)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", column, err)
	}
	return &t, nil
}

func feeInsertArgs(fee domain.Fee, cal dates.Calendar) []any {
	return []any{
		fee.FeeID.String(),
		fee.MailItemID.String(),
		fee.AmountCents,
		fee.DaysCharged,
		string(fee.Status),
		nullInstant(fee.PaidDate, cal),
		nullString(fee.PaymentMethod),
		nullInt(fee.CollectedCents),
		nullString(fee.CollectedBy),
		nullInstant(fee.WaivedDate, cal),
		nullString(fee.WaiveReason),
	}
}

func nullInstant(t *time.Time, cal dates.Calendar) any {
	if t == nil {
		return nil
	}
	return cal.FormatForStorage(*t)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
