package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the database schema. DDL is kept portable between SQLite and
// Postgres: text keys, text timestamps carrying explicit offsets, integer
// cents.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createContactsQuery := `
	CREATE TABLE IF NOT EXISTS contacts (
		contact_id TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT,
		phone      TEXT,
		mailbox_no TEXT
	);
	`

	createMailItemsQuery := `
	CREATE TABLE IF NOT EXISTS mail_items (
		mail_item_id TEXT PRIMARY KEY,
		contact_id   TEXT NOT NULL REFERENCES contacts(contact_id),
		item_type    TEXT NOT NULL,
		status       TEXT NOT NULL,
		received_at  TEXT NOT NULL,
		quantity     INTEGER NOT NULL DEFAULT 1,
		description  TEXT
	);
	`

	createFeesQuery := `
	CREATE TABLE IF NOT EXISTS fees (
		fee_id          TEXT PRIMARY KEY,
		mail_item_id    TEXT NOT NULL REFERENCES mail_items(mail_item_id),
		amount_cents    INTEGER NOT NULL,
		days_charged    INTEGER NOT NULL,
		fee_status      TEXT NOT NULL,
		paid_date       TEXT,
		payment_method  TEXT,
		collected_cents INTEGER,
		collected_by    TEXT,
		waived_date     TEXT,
		waive_reason    TEXT
	);
	`

	createMailItemIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_mail_items_contact_received
	ON mail_items(contact_id, received_at);
	`

	createFeeStatusIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_fees_status
	ON fees(fee_status);
	`

	statements := []string{
		createContactsQuery,
		createMailItemsQuery,
		createFeesQuery,
		createMailItemIndexQuery,
		createFeeStatusIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
