package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"mailcenter-service/internal/domain"
	"mailcenter-service/internal/ports"
	"mailcenter-service/internal/services"
)

type ContactSeed struct {
	ContactID string `json:"contact_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	MailboxNo string `json:"mailbox_no"`
}

type MailItemSeed struct {
	MailItemID  string `json:"mail_item_id"`
	ContactID   string `json:"contact_id"`
	ItemType    string `json:"item_type"`
	Status      string `json:"status"`
	ReceivedAt  string `json:"received_at"`
	Quantity    int    `json:"quantity"`
	Description string `json:"description"`
}

type SeedFile struct {
	Contacts  []ContactSeed  `json:"contacts"`
	MailItems []MailItemSeed `json:"mail_items"`
}

// SeedReport lists seed rows skipped for data-integrity reasons. One bad row
// never fails the whole file.
type SeedReport struct {
	ContactsLoaded  int
	MailItemsLoaded int
	FeesOpened      int
	Skipped         []error
}

// SeedFromJSON loads demo contacts and mail items for local runs, opening a
// pending fee for every billable package. Timestamps are normalized through
// the billing calendar; rows that fail to normalize are reported and
// skipped.
func SeedFromJSON(
	ctx context.Context,
	contacts ports.ContactRepository,
	items ports.MailItemRepository,
	policy services.BillingPolicy,
	jsonPath string,
	asOf time.Time,
) (SeedReport, error) {
	var report SeedReport

	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return report, fmt.Errorf("seed mail center: read %q: %w", jsonPath, err)
	}

	var data SeedFile
	if err := json.Unmarshal(bytes, &data); err != nil {
		return report, fmt.Errorf("seed mail center: parse json: %w", err)
	}

	for i, c := range data.Contacts {
		contactID, err := uuid.Parse(c.ContactID)
		if err != nil {
			report.Skipped = append(report.Skipped,
				fmt.Errorf("seed mail center: contact at index %d: bad id %q: %w", i, c.ContactID, err))
			continue
		}
		if strings.TrimSpace(c.Name) == "" {
			report.Skipped = append(report.Skipped,
				fmt.Errorf("seed mail center: contact at index %d: name cannot be empty", i))
			continue
		}
		contact := domain.Contact{
			ContactID: contactID,
			Name:      strings.TrimSpace(c.Name),
			Email:     c.Email,
			Phone:     c.Phone,
			MailboxNo: c.MailboxNo,
		}
		if err := contacts.CreateContact(ctx, contact); err != nil {
			return report, fmt.Errorf("seed mail center: insert contact %s: %w", contactID, err)
		}
		report.ContactsLoaded++
	}

	for i, m := range data.MailItems {
		item, err := mailItemFromSeed(policy, m)
		if err != nil {
			report.Skipped = append(report.Skipped,
				fmt.Errorf("seed mail center: mail item at index %d: %w", i, err))
			continue
		}
		var fee *domain.Fee
		if item.Billable() {
			opened := policy.NewFee(item, asOf)
			fee = &opened
		}
		if err := items.IntakeMailItem(ctx, item, fee); err != nil {
			return report, fmt.Errorf("seed mail center: insert mail item %s: %w", item.MailItemID, err)
		}
		report.MailItemsLoaded++
		if fee != nil {
			report.FeesOpened++
		}
	}

	return report, nil
}

func mailItemFromSeed(policy services.BillingPolicy, m MailItemSeed) (domain.MailItem, error) {
	mailItemID, err := uuid.Parse(m.MailItemID)
	if err != nil {
		return domain.MailItem{}, fmt.Errorf("bad mail item id %q: %w", m.MailItemID, err)
	}
	contactID, err := uuid.Parse(m.ContactID)
	if err != nil {
		return domain.MailItem{}, fmt.Errorf("bad contact id %q: %w", m.ContactID, err)
	}
	receivedAt, err := policy.Calendar.ParseInstant(m.ReceivedAt)
	if err != nil {
		return domain.MailItem{}, err
	}

	status := domain.Status(m.Status)
	if m.Status == "" {
		status = domain.StatusReceived
	}

	item := domain.MailItem{
		MailItemID:  mailItemID,
		ContactID:   contactID,
		Type:        domain.ItemType(m.ItemType),
		Status:      status,
		ReceivedAt:  receivedAt,
		Quantity:    m.Quantity,
		Description: m.Description,
	}
	if err := item.Validate(); err != nil {
		return domain.MailItem{}, err
	}
	return item, nil
}
