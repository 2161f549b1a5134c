package services

import (
	"github.com/google/uuid"

	"mailcenter-service/internal/dates"
	"mailcenter-service/internal/domain"
)

// NotificationSummary is the deterministic input the notification/template
// layer substitutes into customer emails: counts, totals and the day span
// covered. No template syntax lives here.
type NotificationSummary struct {
	ContactID        uuid.UUID
	TotalQuantity    int
	CountsByType     map[domain.ItemType]int
	GroupCount       int
	OutstandingCents int64
	OldestDay        dates.CalendarDay
	NewestDay        dates.CalendarDay
	Groups           []domain.SimpleGroup
}

// BuildNotificationSummary aggregates one contact's mail items and fees into
// the values consumed for variable substitution. Items belonging to other
// contacts and settled fees are ignored.
func BuildNotificationSummary(
	cal dates.Calendar,
	contactID uuid.UUID,
	items []domain.MailItem,
	fees []domain.Fee,
) (NotificationSummary, []SkippedItem) {
	own := make([]domain.MailItem, 0, len(items))
	for _, it := range items {
		if it.ContactID == contactID {
			own = append(own, it)
		}
	}

	groups, skipped := GroupByDayType(cal, own)

	summary := NotificationSummary{
		ContactID:    contactID,
		CountsByType: make(map[domain.ItemType]int),
		GroupCount:   len(groups),
		Groups:       groups,
	}

	for _, g := range groups {
		summary.TotalQuantity += g.TotalQuantity
		summary.CountsByType[g.Type] += g.TotalQuantity
		// Groups arrive newest day first.
		if summary.NewestDay == "" {
			summary.NewestDay = g.Day
		}
		summary.OldestDay = g.Day
	}

	for _, f := range fees {
		if f.ContactID == contactID && f.Status == domain.FeeStatusPending {
			summary.OutstandingCents += f.AmountCents
		}
	}
	return summary, skipped
}
