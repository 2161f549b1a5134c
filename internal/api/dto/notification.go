package dto

import (
	"mailcenter-service/internal/dates"
	"mailcenter-service/internal/services"
)

// NotificationSummaryResponse carries the values the template layer
// substitutes into customer notifications.
type NotificationSummaryResponse struct {
	ContactID        string                `json:"contact_id"`
	TotalQuantity    int                   `json:"total_quantity"`
	CountsByType     map[string]int        `json:"counts_by_type"`
	GroupCount       int                   `json:"group_count"`
	OutstandingCents int64                 `json:"outstanding_cents"`
	Outstanding      string                `json:"outstanding"`
	OldestDay        string                `json:"oldest_day,omitempty"`
	NewestDay        string                `json:"newest_day,omitempty"`
	Groups           []SimpleGroupResponse `json:"groups"`
	Skipped          []SkippedItemResponse `json:"skipped,omitempty"`
}

func NotificationSummaryFromDomain(
	cal dates.Calendar,
	summary services.NotificationSummary,
	skipped []services.SkippedItem,
) NotificationSummaryResponse {
	counts := make(map[string]int, len(summary.CountsByType))
	for t, n := range summary.CountsByType {
		counts[string(t)] = n
	}

	groups := make([]SimpleGroupResponse, 0, len(summary.Groups))
	for _, g := range summary.Groups {
		groups = append(groups, SimpleGroupFromDomain(cal, g))
	}

	return NotificationSummaryResponse{
		ContactID:        summary.ContactID.String(),
		TotalQuantity:    summary.TotalQuantity,
		CountsByType:     counts,
		GroupCount:       summary.GroupCount,
		OutstandingCents: summary.OutstandingCents,
		Outstanding:      DollarsFromCents(summary.OutstandingCents),
		OldestDay:        string(summary.OldestDay),
		NewestDay:        string(summary.NewestDay),
		Groups:           groups,
		Skipped:          SkippedFromDomain(skipped),
	}
}
