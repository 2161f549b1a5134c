package dto

import (
	"mailcenter-service/internal/dates"
	"mailcenter-service/internal/domain"
	"mailcenter-service/internal/services"
)

type CreateMailItemRequest struct {
	ContactID   string `json:"contact_id"`
	ItemType    string `json:"item_type"`
	Status      string `json:"status,omitempty"`
	ReceivedAt  string `json:"received_at"`
	Quantity    int    `json:"quantity,omitempty"`
	Description string `json:"description,omitempty"`
}

type MailItemResponse struct {
	MailItemID  string `json:"mail_item_id"`
	ContactID   string `json:"contact_id"`
	ItemType    string `json:"item_type"`
	Status      string `json:"status"`
	ReceivedAt  string `json:"received_at"`
	CalendarDay string `json:"calendar_day"`
	Quantity    int    `json:"quantity"`
	Description string `json:"description,omitempty"`
}

type ListMailItemsResponse struct {
	MailItems []MailItemResponse `json:"mail_items"`
}

type GroupResponse struct {
	GroupKey       string             `json:"group_key"`
	ContactID      string             `json:"contact_id"`
	CalendarDay    string             `json:"calendar_day"`
	ItemType       string             `json:"item_type"`
	TotalQuantity  int                `json:"total_quantity"`
	Statuses       []string           `json:"statuses"`
	DisplayStatus  string             `json:"display_status"`
	LatestReceived string             `json:"latest_received"`
	HasDescription bool               `json:"has_description"`
	Items          []MailItemResponse `json:"items"`
}

type SimpleGroupResponse struct {
	GroupKey          string             `json:"group_key"`
	CalendarDay       string             `json:"calendar_day"`
	ItemType          string             `json:"item_type"`
	TotalQuantity     int                `json:"total_quantity"`
	Statuses          []string           `json:"statuses"`
	DisplayStatus     string             `json:"display_status"`
	LatestReceived    string             `json:"latest_received"`
	LatestStatus      string             `json:"latest_status"`
	LatestDescription string             `json:"latest_description,omitempty"`
	HasDescription    bool               `json:"has_description"`
	Items             []MailItemResponse `json:"items"`
}

type SkippedItemResponse struct {
	MailItemID string `json:"mail_item_id"`
	Error      string `json:"error"`
}

type GroupedMailResponse struct {
	Groups  []GroupResponse       `json:"groups,omitempty"`
	ByDay   []SimpleGroupResponse `json:"by_day,omitempty"`
	Skipped []SkippedItemResponse `json:"skipped,omitempty"`
}

func MailItemFromDomain(cal dates.Calendar, item domain.MailItem) MailItemResponse {
	return MailItemResponse{
		MailItemID:  item.MailItemID.String(),
		ContactID:   item.ContactID.String(),
		ItemType:    string(item.Type),
		Status:      string(item.Status),
		ReceivedAt:  cal.FormatForStorage(item.ReceivedAt),
		CalendarDay: string(cal.DayOf(item.ReceivedAt)),
		Quantity:    item.BillingQuantity(),
		Description: item.Description,
	}
}

func MailItemsFromDomain(cal dates.Calendar, items []domain.MailItem) []MailItemResponse {
	out := make([]MailItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, MailItemFromDomain(cal, it))
	}
	return out
}

func GroupFromDomain(cal dates.Calendar, g domain.Group) GroupResponse {
	return GroupResponse{
		GroupKey:       g.GroupKey,
		ContactID:      g.ContactID.String(),
		CalendarDay:    string(g.Day),
		ItemType:       string(g.Type),
		TotalQuantity:  g.TotalQuantity,
		Statuses:       statusStrings(g.Statuses),
		DisplayStatus:  g.DisplayStatus,
		LatestReceived: cal.FormatForStorage(g.LatestReceived),
		HasDescription: g.HasDescription,
		Items:          MailItemsFromDomain(cal, g.Items),
	}
}

func SimpleGroupFromDomain(cal dates.Calendar, g domain.SimpleGroup) SimpleGroupResponse {
	return SimpleGroupResponse{
		GroupKey:          g.GroupKey,
		CalendarDay:       string(g.Day),
		ItemType:          string(g.Type),
		TotalQuantity:     g.TotalQuantity,
		Statuses:          statusStrings(g.Statuses),
		DisplayStatus:     g.DisplayStatus,
		LatestReceived:    cal.FormatForStorage(g.LatestReceived),
		LatestStatus:      string(g.LatestStatus),
		LatestDescription: g.LatestDescription,
		HasDescription:    g.HasDescription,
		Items:             MailItemsFromDomain(cal, g.Items),
	}
}

func SkippedFromDomain(skipped []services.SkippedItem) []SkippedItemResponse {
	out := make([]SkippedItemResponse, 0, len(skipped))
	for _, s := range skipped {
		out = append(out, SkippedItemResponse{
			MailItemID: s.MailItemID.String(),
			Error:      s.Err.Error(),
		})
	}
	return out
}

func statusStrings(statuses []domain.Status) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
