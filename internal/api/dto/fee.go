package dto

import (
	"fmt"

	"mailcenter-service/internal/dates"
	"mailcenter-service/internal/domain"
)

type FeeResponse struct {
	FeeID          string `json:"fee_id"`
	MailItemID     string `json:"mail_item_id"`
	ContactID      string `json:"contact_id"`
	AmountCents    int64  `json:"amount_cents"`
	Amount         string `json:"amount"`
	DaysCharged    int    `json:"days_charged"`
	FeeStatus      string `json:"fee_status"`
	PaidDate       string `json:"paid_date,omitempty"`
	PaymentMethod  string `json:"payment_method,omitempty"`
	CollectedCents *int64 `json:"collected_cents,omitempty"`
	CollectedBy    string `json:"collected_by,omitempty"`
	WaivedDate     string `json:"waived_date,omitempty"`
	WaiveReason    string `json:"waive_reason,omitempty"`
}

type ListFeesResponse struct {
	Fees []FeeResponse `json:"fees"`
}

type PayFeeRequest struct {
	FeeID           string   `json:"fee_id"`
	PaymentMethod   string   `json:"payment_method"`
	CollectedAmount *float64 `json:"collected_amount,omitempty"` // dollars; manual discount
	CollectedBy     string   `json:"collected_by,omitempty"`
}

type WaiveFeeRequest struct {
	FeeID  string `json:"fee_id"`
	Reason string `json:"reason"`
}

type RecalculateFeeRequest struct {
	FeeID string `json:"fee_id"`
	AsOf  string `json:"as_of,omitempty"`
}

type ContactTotal struct {
	ContactID  string `json:"contact_id"`
	TotalCents int64  `json:"total_cents"`
	Total      string `json:"total"`
}

type OutstandingFeesResponse struct {
	TotalCents int64          `json:"total_cents"`
	Total      string         `json:"total"`
	ByContact  []ContactTotal `json:"by_contact"`
}

// DollarsFromCents renders integer cents as a major-unit decimal string.
func DollarsFromCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func FeeFromDomain(cal dates.Calendar, fee domain.Fee) FeeResponse {
	res := FeeResponse{
		FeeID:          fee.FeeID.String(),
		MailItemID:     fee.MailItemID.String(),
		ContactID:      fee.ContactID.String(),
		AmountCents:    fee.AmountCents,
		Amount:         DollarsFromCents(fee.AmountCents),
		DaysCharged:    fee.DaysCharged,
		FeeStatus:      string(fee.Status),
		PaymentMethod:  fee.PaymentMethod,
		CollectedCents: fee.CollectedCents,
		CollectedBy:    fee.CollectedBy,
		WaiveReason:    fee.WaiveReason,
	}
	if fee.PaidDate != nil {
		res.PaidDate = cal.FormatForStorage(*fee.PaidDate)
	}
	if fee.WaivedDate != nil {
		res.WaivedDate = cal.FormatForStorage(*fee.WaivedDate)
	}
	return res
}

func FeesFromDomain(cal dates.Calendar, fees []domain.Fee) []FeeResponse {
	out := make([]FeeResponse, 0, len(fees))
	for _, f := range fees {
		out = append(out, FeeFromDomain(cal, f))
	}
	return out
}
