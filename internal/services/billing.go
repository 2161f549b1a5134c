package services

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"mailcenter-service/internal/dates"
	"mailcenter-service/internal/domain"
)

// BillingPolicy holds the fee configuration supplied by the caller: the
// civil calendar used for day counting, the grace period before accrual
// starts, and the per-day storage rate.
type BillingPolicy struct {
	Calendar          dates.Calendar
	GraceDays         int
	RateCents         int64
	MinWaiveReasonLen int
}

// DefaultMinWaiveReasonLen guards against empty or throwaway waive reasons.
const DefaultMinWaiveReasonLen = 5

// CentsFromDollars converts a dollar amount to integer cents, rounding
// half-up at the second decimal. Used once, at policy load and at payment
// intake; fee arithmetic itself stays integer-only.
func CentsFromDollars(dollars float64) int64 {
	return int64(math.Floor(dollars*100 + 0.5))
}

// DaysCharged is the number of billable days elapsed: whole calendar days
// between receipt and asOf in the civil timezone, minus the grace period,
// floored at zero.
func (p BillingPolicy) DaysCharged(received, asOf time.Time) int {
	days := p.Calendar.DaysBetween(received, asOf) - p.GraceDays
	if days < 0 {
		return 0
	}
	return days
}

// FeeAmountCents is the charge for a given billable day count. Never
// negative.
func (p BillingPolicy) FeeAmountCents(daysCharged int) int64 {
	if daysCharged < 0 {
		return 0
	}
	return int64(daysCharged) * p.RateCents
}

// NewFee opens a pending fee for a billable package, snapshotting the day
// count and amount as of the given instant.
func (p BillingPolicy) NewFee(item domain.MailItem, asOf time.Time) domain.Fee {
	days := p.DaysCharged(item.ReceivedAt, asOf)
	return domain.Fee{
		FeeID:       uuid.New(),
		MailItemID:  item.MailItemID,
		ContactID:   item.ContactID,
		ReceivedAt:  item.ReceivedAt,
		AmountCents: p.FeeAmountCents(days),
		DaysCharged: days,
		Status:      domain.FeeStatusPending,
	}
}

// MarkPaid settles a pending fee as paid. The collected amount may differ
// from the fee amount (manual discount) and is recorded verbatim; whether
// the discount is reasonable is the caller's policy, not the engine's. The
// input fee is not mutated.
func (p BillingPolicy) MarkPaid(
	fee domain.Fee,
	asOf time.Time,
	paymentMethod string,
	collectedCents *int64,
	collectedBy string,
) (domain.Fee, error) {
	if strings.TrimSpace(paymentMethod) == "" {
		return domain.Fee{}, &domain.ValidationError{Field: "payment_method", Reason: "is required"}
	}
	if fee.Status != domain.FeeStatusPending {
		return domain.Fee{}, &domain.InvalidStateError{
			Entity:    "fee",
			Current:   string(fee.Status),
			Attempted: "pay",
		}
	}

	paid := fee
	paid.Status = domain.FeeStatusPaid
	paidAt := asOf
	paid.PaidDate = &paidAt
	paid.PaymentMethod = paymentMethod
	paid.CollectedBy = collectedBy
	if collectedCents != nil {
		collected := *collectedCents
		paid.CollectedCents = &collected
	} else {
		collected := fee.AmountCents
		paid.CollectedCents = &collected
	}
	return paid, nil
}

// Waive settles a pending fee as waived. The reason is mandatory and must
// carry enough text to be useful in an audit.
func (p BillingPolicy) Waive(fee domain.Fee, asOf time.Time, reason string) (domain.Fee, error) {
	minLen := p.MinWaiveReasonLen
	if minLen <= 0 {
		minLen = DefaultMinWaiveReasonLen
	}
	if len(strings.TrimSpace(reason)) < minLen {
		return domain.Fee{}, &domain.ValidationError{
			Field:  "waive_reason",
			Reason: "is too short",
		}
	}
	if fee.Status != domain.FeeStatusPending {
		return domain.Fee{}, &domain.InvalidStateError{
			Entity:    "fee",
			Current:   string(fee.Status),
			Attempted: "waive",
		}
	}

	waived := fee
	waived.Status = domain.FeeStatusWaived
	waivedAt := asOf
	waived.WaivedDate = &waivedAt
	waived.WaiveReason = strings.TrimSpace(reason)
	return waived, nil
}

// Recalculate refreshes the days-charged snapshot of a pending fee against a
// new asOf instant. Paid and waived fees are historical facts and are
// rejected.
func (p BillingPolicy) Recalculate(fee domain.Fee, asOf time.Time) (domain.Fee, error) {
	if fee.Status != domain.FeeStatusPending {
		return domain.Fee{}, &domain.InvalidStateError{
			Entity:    "fee",
			Current:   string(fee.Status),
			Attempted: "recalculate",
		}
	}

	fresh := fee
	fresh.DaysCharged = p.DaysCharged(fee.ReceivedAt, asOf)
	fresh.AmountCents = p.FeeAmountCents(fresh.DaysCharged)
	return fresh, nil
}

// SumOutstandingCents folds the amounts still owed: pending fees at their
// snapshot amount.
func SumOutstandingCents(fees []domain.Fee) int64 {
	var total int64
	for _, f := range fees {
		if f.Status == domain.FeeStatusPending {
			total += f.AmountCents
		}
	}
	return total
}

// SumByContactCents folds per-contact totals for revenue reporting. Pending
// fees count at their snapshot amount; settled fees count what was actually
// collected (these are different fields and must not be conflated).
func SumByContactCents(fees []domain.Fee) map[uuid.UUID]int64 {
	totals := make(map[uuid.UUID]int64, len(fees))
	for _, f := range fees {
		switch f.Status {
		case domain.FeeStatusPending:
			totals[f.ContactID] += f.AmountCents
		default:
			totals[f.ContactID] += f.SettledCents()
		}
	}
	return totals
}
