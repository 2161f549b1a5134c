package repositories

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"mailcenter-service/internal/dates"
	"mailcenter-service/internal/domain"
)

// Fall-back morning of 2025-11-02 in New York: 05:30 UTC is 01:30-04:00,
// 06:15 UTC is 01:15-05:00. The later instant carries the smaller wall
// clock, so stored strings sort against instant order.
func overlapInstants() (early, late time.Time) {
	return time.Date(2025, 11, 2, 5, 30, 0, 0, time.UTC),
		time.Date(2025, 11, 2, 6, 15, 0, 0, time.UTC)
}

func TestSortMailItemsByInstantInDSTOverlap(t *testing.T) {
	cal, err := dates.NewCalendar(dates.DefaultTimezone)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	early, late := overlapInstants()
	if cal.FormatForStorage(late) >= cal.FormatForStorage(early) {
		t.Fatalf("storage strings %q / %q do not invert; fixture is wrong",
			cal.FormatForStorage(early), cal.FormatForStorage(late))
	}

	first := domain.MailItem{MailItemID: uuid.New(), ReceivedAt: early}
	second := domain.MailItem{MailItemID: uuid.New(), ReceivedAt: late}

	items := []domain.MailItem{second, first}
	sortMailItemsByInstant(items)
	if items[0].MailItemID != first.MailItemID {
		t.Fatalf("overlap-hour items not in instant order: %v before %v",
			items[0].ReceivedAt, items[1].ReceivedAt)
	}
}

func TestSortFeesByInstantBreaksTiesByID(t *testing.T) {
	early, late := overlapInstants()

	a := domain.Fee{FeeID: uuid.New(), ReceivedAt: late}
	b := domain.Fee{FeeID: uuid.New(), ReceivedAt: early}
	c := domain.Fee{FeeID: uuid.New(), ReceivedAt: early}

	lo, hi := b, c
	if c.FeeID.String() < b.FeeID.String() {
		lo, hi = c, b
	}

	fees := []domain.Fee{a, c, b}
	sortFeesByInstant(fees)

	want := []uuid.UUID{lo.FeeID, hi.FeeID, a.FeeID}
	for i, fee := range fees {
		if fee.FeeID != want[i] {
			t.Fatalf("fee order[%d] = %s, want %s", i, fee.FeeID, want[i])
		}
	}
}
