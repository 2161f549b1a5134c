package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"mailcenter-service/internal/api/dto"
	"mailcenter-service/internal/domain"
)

func nyTime(t *testing.T, y int, m time.Month, d, hh, mm int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	return time.Date(y, m, d, hh, mm, 0, 0, loc)
}

func TestIntakePackageOpensPendingFee(t *testing.T) {
	fees := newFakeFeeRepo()
	items := &fakeMailItemRepo{fees: fees}
	cache := newFakeGroupCache()
	asOf := time.Date(2025, 12, 9, 15, 0, 0, 0, time.UTC)

	h := &MailItemHandler{
		Items:  items,
		Cache:  cache,
		Policy: testPolicy(t),
		Log:    testLogger(),
		Now:    fixedClock(asOf),
	}

	contactID := uuid.New()
	cache.groups[contactID] = []domain.SimpleGroup{{GroupKey: "stale"}}

	req := postJSON(t, "/mailitems", dto.CreateMailItemRequest{
		ContactID:  contactID.String(),
		ItemType:   string(domain.ItemTypePackage),
		ReceivedAt: "2025-12-09T10:30:00",
	})
	res := httptest.NewRecorder()
	h.Intake(res, req)

	if res.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", res.Code, res.Body.String())
	}
	if len(items.items) != 1 {
		t.Fatalf("stored %d items, want 1", len(items.items))
	}
	if len(fees.fees) != 1 {
		t.Fatalf("stored %d fees, want 1", len(fees.fees))
	}
	for _, fee := range fees.fees {
		if !fee.IsPending() {
			t.Fatalf("opened fee status = %q, want pending", fee.Status)
		}
		if fee.ContactID != contactID {
			t.Fatalf("fee contact = %s, want %s", fee.ContactID, contactID)
		}
	}
	if cache.invalidates != 1 {
		t.Fatalf("cache invalidates = %d, want 1", cache.invalidates)
	}
	if _, ok := cache.groups[contactID]; ok {
		t.Fatalf("stale cached groups survived intake")
	}

	var body dto.MailItemResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Status != string(domain.StatusReceived) {
		t.Fatalf("status = %q, want the Received default", body.Status)
	}
	if body.Quantity != 1 {
		t.Fatalf("quantity = %d, want the default 1", body.Quantity)
	}
	if body.CalendarDay != "2025-12-09" {
		t.Fatalf("calendar_day = %q, want 2025-12-09", body.CalendarDay)
	}
}

func TestIntakeLetterOpensNoFee(t *testing.T) {
	fees := newFakeFeeRepo()
	items := &fakeMailItemRepo{fees: fees}
	h := &MailItemHandler{Items: items, Policy: testPolicy(t), Log: testLogger()}

	req := postJSON(t, "/mailitems", dto.CreateMailItemRequest{
		ContactID:  uuid.NewString(),
		ItemType:   string(domain.ItemTypeLetter),
		ReceivedAt: "2025-12-09T10:30:00",
	})
	res := httptest.NewRecorder()
	h.Intake(res, req)

	if res.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", res.Code, res.Body.String())
	}
	if len(fees.fees) != 0 {
		t.Fatalf("letter intake opened %d fees", len(fees.fees))
	}
}

func TestIntakeFeeFailureLeavesNoOrphanItem(t *testing.T) {
	fees := newFakeFeeRepo()
	fees.err = errors.New("fees table unavailable")
	items := &fakeMailItemRepo{fees: fees}

	h := &MailItemHandler{Items: items, Policy: testPolicy(t), Log: testLogger()}

	req := postJSON(t, "/mailitems", dto.CreateMailItemRequest{
		ContactID:  uuid.NewString(),
		ItemType:   string(domain.ItemTypePackage),
		ReceivedAt: "2025-12-09T10:30:00",
	})
	res := httptest.NewRecorder()
	h.Intake(res, req)

	if res.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 (body %s)", res.Code, res.Body.String())
	}
	if len(items.items) != 0 {
		t.Fatalf("item persisted without its pending fee")
	}
	if len(fees.fees) != 0 {
		t.Fatalf("fee persisted despite failed intake")
	}
}

func TestIntakeMalformedInstantRejected(t *testing.T) {
	h := &MailItemHandler{
		Items:  &fakeMailItemRepo{},
		Policy: testPolicy(t),
		Log:    testLogger(),
	}

	req := postJSON(t, "/mailitems", dto.CreateMailItemRequest{
		ContactID:  uuid.NewString(),
		ItemType:   string(domain.ItemTypePackage),
		ReceivedAt: "12/09/2025 10:30 AM",
	})
	res := httptest.NewRecorder()
	h.Intake(res, req)

	if res.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422 (body %s)", res.Code, res.Body.String())
	}
}

func TestIntakeNegativeQuantityRejected(t *testing.T) {
	h := &MailItemHandler{
		Items:  &fakeMailItemRepo{},
		Policy: testPolicy(t),
		Log:    testLogger(),
	}

	req := postJSON(t, "/mailitems", dto.CreateMailItemRequest{
		ContactID:  uuid.NewString(),
		ItemType:   string(domain.ItemTypeLetter),
		ReceivedAt: "2025-12-09T10:30:00",
		Quantity:   -2,
	})
	res := httptest.NewRecorder()
	h.Intake(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body %s)", res.Code, res.Body.String())
	}
}

func TestListMailItemsFiltersByDayRange(t *testing.T) {
	contactID := uuid.New()
	inRange := domain.MailItem{
		MailItemID: uuid.New(),
		ContactID:  contactID,
		Type:       domain.ItemTypeLetter,
		Status:     domain.StatusReceived,
		ReceivedAt: nyTime(t, 2025, time.December, 8, 9, 0),
		Quantity:   1,
	}
	before := inRange
	before.MailItemID = uuid.New()
	before.ReceivedAt = nyTime(t, 2025, time.December, 5, 9, 0)

	h := &MailItemHandler{
		Items:  &fakeMailItemRepo{items: []domain.MailItem{inRange, before}},
		Policy: testPolicy(t),
		Log:    testLogger(),
	}

	req := httptest.NewRequest(http.MethodGet, "/mailitems?from=2025-12-07&to=2025-12-09", nil)
	res := httptest.NewRecorder()
	h.List(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", res.Code, res.Body.String())
	}
	var body dto.ListMailItemsResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.MailItems) != 1 {
		t.Fatalf("got %d items, want 1", len(body.MailItems))
	}
	if body.MailItems[0].MailItemID != inRange.MailItemID.String() {
		t.Fatalf("wrong item survived the range filter")
	}
}

func TestGroupsForContactUsesCache(t *testing.T) {
	contactID := uuid.New()
	items := []domain.MailItem{
		{
			MailItemID: uuid.New(),
			ContactID:  contactID,
			Type:       domain.ItemTypeLetter,
			Status:     domain.StatusReceived,
			ReceivedAt: nyTime(t, 2025, time.December, 9, 9, 0),
			Quantity:   1,
		},
		{
			MailItemID: uuid.New(),
			ContactID:  contactID,
			Type:       domain.ItemTypeLetter,
			Status:     domain.StatusNotified,
			ReceivedAt: nyTime(t, 2025, time.December, 9, 14, 0),
			Quantity:   2,
		},
	}
	repo := &fakeMailItemRepo{items: items}
	cache := newFakeGroupCache()

	h := &MailItemHandler{
		Items:  repo,
		Cache:  cache,
		Policy: testPolicy(t),
		Log:    testLogger(),
	}

	url := "/mailitems/groups?contact_id=" + contactID.String()

	// First read computes and fills the cache.
	res := httptest.NewRecorder()
	h.Groups(res, httptest.NewRequest(http.MethodGet, url, nil))
	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", res.Code, res.Body.String())
	}
	if cache.sets != 1 {
		t.Fatalf("cache sets = %d, want 1", cache.sets)
	}

	var body dto.GroupedMailResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.ByDay) != 1 {
		t.Fatalf("got %d groups, want 1", len(body.ByDay))
	}
	if body.ByDay[0].TotalQuantity != 3 {
		t.Fatalf("total_quantity = %d, want 3", body.ByDay[0].TotalQuantity)
	}
	if body.ByDay[0].DisplayStatus != "Mixed (Notified, Received)" {
		t.Fatalf("display_status = %q", body.ByDay[0].DisplayStatus)
	}

	// Second read is served from the cache, not the repository.
	repo.items = nil
	res = httptest.NewRecorder()
	h.Groups(res, httptest.NewRequest(http.MethodGet, url, nil))
	if res.Code != http.StatusOK {
		t.Fatalf("cached read status = %d, want 200", res.Code)
	}
	var cached dto.GroupedMailResponse
	if err := json.NewDecoder(res.Body).Decode(&cached); err != nil {
		t.Fatalf("decode cached response: %v", err)
	}
	if len(cached.ByDay) != 1 || cached.ByDay[0].TotalQuantity != 3 {
		t.Fatalf("cached group lost: %+v", cached.ByDay)
	}
}

func TestGroupsAllContactsView(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()
	items := []domain.MailItem{
		{
			MailItemID: uuid.New(),
			ContactID:  alice,
			Type:       domain.ItemTypePackage,
			Status:     domain.StatusReceived,
			ReceivedAt: nyTime(t, 2025, time.December, 9, 9, 0),
			Quantity:   1,
		},
		{
			MailItemID: uuid.New(),
			ContactID:  bob,
			Type:       domain.ItemTypePackage,
			Status:     domain.StatusReceived,
			ReceivedAt: nyTime(t, 2025, time.December, 9, 10, 0),
			Quantity:   1,
		},
	}

	h := &MailItemHandler{
		Items:  &fakeMailItemRepo{items: items},
		Policy: testPolicy(t),
		Log:    testLogger(),
	}

	res := httptest.NewRecorder()
	h.Groups(res, httptest.NewRequest(http.MethodGet, "/mailitems/groups", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", res.Code, res.Body.String())
	}

	var body dto.GroupedMailResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// Same day and type but different contacts stay separate.
	if len(body.Groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(body.Groups))
	}
}

func TestGroupsInvalidContactIDRejected(t *testing.T) {
	h := &MailItemHandler{
		Items:  &fakeMailItemRepo{},
		Policy: testPolicy(t),
		Log:    testLogger(),
	}

	res := httptest.NewRecorder()
	h.Groups(res, httptest.NewRequest(http.MethodGet, "/mailitems/groups?contact_id=not-a-uuid", nil))
	if res.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", res.Code)
	}
}

func TestNotificationSummaryEndpoint(t *testing.T) {
	contactID := uuid.New()
	contacts := newFakeContactRepo(domain.Contact{ContactID: contactID, Name: "Ana Flores", MailboxNo: "142"})

	items := []domain.MailItem{
		{
			MailItemID: uuid.New(),
			ContactID:  contactID,
			Type:       domain.ItemTypeLetter,
			Status:     domain.StatusReceived,
			ReceivedAt: nyTime(t, 2025, time.December, 8, 9, 0),
			Quantity:   2,
		},
		{
			MailItemID: uuid.New(),
			ContactID:  contactID,
			Type:       domain.ItemTypePackage,
			Status:     domain.StatusReceived,
			ReceivedAt: nyTime(t, 2025, time.December, 9, 11, 0),
			Quantity:   1,
		},
	}
	fee := pendingFee(contactID, items[1].ReceivedAt, 400, 2)

	h := &NotificationHandler{
		Items:    &fakeMailItemRepo{items: items},
		Fees:     newFakeFeeRepo(fee),
		Contacts: contacts,
		Policy:   testPolicy(t),
		Log:      testLogger(),
	}

	req := httptest.NewRequest(http.MethodGet, "/notifications/summary?contact_id="+contactID.String(), nil)
	res := httptest.NewRecorder()
	h.Summary(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", res.Code, res.Body.String())
	}
	var body dto.NotificationSummaryResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.TotalQuantity != 3 {
		t.Fatalf("total_quantity = %d, want 3", body.TotalQuantity)
	}
	if body.OutstandingCents != 400 || body.Outstanding != "4.00" {
		t.Fatalf("outstanding = %d / %q, want 400 / 4.00", body.OutstandingCents, body.Outstanding)
	}
	if body.NewestDay != "2025-12-09" || body.OldestDay != "2025-12-08" {
		t.Fatalf("day range = %q..%q", body.OldestDay, body.NewestDay)
	}
	if body.CountsByType[string(domain.ItemTypeLetter)] != 2 {
		t.Fatalf("letter count = %d, want 2", body.CountsByType[string(domain.ItemTypeLetter)])
	}
}

func TestNotificationSummaryUnknownContact(t *testing.T) {
	h := &NotificationHandler{
		Items:    &fakeMailItemRepo{},
		Fees:     newFakeFeeRepo(),
		Contacts: newFakeContactRepo(),
		Policy:   testPolicy(t),
		Log:      testLogger(),
	}

	req := httptest.NewRequest(http.MethodGet, "/notifications/summary?contact_id="+uuid.NewString(), nil)
	res := httptest.NewRecorder()
	h.Summary(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", res.Code)
	}
}
