package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"mailcenter-service/internal/api/dto"
	"mailcenter-service/internal/dates"
	"mailcenter-service/internal/domain"
	"mailcenter-service/internal/platform/logger"
	"mailcenter-service/internal/platform/obs"
	"mailcenter-service/internal/ports"
	"mailcenter-service/internal/services"
)

// MailItemHandler exposes intake, listing and grouped views of mail items.
type MailItemHandler struct {
	Items  ports.MailItemRepository
	Cache  ports.GroupCache // optional; nil disables caching
	Policy services.BillingPolicy
	Log    *logger.Logger

	// Now is the clock used for fee snapshots on intake; tests pin it.
	Now func() time.Time
}

func (h *MailItemHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// List returns mail items, optionally filtered by contact and an inclusive
// calendar-day range (?contact_id=&from=YYYY-MM-DD&to=YYYY-MM-DD).
func (h *MailItemHandler) List(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, h.Log, http.MethodGet) {
		return
	}

	filter, err := h.listFilter(r)
	if err != nil {
		writeDomainError(w, r, h.Log, err)
		return
	}

	items, err := h.Items.ListMailItems(r.Context(), filter)
	if err != nil {
		h.Log.Error("list mail items failed", "err", err)
		writeError(w, r, h.Log, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, h.Log, http.StatusOK, dto.ListMailItemsResponse{
		MailItems: dto.MailItemsFromDomain(h.Policy.Calendar, items),
	})
}

func (h *MailItemHandler) listFilter(r *http.Request) (ports.MailItemFilter, error) {
	var filter ports.MailItemFilter

	q := r.URL.Query()
	if raw := q.Get("contact_id"); raw != "" {
		contactID, err := uuid.Parse(raw)
		if err != nil {
			return filter, &domain.ValidationError{Field: "contact_id", Reason: "is not a valid id"}
		}
		filter.ContactID = &contactID
	}
	if raw := q.Get("from"); raw != "" {
		from, err := h.Policy.Calendar.StartOfDay(dates.CalendarDay(raw))
		if err != nil {
			return filter, err
		}
		filter.From = &from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := h.Policy.Calendar.EndOfDay(dates.CalendarDay(raw))
		if err != nil {
			return filter, err
		}
		filter.To = &to
	}
	return filter, nil
}

// Intake records a new mail item. Billable packages open a pending fee
// snapshotted as of "now".
func (h *MailItemHandler) Intake(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, h.Log, http.MethodPost) {
		return
	}

	var req dto.CreateMailItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, "invalid json body")
		return
	}

	contactID, err := uuid.Parse(req.ContactID)
	if err != nil {
		writeDomainError(w, r, h.Log, &domain.ValidationError{Field: "contact_id", Reason: "is not a valid id"})
		return
	}

	receivedAt, err := h.Policy.Calendar.ParseInstant(req.ReceivedAt)
	if err != nil {
		writeDomainError(w, r, h.Log, err)
		return
	}

	status := domain.Status(req.Status)
	if req.Status == "" {
		status = domain.StatusReceived
	}

	item := domain.MailItem{
		MailItemID:  uuid.New(),
		ContactID:   contactID,
		Type:        domain.ItemType(req.ItemType),
		Status:      status,
		ReceivedAt:  receivedAt,
		Quantity:    req.Quantity,
		Description: req.Description,
	}
	if err := item.Validate(); err != nil {
		writeDomainError(w, r, h.Log, err)
		return
	}

	// Item and opened fee persist in one transaction, so a failure never
	// strands a billable package without its pending fee.
	var fee *domain.Fee
	if item.Billable() {
		opened := h.Policy.NewFee(item, h.now())
		fee = &opened
	}
	if err := h.Items.IntakeMailItem(r.Context(), item, fee); err != nil {
		h.Log.Error("intake mail item failed", "mail_item_id", item.MailItemID, "err", err)
		writeError(w, r, h.Log, http.StatusInternalServerError, "internal server error")
		return
	}

	// Grouped views for this contact are stale now.
	if h.Cache != nil {
		if err := h.Cache.InvalidateContact(r.Context(), contactID); err != nil {
			h.Log.Warn("group cache invalidate failed", "contact_id", contactID, "err", err)
		}
	}

	writeJSON(w, r, h.Log, http.StatusCreated, dto.MailItemFromDomain(h.Policy.Calendar, item))
}

// Groups returns grouped aggregates. With ?contact_id= the single-contact
// day/type view is served (through the cache when one is wired); without it
// the full contact/day/type view.
func (h *MailItemHandler) Groups(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, h.Log, http.MethodGet) {
		return
	}
	defer obs.Time(r.Context(), h.Log, "group mail items")(nil)

	raw := r.URL.Query().Get("contact_id")
	if raw == "" {
		h.groupsAllContacts(w, r)
		return
	}

	contactID, err := uuid.Parse(raw)
	if err != nil {
		writeDomainError(w, r, h.Log, &domain.ValidationError{Field: "contact_id", Reason: "is not a valid id"})
		return
	}
	h.groupsForContact(w, r, contactID)
}

func (h *MailItemHandler) groupsAllContacts(w http.ResponseWriter, r *http.Request) {
	items, err := h.Items.ListMailItems(r.Context(), ports.MailItemFilter{})
	if err != nil {
		h.Log.Error("list mail items failed", "err", err)
		writeError(w, r, h.Log, http.StatusInternalServerError, "internal server error")
		return
	}

	groups, skipped := services.GroupByContactDayType(h.Policy.Calendar, items)
	h.logSkipped(skipped)

	res := dto.GroupedMailResponse{Skipped: dto.SkippedFromDomain(skipped)}
	res.Groups = make([]dto.GroupResponse, 0, len(groups))
	for _, g := range groups {
		res.Groups = append(res.Groups, dto.GroupFromDomain(h.Policy.Calendar, g))
	}
	writeJSON(w, r, h.Log, http.StatusOK, res)
}

func (h *MailItemHandler) groupsForContact(w http.ResponseWriter, r *http.Request, contactID uuid.UUID) {
	if h.Cache != nil {
		cached, hit, err := h.Cache.GetGroups(r.Context(), contactID)
		if err != nil {
			h.Log.Warn("group cache get failed", "contact_id", contactID, "err", err)
		} else if hit {
			writeJSON(w, r, h.Log, http.StatusOK, h.simpleGroupsResponse(cached, nil))
			return
		}
	}

	items, err := h.Items.ListMailItems(r.Context(), ports.MailItemFilter{ContactID: &contactID})
	if err != nil {
		h.Log.Error("list mail items failed", "contact_id", contactID, "err", err)
		writeError(w, r, h.Log, http.StatusInternalServerError, "internal server error")
		return
	}

	groups, skipped := services.GroupByDayType(h.Policy.Calendar, items)
	h.logSkipped(skipped)

	if h.Cache != nil && len(skipped) == 0 {
		if err := h.Cache.SetGroups(r.Context(), contactID, groups); err != nil {
			h.Log.Warn("group cache set failed", "contact_id", contactID, "err", err)
		}
	}

	writeJSON(w, r, h.Log, http.StatusOK, h.simpleGroupsResponse(groups, skipped))
}

func (h *MailItemHandler) simpleGroupsResponse(groups []domain.SimpleGroup, skipped []services.SkippedItem) dto.GroupedMailResponse {
	res := dto.GroupedMailResponse{Skipped: dto.SkippedFromDomain(skipped)}
	res.ByDay = make([]dto.SimpleGroupResponse, 0, len(groups))
	for _, g := range groups {
		res.ByDay = append(res.ByDay, dto.SimpleGroupFromDomain(h.Policy.Calendar, g))
	}
	return res
}

func (h *MailItemHandler) logSkipped(skipped []services.SkippedItem) {
	for _, s := range skipped {
		h.Log.Warn("mail item skipped during grouping", "mail_item_id", s.MailItemID, "err", s.Err)
	}
}
