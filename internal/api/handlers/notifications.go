package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"mailcenter-service/internal/api/dto"
	"mailcenter-service/internal/domain"
	"mailcenter-service/internal/platform/logger"
	"mailcenter-service/internal/ports"
	"mailcenter-service/internal/services"
)

// NotificationHandler exposes the computed values the email-template layer
// substitutes into customer notifications.
type NotificationHandler struct {
	Items    ports.MailItemRepository
	Fees     ports.FeeRepository
	Contacts ports.ContactRepository
	Policy   services.BillingPolicy
	Log      *logger.Logger
}

// Summary returns one contact's notification values
// (?contact_id= required).
func (h *NotificationHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, h.Log, http.MethodGet) {
		return
	}

	raw := r.URL.Query().Get("contact_id")
	if raw == "" {
		writeDomainError(w, r, h.Log, &domain.ValidationError{Field: "contact_id", Reason: "is required"})
		return
	}
	contactID, err := uuid.Parse(raw)
	if err != nil {
		writeDomainError(w, r, h.Log, &domain.ValidationError{Field: "contact_id", Reason: "is not a valid id"})
		return
	}

	if _, err := h.Contacts.GetContact(r.Context(), contactID); err != nil {
		writeDomainError(w, r, h.Log, err)
		return
	}

	items, err := h.Items.ListMailItems(r.Context(), ports.MailItemFilter{ContactID: &contactID})
	if err != nil {
		h.Log.Error("list mail items failed", "contact_id", contactID, "err", err)
		writeError(w, r, h.Log, http.StatusInternalServerError, "internal server error")
		return
	}
	fees, err := h.Fees.ListFees(r.Context(), ports.FeeFilter{ContactID: &contactID})
	if err != nil {
		h.Log.Error("list fees failed", "contact_id", contactID, "err", err)
		writeError(w, r, h.Log, http.StatusInternalServerError, "internal server error")
		return
	}

	summary, skipped := services.BuildNotificationSummary(h.Policy.Calendar, contactID, items, fees)
	writeJSON(w, r, h.Log, http.StatusOK,
		dto.NotificationSummaryFromDomain(h.Policy.Calendar, summary, skipped))
}
