package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"

	"mailcenter-service/internal/api/dto"
	"mailcenter-service/internal/domain"
	"mailcenter-service/internal/platform/logger"
	"mailcenter-service/internal/platform/obs"
	"mailcenter-service/internal/ports"
	"mailcenter-service/internal/services"
)

// FeeHandler exposes fee listing, settlement and recalculation.
type FeeHandler struct {
	Fees   ports.FeeRepository
	Policy services.BillingPolicy
	Log    *logger.Logger

	// Now supplies the settlement clock; tests pin it.
	Now func() time.Time
}

func (h *FeeHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// List returns fees, optionally filtered (?contact_id=&status=pending).
// Pending fees are recalculated against as_of (default now) before being
// returned, so stale day-count snapshots never reach the frontend; the
// refreshed snapshot is persisted.
func (h *FeeHandler) List(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, h.Log, http.MethodGet) {
		return
	}
	defer obs.Time(r.Context(), h.Log, "list fees")(nil)

	var filter ports.FeeFilter
	q := r.URL.Query()
	if raw := q.Get("contact_id"); raw != "" {
		contactID, err := uuid.Parse(raw)
		if err != nil {
			writeDomainError(w, r, h.Log, &domain.ValidationError{Field: "contact_id", Reason: "is not a valid id"})
			return
		}
		filter.ContactID = &contactID
	}
	filter.PendingOnly = q.Get("status") == string(domain.FeeStatusPending)

	asOf := h.now()
	if raw := q.Get("as_of"); raw != "" {
		parsed, err := h.Policy.Calendar.ParseInstant(raw)
		if err != nil {
			writeDomainError(w, r, h.Log, err)
			return
		}
		asOf = parsed
	}

	fees, err := h.Fees.ListFees(r.Context(), filter)
	if err != nil {
		h.Log.Error("list fees failed", "err", err)
		writeError(w, r, h.Log, http.StatusInternalServerError, "internal server error")
		return
	}

	for i, fee := range fees {
		if !fee.IsPending() {
			continue
		}
		fresh, err := h.Policy.Recalculate(fee, asOf)
		if err != nil {
			h.Log.Warn("recalculate on read failed", "fee_id", fee.FeeID, "err", err)
			continue
		}
		if fresh.DaysCharged == fee.DaysCharged {
			continue
		}
		if err := h.Fees.UpdateSnapshot(r.Context(), fresh); err != nil {
			// Lost the conditional update to a concurrent settlement; the
			// stored row wins.
			h.Log.Warn("persist recalculated snapshot failed", "fee_id", fee.FeeID, "err", err)
			continue
		}
		fees[i] = fresh
	}

	writeJSON(w, r, h.Log, http.StatusOK, dto.ListFeesResponse{
		Fees: dto.FeesFromDomain(h.Policy.Calendar, fees),
	})
}

// Outstanding reports the pending total and per-contact totals.
func (h *FeeHandler) Outstanding(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, h.Log, http.MethodGet) {
		return
	}

	fees, err := h.Fees.ListFees(r.Context(), ports.FeeFilter{PendingOnly: true})
	if err != nil {
		h.Log.Error("list pending fees failed", "err", err)
		writeError(w, r, h.Log, http.StatusInternalServerError, "internal server error")
		return
	}

	total := services.SumOutstandingCents(fees)
	byContact := services.SumByContactCents(fees)

	res := dto.OutstandingFeesResponse{
		TotalCents: total,
		Total:      dto.DollarsFromCents(total),
		ByContact:  make([]dto.ContactTotal, 0, len(byContact)),
	}
	for contactID, cents := range byContact {
		res.ByContact = append(res.ByContact, dto.ContactTotal{
			ContactID:  contactID.String(),
			TotalCents: cents,
			Total:      dto.DollarsFromCents(cents),
		})
	}
	sort.Slice(res.ByContact, func(i, j int) bool {
		return res.ByContact[i].ContactID < res.ByContact[j].ContactID
	})

	writeJSON(w, r, h.Log, http.StatusOK, res)
}

// Pay settles a pending fee as paid.
func (h *FeeHandler) Pay(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, h.Log, http.MethodPost) {
		return
	}

	var req dto.PayFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, "invalid json body")
		return
	}

	fee, ok := h.loadFee(w, r, req.FeeID)
	if !ok {
		return
	}

	var collectedCents *int64
	if req.CollectedAmount != nil {
		cents := services.CentsFromDollars(*req.CollectedAmount)
		collectedCents = &cents
	}

	paid, err := h.Policy.MarkPaid(fee, h.now(), req.PaymentMethod, collectedCents, req.CollectedBy)
	if err != nil {
		writeDomainError(w, r, h.Log, err)
		return
	}
	if err := h.Fees.Settle(r.Context(), paid); err != nil {
		writeDomainError(w, r, h.Log, err)
		return
	}

	h.Log.Info("fee paid",
		"fee_id", paid.FeeID, "method", paid.PaymentMethod, "collected_cents", *paid.CollectedCents)
	writeJSON(w, r, h.Log, http.StatusOK, dto.FeeFromDomain(h.Policy.Calendar, paid))
}

// Waive settles a pending fee as waived.
func (h *FeeHandler) Waive(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, h.Log, http.MethodPost) {
		return
	}

	var req dto.WaiveFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, "invalid json body")
		return
	}

	fee, ok := h.loadFee(w, r, req.FeeID)
	if !ok {
		return
	}

	waived, err := h.Policy.Waive(fee, h.now(), req.Reason)
	if err != nil {
		writeDomainError(w, r, h.Log, err)
		return
	}
	if err := h.Fees.Settle(r.Context(), waived); err != nil {
		writeDomainError(w, r, h.Log, err)
		return
	}

	h.Log.Info("fee waived", "fee_id", waived.FeeID, "reason", waived.WaiveReason)
	writeJSON(w, r, h.Log, http.StatusOK, dto.FeeFromDomain(h.Policy.Calendar, waived))
}

// Recalculate refreshes one pending fee's snapshot on staff request.
func (h *FeeHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, h.Log, http.MethodPost) {
		return
	}

	var req dto.RecalculateFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, "invalid json body")
		return
	}

	fee, ok := h.loadFee(w, r, req.FeeID)
	if !ok {
		return
	}

	asOf := h.now()
	if req.AsOf != "" {
		parsed, err := h.Policy.Calendar.ParseInstant(req.AsOf)
		if err != nil {
			writeDomainError(w, r, h.Log, err)
			return
		}
		asOf = parsed
	}

	fresh, err := h.Policy.Recalculate(fee, asOf)
	if err != nil {
		writeDomainError(w, r, h.Log, err)
		return
	}
	if err := h.Fees.UpdateSnapshot(r.Context(), fresh); err != nil {
		writeDomainError(w, r, h.Log, err)
		return
	}

	writeJSON(w, r, h.Log, http.StatusOK, dto.FeeFromDomain(h.Policy.Calendar, fresh))
}

func (h *FeeHandler) loadFee(w http.ResponseWriter, r *http.Request, rawID string) (domain.Fee, bool) {
	feeID, err := uuid.Parse(rawID)
	if err != nil {
		writeDomainError(w, r, h.Log, &domain.ValidationError{Field: "fee_id", Reason: "is not a valid id"})
		return domain.Fee{}, false
	}

	fee, err := h.Fees.GetFee(r.Context(), feeID)
	if err != nil {
		writeDomainError(w, r, h.Log, err)
		return domain.Fee{}, false
	}
	return fee, true
}
