package handlers

import (
	"net/http"

	"mailcenter-service/internal/api/dto"
	"mailcenter-service/internal/platform/logger"
	"mailcenter-service/internal/ports"
)

// ContactHandler exposes read-only directory endpoints.
type ContactHandler struct {
	Contacts ports.ContactRepository
	Log      *logger.Logger
}

func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, h.Log, http.MethodGet) {
		return
	}

	contacts, err := h.Contacts.ListContacts(r.Context())
	if err != nil {
		h.Log.Error("list contacts failed", "err", err)
		writeError(w, r, h.Log, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListContactsResponse{
		Contacts: make([]dto.ContactResponse, 0, len(contacts)),
	}
	for _, c := range contacts {
		res.Contacts = append(res.Contacts, dto.ContactFromDomain(c))
	}

	writeJSON(w, r, h.Log, http.StatusOK, res)
}
