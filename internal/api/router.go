package api

import (
	"net/http"

	"mailcenter-service/internal/api/handlers"
	"mailcenter-service/internal/platform/logger"
	"mailcenter-service/internal/ports"
	"mailcenter-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an
// http.Handler. This is the API composition root (handlers stay unaware
// of concrete adapters).
func NewRouter(
	items ports.MailItemRepository,
	fees ports.FeeRepository,
	contacts ports.ContactRepository,
	cache ports.GroupCache,
	policy services.BillingPolicy,
	log *logger.Logger,
) http.Handler {
	mux := http.NewServeMux()

	itemHandler := &handlers.MailItemHandler{
		Items:  items,
		Cache:  cache,
		Policy: policy,
		Log:    log,
	}
	feeHandler := &handlers.FeeHandler{
		Fees:   fees,
		Policy: policy,
		Log:    log,
	}
	contactHandler := &handlers.ContactHandler{
		Contacts: contacts,
		Log:      log,
	}
	notifyHandler := &handlers.NotificationHandler{
		Items:    items,
		Fees:     fees,
		Contacts: contacts,
		Policy:   policy,
		Log:      log,
	}

	mux.HandleFunc("/health", handlers.Health)

	// /mailitems serves both intake (POST) and listing (GET).
	mux.HandleFunc("/mailitems", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			itemHandler.Intake(w, r)
			return
		}
		itemHandler.List(w, r)
	})
	mux.HandleFunc("/mailitems/groups", itemHandler.Groups)

	mux.HandleFunc("/fees", feeHandler.List)
	mux.HandleFunc("/fees/outstanding", feeHandler.Outstanding)
	mux.HandleFunc("/fees/pay", feeHandler.Pay)
	mux.HandleFunc("/fees/waive", feeHandler.Waive)
	mux.HandleFunc("/fees/recalculate", feeHandler.Recalculate)

	mux.HandleFunc("/contacts", contactHandler.List)
	mux.HandleFunc("/notifications/summary", notifyHandler.Summary)

	return loggingMiddleware(log, mux)
}
