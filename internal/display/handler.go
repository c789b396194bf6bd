package display

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/telemetry"
	"github.com/go-chi/chi/v5"

	"github.com/baristaclub/barista/pkg/enums/orderstatus"
)

// Handler serves the touchscreen clients: tab views over the current
// snapshot, session state, and the complete action.
type Handler struct {
	store       *Store
	coordinator *Coordinator
	refresher   Refresher
	session     *Session
	logger      aqm.Logger
	tlm         *telemetry.HTTP
}

func NewHandler(store *Store, coordinator *Coordinator, refresher Refresher, session *Session, logger aqm.Logger) *Handler {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Handler{
		store:       store,
		coordinator: coordinator,
		refresher:   refresher,
		session:     session,
		logger:      logger,
		tlm:         telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
		r.Post("/{id}/complete", h.CompleteOrder)
	})
	r.Get("/stats", h.GetStats)
	r.Get("/session", h.GetSession)
	r.Post("/refresh", h.ForceRefresh)
}

func (h *Handler) log(r *http.Request) aqm.Logger {
	return h.logger.With("request_id", aqm.RequestIDFrom(r.Context()))
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrders")
	defer finish()

	tab, ok := ParseTab(r.URL.Query().Get("tab"))
	if !ok {
		aqm.RespondError(w, http.StatusBadRequest, "Invalid tab")
		return
	}

	orders := h.store.ByTab(tab)
	aqm.Respond(w, http.StatusOK, map[string]interface{}{
		"tab":    tab,
		"orders": orders,
	}, nil)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()

	id := chi.URLParam(r, "id")
	ord, ok := h.store.Get(id)
	if !ok {
		aqm.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	aqm.Respond(w, http.StatusOK, ord, nil)
}

func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CompleteOrder")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	err := h.coordinator.Complete(ctx, id, orderstatus.Statuses.Completed)
	if err == nil {
		ord, _ := h.store.Get(id)
		aqm.Respond(w, http.StatusOK, ord, nil)
		return
	}

	var conflict *ConflictError
	switch {
	case errors.As(err, &conflict):
		aqm.RespondError(w, http.StatusConflict,
			"Order was updated elsewhere. Refreshing orders. Please try again.")
	case errors.Is(err, ErrUnsupportedTransition):
		aqm.RespondError(w, http.StatusBadRequest,
			"Invalid status update. Only 'completed' is allowed.")
	case errors.Is(err, ErrOrderNotFound):
		aqm.RespondError(w, http.StatusNotFound,
			"Could not find the order to update.")
	case errors.Is(err, ErrMissingVersion):
		aqm.RespondError(w, http.StatusConflict,
			"Order version is missing. Please refresh.")
	default:
		log.Errorf("cannot complete order %s: %v", id, err)
		aqm.RespondError(w, http.StatusBadGateway,
			fmt.Sprintf("Failed to update order: %v. Please try refreshing.", err))
	}
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetStats")
	defer finish()

	aqm.Respond(w, http.StatusOK, h.store.Stats(), nil)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetSession")
	defer finish()

	aqm.Respond(w, http.StatusOK, h.session.State(), nil)
}

func (h *Handler) ForceRefresh(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ForceRefresh")
	defer finish()
	log := h.log(r)

	if err := h.refresher.Refresh(r.Context()); err != nil {
		log.Errorf("manual refresh failed: %v", err)
		aqm.RespondError(w, http.StatusBadGateway, "Refresh failed")
		return
	}

	aqm.Respond(w, http.StatusOK, h.session.State(), nil)
}
