package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/draftea/order-system/orders-service/application"
	"github.com/draftea/order-system/orders-service/domain"
	"github.com/draftea/order-system/shared/logging"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

// OrderHandlers exposes the coordinator over HTTP
type OrderHandlers struct {
	coordinator *application.Coordinator
}

// NewOrderHandlers creates new order handlers
func NewOrderHandlers(coordinator *application.Coordinator) *OrderHandlers {
	return &OrderHandlers{coordinator: coordinator}
}

// RegisterRoutes registers order routes
func (h *OrderHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/manual-review", h.ListManualReview)
		r.Post("/bulk/status", h.BulkUpdateStatus)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetOrder)
			r.Get("/history", h.GetHistory)
			r.Post("/cancel", h.CancelOrder)
			r.Post("/shipment", h.AttachShipment)
			r.Patch("/status", h.UpdateStatus)
			r.Post("/manual-review/resolve", h.ResolveManualReview)
		})
	})
}

// CreateOrder handles order creation requests
func (h *OrderHandlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var cmd application.CreateOrderCommand
	if !decodeBody(w, r, &cmd) {
		return
	}

	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	cmd.Actor = actor

	order, err := h.coordinator.CreateOrder(r.Context(), &cmd)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// GetOrder handles order retrieval requests
func (h *OrderHandlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.coordinator.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// GetHistory returns the status history of an order
func (h *OrderHandlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.coordinator.GetOrderHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"history": entries})
}

type cancelRequest struct {
	Reason string `json:"reason"`
	Notes  string `json:"notes"`
}

// CancelOrder handles cancellation requests
func (h *OrderHandlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	var body cancelRequest
	if !decodeOptionalBody(w, r, &body) {
		return
	}

	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	resp, err := h.coordinator.CancelOrder(r.Context(), &application.CancelOrderCommand{
		OrderID: chi.URLParam(r, "id"),
		Reason:  body.Reason,
		Notes:   body.Notes,
		Actor:   actor,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// AttachShipment stores carrier and tracking details
func (h *OrderHandlers) AttachShipment(w http.ResponseWriter, r *http.Request) {
	var cmd application.AttachShipmentCommand
	if !decodeBody(w, r, &cmd) {
		return
	}

	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	cmd.OrderID = chi.URLParam(r, "id")
	cmd.Actor = actor

	order, err := h.coordinator.AttachShipment(r.Context(), &cmd)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// UpdateStatus applies one state machine gated transition
func (h *OrderHandlers) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var cmd application.UpdateStatusCommand
	if !decodeBody(w, r, &cmd) {
		return
	}

	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	cmd.OrderID = chi.URLParam(r, "id")
	cmd.Actor = actor

	resp, err := h.coordinator.UpdateStatus(r.Context(), &cmd)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// BulkUpdateStatus applies one transition to many orders; failures are reported per order
func (h *OrderHandlers) BulkUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var cmd application.BulkUpdateStatusCommand
	if !decodeBody(w, r, &cmd) {
		return
	}

	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	cmd.Actor = actor

	results, err := h.coordinator.BulkUpdateStatus(r.Context(), &cmd)
	if err != nil {
		writeError(w, r, err)
		return
	}

	succeeded := 0
	for _, result := range results {
		if result.Success {
			succeeded++
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":     len(results),
		"succeeded": succeeded,
		"failed":    len(results) - succeeded,
		"results":   results,
	})
}

// ListManualReview returns the orders flagged for reconciliation
func (h *OrderHandlers) ListManualReview(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	orders, err := h.coordinator.ListManualReview(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

type resolveRequest struct {
	Notes string `json:"notes"`
}

// ResolveManualReview clears the manual review flag
func (h *OrderHandlers) ResolveManualReview(w http.ResponseWriter, r *http.Request) {
	var body resolveRequest
	if !decodeOptionalBody(w, r, &body) {
		return
	}

	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	order, err := h.coordinator.ResolveManualReview(r.Context(), &application.ResolveManualReviewCommand{
		OrderID: chi.URLParam(r, "id"),
		Notes:   body.Notes,
		Actor:   actor,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// actorFromRequest reads the caller identity set by the gateway. Absent headers yield a
// zero actor and leave the decision to the coordinator.
func actorFromRequest(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor := domain.Actor{ID: r.Header.Get(HeaderActorID)}

	if raw := r.Header.Get(HeaderActorRole); raw != "" {
		role, err := domain.ParseActorRole(raw)
		if err != nil {
			writeError(w, r, err)
			return domain.Actor{}, false
		}
		actor.Role = role
	}

	return actor, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, domain.WrapError(domain.KindValidationFailed, err, "invalid request body"))
		return false
	}
	return true
}

func decodeOptionalBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.ContentLength == 0 {
		return true
	}
	return decodeBody(w, r, v)
}

type errorBody struct {
	Kind    domain.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

// statusFor maps an error kind to the HTTP status code
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidationFailed:
		return http.StatusBadRequest
	case domain.KindPermissionDenied:
		return http.StatusForbidden
	case domain.KindOrderNotFound:
		return http.StatusNotFound
	case domain.KindInvalidTransition, domain.KindNotCancelable, domain.KindVersionConflict,
		domain.KindDuplicateKey, domain.KindDuplicateEvent:
		return http.StatusConflict
	case domain.KindPreconditionFailed, domain.KindInventoryUnavailable:
		return http.StatusUnprocessableEntity
	case domain.KindTransientInfrastructure:
		return http.StatusServiceUnavailable
	case domain.KindPermanentDownstreamFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)

	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request failed", zap.Error(err))
	}

	message := err.Error()
	if kind == "" {
		message = http.StatusText(status)
	}

	writeJSON(w, status, map[string]errorBody{"error": {Kind: kind, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
