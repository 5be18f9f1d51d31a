package handler

import (
	"encoding/json"
	"net/http"

	"courtside/internal/availability/service"
	httputil "courtside/pkg/http"
	"courtside/pkg/logger"
	"courtside/pkg/middleware"
	"courtside/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type SlotHandler struct {
	service service.SlotService
	log     *logger.Logger
}

func NewSlotHandler(service service.SlotService, log *logger.Logger) *SlotHandler {
	return &SlotHandler{
		service: service,
		log:     log,
	}
}

func (h *SlotHandler) Create(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var slot model.AvailabilitySlot
	if err := json.NewDecoder(r.Body).Decode(&slot); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	// The listing ID comes from the path, never the body.
	slot.ListingID = ps.ByName("id")

	actorID := middleware.IdentityFromContext(r.Context())
	if err := h.service.CreateSlot(r.Context(), actorID, &slot); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, slot); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *SlotHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	slotID := ps.ByName("slotId")

	actorID := middleware.IdentityFromContext(r.Context())
	if err := h.service.DeleteSlot(r.Context(), actorID, slotID); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

// List returns the listing's slots in an optional from/to window, each slot
// carrying the free sub-intervals left by active bookings.
func (h *SlotHandler) List(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listingID := ps.ByName("id")

	from, to, err := httputil.ExtractTimeWindow(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	slots, err := h.service.ListSlots(r.Context(), listingID, from, to)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, slots); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/listings/id/:id/slots", h.Create)
	router.GET("/api/v1/listings/id/:id/slots", h.List)
	router.DELETE("/api/v1/listings/id/:id/slots/:slotId", h.Delete)
}
