package handler

import (
	"encoding/json"
	"net/http"

	"courtside/internal/payments/consumer"
	httputil "courtside/pkg/http"
	"courtside/pkg/logger"
	"courtside/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// WebhookHandler is the HTTP fallback path for payment outcomes, for
// deployments where the payment collaborator calls back over HTTPS instead
// of Kafka. The signature verification middleware guards the route.
type WebhookHandler struct {
	bookings consumer.BookingLifecycle
	log      *logger.Logger
}

func NewWebhookHandler(bookings consumer.BookingLifecycle, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		bookings: bookings,
		log:      log,
	}
}

type webhookPayload struct {
	EventType string                `json:"event_type"`
	Data      consumer.PaymentEvent `json:"data"`
}

func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid webhook payload",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Receive", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}
	if payload.Data.BookingID == "" {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Webhook payload missing booking_id",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Receive", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	var err error
	switch payload.EventType {
	case consumer.EventPaymentSucceeded:
		err = h.bookings.Confirm(r.Context(), payload.Data.BookingID)
	case consumer.EventPaymentFailed:
		err = h.bookings.Cancel(r.Context(), model.ActorPayments, "", payload.Data.BookingID)
	default:
		// Acknowledge event types this service does not act on so the
		// sender stops redelivering them.
		h.log.Warn("Ignoring unknown webhook event type", "event_type", payload.EventType)
		httputil.WriteNoContent(w)
		return
	}

	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Receive", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *WebhookHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/webhooks/payments", h.Receive)
}
