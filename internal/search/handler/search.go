package handler

import (
	"net/http"

	listingsvc "courtside/internal/listings/service"
	"courtside/internal/search/service"
	apperrors "courtside/pkg/errors"
	httputil "courtside/pkg/http"
	"courtside/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type SearchHandler struct {
	service service.SearchService
	log     *logger.Logger
}

func NewSearchHandler(service service.SearchService, log *logger.Logger) *SearchHandler {
	return &SearchHandler{
		service: service,
		log:     log,
	}
}

// Nearby is the composed discovery endpoint: geo search plus bookable
// windows in one round trip.
func (h *SearchHandler) Nearby(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	lat, latSet, err := httputil.ExtractFloat(r, "lat")
	if err == nil && !latSet {
		err = apperrors.InvalidInput("lat query parameter is required")
	}
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Nearby", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	lng, lngSet, err := httputil.ExtractFloat(r, "lng")
	if err == nil && !lngSet {
		err = apperrors.InvalidInput("lng query parameter is required")
	}
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Nearby", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	radius, radiusSet, err := httputil.ExtractFloat(r, "radius")
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Nearby", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	from, to, err := httputil.ExtractTimeWindow(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Nearby", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Nearby", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	results, err := h.service.Nearby(r.Context(), service.NearbyQuery{
		SearchQuery: listingsvc.SearchQuery{
			Lat:       lat,
			Lng:       lng,
			Radius:    radius,
			RadiusSet: radiusSet,
			CourtType: r.URL.Query().Get("court_type"),
			Limit:     limit,
			Offset:    offset,
		},
		From: from,
		To:   to,
	})
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Nearby", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, results); err != nil {
		h.log.Error("failed to write success response", "handler", "Nearby", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SearchHandler) ListingDetail(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	from, to, err := httputil.ExtractTimeWindow(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListingDetail", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	detail, err := h.service.ListingDetail(r.Context(), id, from, to)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListingDetail", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, detail); err != nil {
		h.log.Error("failed to write success response", "handler", "ListingDetail", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SearchHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/search/nearby", h.Nearby)
	router.GET("/api/v1/search/listings/:id", h.ListingDetail)
}
