// Package handler exposes the HTTP surface: dispatch, the public
// hospital directory and SOS intake.  Handlers bind JSON, delegate to
// the engine or repositories and translate domain errors into status
// codes; they hold no business logic of their own.
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/openems/bed-allocation/internal/allocation"
)

// AmbulanceHandler serves the dispatch endpoint.
type AmbulanceHandler struct {
	Engine *allocation.Engine
}

// findNearestRequest is the dispatch request body.
type findNearestRequest struct {
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	RequiredBedType string  `json:"required_bed_type"`
	AmbulanceID     string  `json:"ambulance_id"`
}

// FindNearest allocates the nearest hospital bed of the requested
// type to the calling ambulance.  200 carries the match with its
// route; 400 covers a malformed body or unknown bed type; 404 means
// no hospital anywhere holds a free bed of that type.
func (h *AmbulanceHandler) FindNearest(c echo.Context) error {
	var req findNearestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.AmbulanceID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ambulance_id is required"})
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "coordinates out of range"})
	}

	match, err := h.Engine.Allocate(c.Request().Context(), allocation.Request{
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		BedType:     req.RequiredBedType,
		AmbulanceID: req.AmbulanceID,
	})
	switch {
	case errors.Is(err, allocation.ErrUnknownBedType):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": fmt.Sprintf("invalid bed type: %s, allowed values: ICU, VENTILATOR", req.RequiredBedType),
		})
	case errors.Is(err, allocation.ErrNoBedAvailable):
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": fmt.Sprintf("no hospital with available %s beds found within global search",
				strings.ToUpper(strings.TrimSpace(req.RequiredBedType))),
		})
	case err != nil:
		log.Error().Err(err).Str("ambulance_id", req.AmbulanceID).Msg("allocation failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "allocation failed"})
	}
	return c.JSON(http.StatusOK, match)
}
