package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/openems/bed-allocation/internal/model"
	"github.com/openems/bed-allocation/internal/repository"
)

// SOSHandler serves citizen emergency report intake and triage.
type SOSHandler struct {
	Repo *repository.SOSRepo
}

// sosReportRequest is the intake body.  OfflineID is the client-side
// idempotency key for reports captured without connectivity.
type sosReportRequest struct {
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	EmergencyType   string  `json:"emergency_type"`
	Message         string  `json:"message"`
	ClientTimestamp int64   `json:"client_timestamp"`
	OfflineID       *string `json:"offline_id"`
}

type sosStatusRequest struct {
	Status string `json:"status"`
}

// Report accepts a new emergency report.  Replaying a report with an
// already-synced offline_id returns the existing row with 200 instead
// of creating a duplicate; fresh reports return 201.
func (h *SOSHandler) Report(c echo.Context) error {
	var req sosReportRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "coordinates out of range"})
	}
	if req.OfflineID != nil && strings.TrimSpace(*req.OfflineID) == "" {
		req.OfflineID = nil
	}

	report, created, err := h.Repo.Create(c.Request().Context(), &model.SOSReport{
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		EmergencyType:   req.EmergencyType,
		Message:         req.Message,
		ClientTimestamp: req.ClientTimestamp,
		OfflineID:       req.OfflineID,
	})
	if err != nil {
		log.Error().Err(err).Msg("sos report insert failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	return c.JSON(status, report)
}

// List returns all reports, newest first.  An optional status query
// param narrows the result.
func (h *SOSHandler) List(c echo.Context) error {
	status := strings.ToUpper(c.QueryParam("status"))
	if status != "" && !validSOSStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status filter"})
	}
	reports, err := h.Repo.List(c.Request().Context(), status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": reports, "count": len(reports)})
}

// ListPending returns only reports still awaiting triage.
func (h *SOSHandler) ListPending(c echo.Context) error {
	reports, err := h.Repo.List(c.Request().Context(), model.SOSPending)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": reports, "count": len(reports)})
}

// UpdateStatus moves a report through triage (HANDLED or DISMISSED).
func (h *SOSHandler) UpdateStatus(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req sosStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if !validSOSStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be PENDING, HANDLED or DISMISSED"})
	}

	if err := h.Repo.UpdateStatus(c.Request().Context(), id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "report not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	report, err := h.Repo.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, report)
}

func validSOSStatus(s string) bool {
	switch s {
	case model.SOSPending, model.SOSHandled, model.SOSDismissed:
		return true
	}
	return false
}
