package handler

import (
	"errors"
	"math"
	"net/http"
	"sort"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/openems/bed-allocation/internal/geo"
	"github.com/openems/bed-allocation/internal/model"
	"github.com/openems/bed-allocation/internal/repository"
)

// Directory listing guard rails.
const (
	defaultPageSize  = 50
	maxPageSize      = 200
	defaultNearbyKm  = 50.0
	maxNearbyKm      = 500.0
	maxSearchResults = 100
	kmPerDegreeLat   = 111.0
)

// HospitalHandler serves the public hospital directory.
type HospitalHandler struct {
	Repo *repository.HospitalRepo
}

// nearbyHospital is a directory row annotated with its distance from
// the query point.
type nearbyHospital struct {
	model.Hospital
	DistanceKm float64 `json:"distance_km"`
}

// List returns a page of the directory.  Supported query filters:
// state, district, category, min_beds, plus limit/offset pagination.
func (h *HospitalHandler) List(c echo.Context) error {
	f := repository.ListFilter{
		State:    c.QueryParam("state"),
		District: c.QueryParam("district"),
		Category: c.QueryParam("category"),
		MinBeds:  queryInt(c, "min_beds", 0),
		Limit:    queryInt(c, "limit", defaultPageSize),
		Offset:   queryInt(c, "offset", 0),
	}
	if f.Limit < 1 || f.Limit > maxPageSize {
		f.Limit = defaultPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	hospitals, err := h.Repo.List(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": hospitals, "count": len(hospitals)})
}

// GetByID returns one directory entry.
func (h *HospitalHandler) GetByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	hospital, err := h.Repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hospital not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, hospital)
}

// Nearby returns geocoded hospitals within radius_km of (lat, lon),
// sorted by distance ascending.  The box query overshoots, so each
// row is re-checked against the true great-circle distance.
func (h *HospitalHandler) Nearby(c echo.Context) error {
	lat, err1 := strconv.ParseFloat(c.QueryParam("lat"), 64)
	lon, err2 := strconv.ParseFloat(c.QueryParam("lon"), 64)
	if err1 != nil || err2 != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "lat and lon query params are required"})
	}
	radiusKm := defaultNearbyKm
	if s := c.QueryParam("radius_km"); s != "" {
		r, err := strconv.ParseFloat(s, 64)
		if err != nil || r <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid radius_km"})
		}
		radiusKm = math.Min(r, maxNearbyKm)
	}

	// Degrees of longitude shrink with latitude; clamp the cosine so
	// polar queries stay finite.
	dLat := radiusKm / kmPerDegreeLat
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	dLon := radiusKm / (kmPerDegreeLat * cosLat)

	hospitals, err := h.Repo.GeocodedWithinBox(c.Request().Context(), lat-dLat, lat+dLat, lon-dLon, lon+dLon)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	out := make([]nearbyHospital, 0, len(hospitals))
	for _, hosp := range hospitals {
		if !hosp.Geocoded() {
			continue
		}
		d := geo.DistanceKm(lat, lon, *hosp.Latitude, *hosp.Longitude)
		if d <= radiusKm {
			out = append(out, nearbyHospital{Hospital: hosp, DistanceKm: d})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })

	return c.JSON(http.StatusOK, echo.Map{"items": out, "count": len(out)})
}

// Search runs a keyword search across name, location, state, district
// and address.
func (h *HospitalHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "q query param is required"})
	}
	hospitals, err := h.Repo.Search(c.Request().Context(), q, maxSearchResults)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": hospitals, "count": len(hospitals)})
}

func queryInt(c echo.Context, name string, def int) int {
	s := c.QueryParam(name)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
