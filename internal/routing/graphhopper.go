package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openems/bed-allocation/internal/geo"
	"github.com/openems/bed-allocation/internal/model"
)

const defaultGraphHopperURL = "https://graphhopper.com/api/1/route"

// GraphHopper calls the GraphHopper Directions API and decodes its
// encoded polyline into an explicit path.  All failures (transport,
// non-2xx status, malformed body) are returned as errors; the caller
// is expected to wrap this provider with WithFallback.
type GraphHopper struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewGraphHopper builds a cloud routing client.  The timeout bounds
// the whole request so an unresponsive API degrades to the fallback
// rather than stalling an allocation call.
func NewGraphHopper(apiKey string, timeout time.Duration) *GraphHopper {
	return &GraphHopper{
		client:  &http.Client{Timeout: timeout},
		baseURL: defaultGraphHopperURL,
		apiKey:  apiKey,
	}
}

// graphHopperResponse mirrors the subset of the API response the
// service consumes: one path with distance (meters), time (millis)
// and an encoded points string.
type graphHopperResponse struct {
	Paths []struct {
		Distance float64 `json:"distance"`
		Time     int64   `json:"time"`
		Points   string  `json:"points"`
	} `json:"paths"`
}

func (g *GraphHopper) Route(ctx context.Context, fromLat, fromLon, toLat, toLon float64, profile string) (*model.Route, error) {
	if profile == "" {
		profile = DefaultProfile
	}
	q := url.Values{}
	q.Add("point", fmt.Sprintf("%f,%f", fromLat, fromLon))
	q.Add("point", fmt.Sprintf("%f,%f", toLat, toLon))
	q.Set("profile", profile)
	q.Set("locale", "en")
	q.Set("points_encoded", "true")
	q.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("graphhopper: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graphhopper: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("graphhopper: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var body graphHopperResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("graphhopper: decode response: %w", err)
	}
	if len(body.Paths) == 0 {
		return nil, fmt.Errorf("graphhopper: response contains no paths")
	}

	path := body.Paths[0]
	points, err := geo.DecodePolyline(path.Points)
	if err != nil {
		return nil, fmt.Errorf("graphhopper: %w", err)
	}
	return &model.Route{
		DistanceMeters: path.Distance,
		Duration:       time.Duration(path.Time) * time.Millisecond,
		Points:         points,
		Encoded:        path.Points,
	}, nil
}
