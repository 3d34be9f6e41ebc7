// Package nominatim geocodes place names to boundary polygons using the OpenStreetMap Nominatim
// search API.
package nominatim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const DEFAULT_ENDPOINT string = "https://nominatim.openstreetmap.org"

// Nominatim requires an identifying User-Agent for every request.
const DEFAULT_USER_AGENT string = "go-sidewalk-maps/regions"

// The number of candidate results to request. Nominatim may rank a node (a Point) ahead of the
// administrative boundary so more than one result is needed to find a polygon.
const DEFAULT_LIMIT int = 50

var ErrNotFound = errors.New("No results found")

type Geocoder struct {
	client     *http.Client
	endpoint   string
	user_agent string
}

func NewGeocoder(client *http.Client, endpoint string, user_agent string) *Geocoder {

	if client == nil {
		client = http.DefaultClient
	}

	if endpoint == "" {
		endpoint = DEFAULT_ENDPOINT
	}

	if user_agent == "" {
		user_agent = DEFAULT_USER_AGENT
	}

	g := &Geocoder{
		client:     client,
		endpoint:   strings.TrimRight(endpoint, "/"),
		user_agent: user_agent,
	}

	return g
}

// Geocode returns the boundary for the best match for 'query' as a FeatureCollection with a single feature. The
// best match is the highest ranked result whose geometry is a Polygon or MultiPolygon.
func (g *Geocoder) Geocode(ctx context.Context, query string) (*geojson.FeatureCollection, error) {

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "geojson")
	params.Set("polygon_geojson", "1")
	params.Set("limit", strconv.Itoa(DEFAULT_LIMIT))

	search_url := fmt.Sprintf("%s/search?%s", g.endpoint, params.Encode())

	slog.Debug("Geocode", "url", search_url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, search_url, nil)

	if err != nil {
		return nil, fmt.Errorf("Failed to create request, %w", err)
	}

	req.Header.Set("User-Agent", g.user_agent)
	req.Header.Set("Accept", "application/geo+json")

	rsp, err := g.client.Do(req)

	if err != nil {
		return nil, fmt.Errorf("Failed to geocode '%s', %w", query, err)
	}

	defer rsp.Body.Close()

	body, err := io.ReadAll(rsp.Body)

	if err != nil {
		return nil, fmt.Errorf("Failed to read body, %w", err)
	}

	if rsp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Geocoding '%s' returned status %d: %s", query, rsp.StatusCode, body)
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)

	if err != nil {
		return nil, fmt.Errorf("Failed to unmarshal results, %w", err)
	}

	for _, f := range fc.Features {

		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:

			boundary := geojson.NewFeatureCollection()
			boundary.Append(f)

			return boundary, nil

		case nil:
			continue
		default:
			slog.Debug("Skip non-polygon result", "type", f.Geometry.GeoJSONType())
		}
	}

	return nil, fmt.Errorf("%w for '%s'", ErrNotFound, query)
}
