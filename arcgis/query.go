// Package arcgis fetches features from ArcGIS FeatureServer query endpoints and writes them out as
// line-delimited GeoJSON.
package arcgis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

// StatusError is returned when a query endpoint responds with a non-2xx status code.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.URL, e.StatusCode, e.Body)
}

// DefaultQueryParameters returns the parameters for "every feature, every field, as GeoJSON".
func DefaultQueryParameters() url.Values {

	params := url.Values{}
	params.Set("where", "1=1")
	params.Set("outFields", "*")
	params.Set("f", "geojson")

	return params
}

// FetchFeatureCollection issues a single GET request to 'query_url' with 'params' and returns the
// body of the response once it has been validated as a GeoJSON FeatureCollection. There are no retries.
//
// The body is returned as-is rather than decoded in to an orb.FeatureCollection because orb
// discards the elevation component of coordinates.
func FetchFeatureCollection(ctx context.Context, client *http.Client, query_url string, params url.Values) ([]byte, error) {

	u, err := url.Parse(query_url)

	if err != nil {
		return nil, fmt.Errorf("Failed to parse query URL, %w", err)
	}

	q := u.Query()

	for k, values := range params {
		for _, v := range values {
			q.Add(k, v)
		}
	}

	u.RawQuery = q.Encode()

	body, err := fetchURL(ctx, client, u.String())

	if err != nil {
		return nil, err
	}

	err = ValidateFeatureCollection(body)

	if err != nil {
		return nil, err
	}

	slog.Debug("Fetched features", "url", query_url, "count", gjson.GetBytes(body, "features.#").Int())
	return body, nil
}

// ValidateFeatureCollection ensures that 'body' is well-formed JSON with a "FeatureCollection" type
// and a "features" array.
func ValidateFeatureCollection(body []byte) error {

	if !gjson.ValidBytes(body) {
		return fmt.Errorf("Invalid JSON")
	}

	// ArcGIS reports query errors as 200 responses with an "error" member
	err_rsp := gjson.GetBytes(body, "error")

	if err_rsp.Exists() {
		return fmt.Errorf("Query failed (%d): %s", err_rsp.Get("code").Int(), err_rsp.Get("message").String())
	}

	type_rsp := gjson.GetBytes(body, "type")

	if type_rsp.String() != "FeatureCollection" {
		return fmt.Errorf("Invalid type '%s'", type_rsp.String())
	}

	if !gjson.GetBytes(body, "features").IsArray() {
		return fmt.Errorf("Missing features")
	}

	return nil
}

func fetchURL(ctx context.Context, client *http.Client, query_url string) ([]byte, error) {

	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, query_url, nil)

	if err != nil {
		return nil, fmt.Errorf("Failed to create request, %w", err)
	}

	rsp, err := client.Do(req)

	if err != nil {
		return nil, err
	}

	defer rsp.Body.Close()

	body, err := io.ReadAll(rsp.Body)

	if err != nil {
		return nil, fmt.Errorf("Failed to read body, %w", err)
	}

	if rsp.StatusCode < 200 || rsp.StatusCode > 299 {
		return nil, &StatusError{
			URL:        query_url,
			StatusCode: rsp.StatusCode,
			Body:       string(body),
		}
	}

	return body, nil
}
