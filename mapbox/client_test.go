package mapbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

const TEST_TOKEN string = "pk.test-token"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	c, err := NewClient(TEST_TOKEN, WithBaseURL(ts.URL), WithHTTPClient(ts.Client()))

	if err != nil {
		t.Fatalf("Failed to create client, %v", err)
	}

	return c
}

func TestNewClientMissingToken(t *testing.T) {

	_, err := NewClient("")

	if err == nil {
		t.Fatalf("Expected error creating client without access token")
	}
}

func TestCreateOrUpdateSource(t *testing.T) {

	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "sidewalks.ldgeojson")
	data := `{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[-79.9,40.4]}}` + "\n"

	err := os.WriteFile(path, []byte(data), 0644)

	if err != nil {
		t.Fatalf("Failed to write %s, %v", path, err)
	}

	c := newTestClient(t, func(rsp http.ResponseWriter, req *http.Request) {

		if req.Method != http.MethodPut || req.URL.Path != "/tilesets/v1/sources/example/sidewalks-source" {
			http.Error(rsp, "Not found", http.StatusNotFound)
			return
		}

		if req.URL.Query().Get("access_token") != TEST_TOKEN {
			http.Error(rsp, "Unauthorized", http.StatusUnauthorized)
			return
		}

		fh, hdr, err := req.FormFile("file")

		if err != nil {
			http.Error(rsp, err.Error(), http.StatusBadRequest)
			return
		}

		defer fh.Close()

		body, _ := io.ReadAll(fh)

		if string(body) != data || hdr.Filename != "data.geojson" || hdr.Header.Get("Content-Type") != "application/json" {
			http.Error(rsp, "Unexpected file", http.StatusBadRequest)
			return
		}

		rsp.Write([]byte(`{"id":"mapbox://tileset-source/example/sidewalks-source","files":1,"source_size":92,"file_size":92}`))
	})

	src_rsp, err := c.CreateOrUpdateSource(ctx, "example", "sidewalks-source", path)

	if err != nil {
		t.Fatalf("Failed to create source, %v", err)
	}

	if src_rsp.ID != SourceURI("example", "sidewalks-source") || src_rsp.Files != 1 {
		t.Fatalf("Unexpected response %v", src_rsp)
	}
}

func TestCreateOrUpdateSourceError(t *testing.T) {

	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "sidewalks.ldgeojson")

	err := os.WriteFile(path, []byte("{}\n"), 0644)

	if err != nil {
		t.Fatalf("Failed to write %s, %v", path, err)
	}

	c := newTestClient(t, func(rsp http.ResponseWriter, req *http.Request) {
		rsp.WriteHeader(http.StatusUnprocessableEntity)
		rsp.Write([]byte(`{"message":"Invalid GeoJSON"}`))
	})

	_, err = c.CreateOrUpdateSource(ctx, "example", "sidewalks-source", path)

	var status_err *StatusError

	if !errors.As(err, &status_err) {
		t.Fatalf("Expected StatusError, got %v", err)
	}

	if status_err.Op != "create source" || status_err.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("Unexpected error %v", status_err)
	}

	if status_err.Body != `{"message":"Invalid GeoJSON"}` {
		t.Fatalf("Unexpected body '%s'", status_err.Body)
	}
}

func TestCreateOrUpdateTileset(t *testing.T) {

	ctx := context.Background()

	for _, code := range []int{http.StatusOK, http.StatusCreated} {

		c := newTestClient(t, func(rsp http.ResponseWriter, req *http.Request) {

			if req.Method != http.MethodPost || req.URL.Path != "/tilesets/v1/example.sidewalks-vector" {
				http.Error(rsp, "Not found", http.StatusNotFound)
				return
			}

			body, _ := io.ReadAll(req.Body)

			if gjson.GetBytes(body, "recipe.layers.sidewalks.source").String() != "mapbox://tileset-source/example/sidewalks-source" {
				http.Error(rsp, "Invalid recipe", http.StatusBadRequest)
				return
			}

			if gjson.GetBytes(body, "name").String() != "Sidewalks" {
				http.Error(rsp, "Invalid name", http.StatusBadRequest)
				return
			}

			rsp.WriteHeader(code)
			rsp.Write([]byte(`{"message":"Successfully created empty tileset example.sidewalks-vector."}`))
		})

		r, err := NewRecipe("example", "sidewalks-source", "", DEFAULT_MIN_ZOOM, DEFAULT_MAX_ZOOM)

		if err != nil {
			t.Fatalf("Failed to create recipe, %v", err)
		}

		enc, err := json.Marshal(r)

		if err != nil {
			t.Fatalf("Failed to marshal recipe, %v", err)
		}

		_, err = c.CreateOrUpdateTileset(ctx, "example.sidewalks-vector", "Sidewalks", enc)

		if err != nil {
			t.Fatalf("Failed to create tileset (%d), %v", code, err)
		}
	}
}

func TestPublishTileset(t *testing.T) {

	ctx := context.Background()

	c := newTestClient(t, func(rsp http.ResponseWriter, req *http.Request) {

		if req.Method != http.MethodPost || req.URL.Path != "/tilesets/v1/example.sidewalks-vector/publish" {
			http.Error(rsp, "Not found", http.StatusNotFound)
			return
		}

		rsp.Write([]byte(`{"message":"Processing example.sidewalks-vector","jobId":"ckabc123"}`))
	})

	pub_rsp, err := c.PublishTileset(ctx, "example.sidewalks-vector")

	if err != nil {
		t.Fatalf("Failed to publish tileset, %v", err)
	}

	if pub_rsp.JobID != "ckabc123" {
		t.Fatalf("Unexpected job ID '%s'", pub_rsp.JobID)
	}
}

func TestPublishTilesetCreatedIsError(t *testing.T) {

	ctx := context.Background()

	c := newTestClient(t, func(rsp http.ResponseWriter, req *http.Request) {
		rsp.WriteHeader(http.StatusCreated)
	})

	_, err := c.PublishTileset(ctx, "example.sidewalks-vector")

	var status_err *StatusError

	if !errors.As(err, &status_err) || status_err.Op != "publish tileset" {
		t.Fatalf("Expected publish StatusError, got %v", err)
	}
}

func TestTilesetStatus(t *testing.T) {

	ctx := context.Background()

	c := newTestClient(t, func(rsp http.ResponseWriter, req *http.Request) {

		if req.Method != http.MethodGet || req.URL.Path != "/tilesets/v1/example.sidewalks-vector/status" {
			http.Error(rsp, "Not found", http.StatusNotFound)
			return
		}

		rsp.Write([]byte(`{"id":"example.sidewalks-vector","status":"processing","latest_job":"ckabc123"}`))
	})

	status_rsp, err := c.TilesetStatus(ctx, "example.sidewalks-vector")

	if err != nil {
		t.Fatalf("Failed to get tileset status, %v", err)
	}

	if status_rsp.Status != STATUS_PROCESSING || status_rsp.LatestJob != "ckabc123" {
		t.Fatalf("Unexpected status %v", status_rsp)
	}
}

func TestTransportErrorRedactsToken(t *testing.T) {

	ctx := context.Background()

	ts := httptest.NewServer(http.HandlerFunc(func(rsp http.ResponseWriter, req *http.Request) {}))
	base_url := ts.URL
	ts.Close()

	c, err := NewClient(TEST_TOKEN, WithBaseURL(base_url))

	if err != nil {
		t.Fatalf("Failed to create client, %v", err)
	}

	_, err = c.TilesetStatus(ctx, "example.sidewalks-vector")

	if err == nil {
		t.Fatalf("Expected error connecting to closed server")
	}

	if strings.Contains(err.Error(), TEST_TOKEN) {
		t.Fatalf("Error includes access token: %v", err)
	}

	if !strings.Contains(err.Error(), "access_token="+REDACTED) {
		t.Fatalf("Expected redacted access token in %v", err)
	}

	var u_err *url.Error

	if !errors.As(err, &u_err) {
		t.Fatalf("Expected *url.Error, got %T", err)
	}
}
