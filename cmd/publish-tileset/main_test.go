package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/sfomuseum/go-flags/multi"
	"github.com/tidwall/gjson"
)

func TestDeriveQueryParameters(t *testing.T) {

	q, err := deriveQueryParameters(nil)

	if err != nil {
		t.Fatalf("Failed to derive default parameters, %v", err)
	}

	if q.Get("where") != "1=1" || q.Get("outFields") != "*" || q.Get("f") != "geojson" {
		t.Fatalf("Unexpected default parameters %v", q)
	}

	params := multi.MultiString{"where=Material='Concrete'", "f=geojson", "resultRecordCount=100"}

	q, err = deriveQueryParameters(params)

	if err != nil {
		t.Fatalf("Failed to derive parameters, %v", err)
	}

	if q.Get("where") != "Material='Concrete'" || q.Get("resultRecordCount") != "100" {
		t.Fatalf("Unexpected parameters %v", q)
	}

	_, err = deriveQueryParameters(multi.MultiString{"geojson"})

	if err == nil {
		t.Fatalf("Expected error for parameter without '='")
	}
}

func TestDefaultRecipe(t *testing.T) {

	body, err := defaultRecipe("example", "sidewalks-source", "sidewalks", 12, 18)

	if err != nil {
		t.Fatalf("Failed to derive recipe, %v", err)
	}

	if gjson.GetBytes(body, "layers.sidewalks.maxzoom").Int() != 18 {
		t.Fatalf("Unexpected recipe %s", string(body))
	}
}

func TestRunMissingAccessToken(t *testing.T) {

	ctx := context.Background()

	t.Setenv("MAPBOX_ACCESS_TOKEN", "")

	var hits int64

	ts := httptest.NewServer(http.HandlerFunc(func(rsp http.ResponseWriter, req *http.Request) {
		atomic.AddInt64(&hits, 1)
		rsp.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	}))

	defer ts.Close()

	args := []string{
		"-arcgis-url", ts.URL,
		"-username", "example",
		"-ldgeojson", filepath.Join(t.TempDir(), "sidewalks.ldgeojson"),
	}

	err := run(ctx, args)

	if !errors.Is(err, ErrMissingAccessToken) {
		t.Fatalf("Expected ErrMissingAccessToken, got %v", err)
	}

	if atomic.LoadInt64(&hits) != 0 {
		t.Fatalf("Expected no HTTP requests, got %d", hits)
	}
}

func TestRunInvalidPollInterval(t *testing.T) {

	ctx := context.Background()

	t.Setenv("MAPBOX_ACCESS_TOKEN", "pk.test-token")

	var hits int64

	ts := httptest.NewServer(http.HandlerFunc(func(rsp http.ResponseWriter, req *http.Request) {
		atomic.AddInt64(&hits, 1)
	}))

	defer ts.Close()

	for _, interval := range []string{"0s", "-1s"} {

		args := []string{
			"-arcgis-url", ts.URL,
			"-username", "example",
			"-access-token", "pk.test-token",
			"-poll-interval", interval,
		}

		err := run(ctx, args)

		if err == nil {
			t.Fatalf("Expected error for -poll-interval %s", interval)
		}
	}

	if atomic.LoadInt64(&hits) != 0 {
		t.Fatalf("Expected no HTTP requests, got %d", hits)
	}
}

func TestLoadRecipe(t *testing.T) {

	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "recipe.json")

	err := os.WriteFile(path, []byte(`{"version":1,"layers":{"sidewalks":{"minzoom":13,"maxzoom":16}}}`), 0644)

	if err != nil {
		t.Fatalf("Failed to write %s, %v", path, err)
	}

	body, err := loadRecipe(ctx, "", path, "example", "sidewalks-source", "sidewalks")

	if err != nil {
		t.Fatalf("Failed to load recipe, %v", err)
	}

	if gjson.GetBytes(body, "layers.sidewalks.source").String() != "mapbox://tileset-source/example/sidewalks-source" {
		t.Fatalf("Unexpected recipe %s", string(body))
	}
}
