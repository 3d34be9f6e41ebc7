// publish-tileset downloads sidewalk features from an ArcGIS FeatureServer query endpoint, writes them
// to a line-delimited GeoJSON file, uploads that file as a Mapbox tileset source and then creates,
// publishes and waits for a Mapbox tileset built from that source.
package main

/*

$> MAPBOX_ACCESS_TOKEN=sk.... go run cmd/publish-tileset/main.go -username example
2025/07/14 11:02:31 INFO Fetching features url=https://services3.arcgis.com/MV5wh5WkCMqlwISp/ArcGIS/rest/services/SPC_Sidewalks/FeatureServer/0/query
2025/07/14 11:02:33 INFO Wrote line-delimited features path=sidewalks.ldgeojson count=1873
2025/07/14 11:02:33 INFO Creating or updating tileset source username=example source=sidewalks-source
2025/07/14 11:02:36 INFO Source created/updated id=mapbox://tileset-source/example/sidewalks-source files=1 size=1524091
2025/07/14 11:02:36 INFO Creating or updating tileset tileset=example.sidewalks-vector
...
2025/07/14 11:03:17 INFO Processing completed successfully tileset=example.sidewalks-vector job=ck...

*/

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sfomuseum/go-flags/flagset"
	"github.com/sfomuseum/go-flags/multi"
	"github.com/sidewalk-pitt/go-sidewalk-maps/arcgis"
	"github.com/sidewalk-pitt/go-sidewalk-maps/mapbox"
	"github.com/whosonfirst/go-reader/v2"
)

const DEFAULT_ARCGIS_URL string = "https://services3.arcgis.com/MV5wh5WkCMqlwISp/ArcGIS/rest/services/SPC_Sidewalks/FeatureServer/0/query"

var ErrMissingAccessToken = errors.New("Missing Mapbox access token. Set the -access-token flag or the MAPBOX_ACCESS_TOKEN environment variable.")

func main() {

	ctx := context.Background()

	err := run(ctx, os.Args[1:])

	if err != nil {
		log.Fatalf("Failed to publish tileset, %v", err)
	}
}

func run(ctx context.Context, args []string) error {

	var arcgis_url string
	var ldgeojson_path string
	var username string
	var source_id string
	var tileset_id string
	var tileset_name string
	var layer string
	var min_zoom int
	var max_zoom int
	var recipe_path string
	var recipe_reader_uri string
	var poll_interval time.Duration
	var max_attempts int
	var timeout time.Duration
	var access_token string
	var env_file string
	var verbose bool

	var params multi.MultiString
	var pending_statuses multi.MultiString

	fs := flagset.NewFlagSet("publish-tileset")

	fs.StringVar(&arcgis_url, "arcgis-url", DEFAULT_ARCGIS_URL, "The ArcGIS FeatureServer query endpoint to fetch features from.")
	fs.Var(&params, "param", "Zero or more key=value query parameters. If empty the defaults are where=1=1, outFields=* and f=geojson.")
	fs.StringVar(&ldgeojson_path, "ldgeojson", "sidewalks.ldgeojson", "The path where line-delimited GeoJSON features will be written. Existing files are replaced.")
	fs.StringVar(&username, "username", "", "The Mapbox account username. Required.")
	fs.StringVar(&source_id, "source-id", "sidewalks-source", "The Mapbox tileset source ID.")
	fs.StringVar(&tileset_id, "tileset-id", "", "The Mapbox tileset ID. If empty it will be \"{USERNAME}.sidewalks-vector\".")
	fs.StringVar(&tileset_name, "tileset-name", "", "An optional name for the tileset. If empty the tileset ID is used.")
	fs.StringVar(&layer, "layer", mapbox.DEFAULT_LAYER, "The name of the tileset layer.")
	fs.IntVar(&min_zoom, "min-zoom", mapbox.DEFAULT_MIN_ZOOM, "The minimum zoom level for the tileset layer.")
	fs.IntVar(&max_zoom, "max-zoom", mapbox.DEFAULT_MAX_ZOOM, "The maximum zoom level for the tileset layer.")
	fs.StringVar(&recipe_path, "recipe", "", "The path to an optional recipe file to use instead of the default single layer recipe. The layer source is assigned automatically and -min-zoom and -max-zoom are ignored.")
	fs.StringVar(&recipe_reader_uri, "recipe-reader-uri", "", "A valid whosonfirst/go-reader URI used to read the -recipe file. If empty the directory containing -recipe is used and -recipe is treated as a local path.")
	fs.DurationVar(&poll_interval, "poll-interval", mapbox.DEFAULT_POLL_INTERVAL, "The time to wait between tileset status checks.")
	fs.IntVar(&max_attempts, "max-attempts", 0, "The maximum number of tileset status checks. 0 means no limit.")
	fs.Var(&pending_statuses, "pending-status", "Zero or more tileset status values to keep waiting on. If empty only \"processing\" is considered pending.")
	fs.DurationVar(&timeout, "timeout", 0, "The maximum time to wait for the tileset to finish processing. 0 means no limit.")
	fs.StringVar(&access_token, "access-token", "", "A Mapbox access token with tilesets:write, tilesets:read and tilesets:list scopes. May also be set with the MAPBOX_ACCESS_TOKEN environment variable.")
	fs.StringVar(&env_file, "env-file", "", "An optional .env file to load environment variables from.")
	fs.BoolVar(&verbose, "verbose", false, "Enable verbose (debug) logging.")

	err := fs.Parse(args)

	if err != nil {
		return fmt.Errorf("Failed to parse flags, %w", err)
	}

	if verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	if env_file != "" {

		err := godotenv.Load(env_file)

		if err != nil {
			return fmt.Errorf("Failed to load %s, %w", env_file, err)
		}
	}

	// MAPBOX_ACCESS_TOKEN -> -access-token, MAPBOX_USERNAME -> -username and so on
	err = flagset.SetFlagsFromEnvVars(fs, "MAPBOX")

	if err != nil {
		return fmt.Errorf("Failed to assign flags from environment variables, %w", err)
	}

	if access_token == "" {
		return ErrMissingAccessToken
	}

	if username == "" {
		return fmt.Errorf("Missing -username flag")
	}

	if poll_interval <= 0 {
		return fmt.Errorf("Invalid -poll-interval %v, must be greater than zero", poll_interval)
	}

	if tileset_id == "" {
		tileset_id = fmt.Sprintf("%s.sidewalks-vector", username)
	}

	query_params, err := deriveQueryParameters(params)

	if err != nil {
		return fmt.Errorf("Invalid -param flag, %w", err)
	}

	var recipe []byte

	if recipe_path != "" {
		recipe, err = loadRecipe(ctx, recipe_reader_uri, recipe_path, username, source_id, layer)
	} else {
		recipe, err = defaultRecipe(username, source_id, layer, min_zoom, max_zoom)
	}

	if err != nil {
		return fmt.Errorf("Failed to derive recipe, %w", err)
	}

	mb_client, err := mapbox.NewClient(access_token)

	if err != nil {
		return fmt.Errorf("Failed to create Mapbox client, %w", err)
	}

	slog.Info("Fetching features", "url", arcgis_url)

	body, err := arcgis.FetchFeatureCollection(ctx, nil, arcgis_url, query_params)

	if err != nil {
		return fmt.Errorf("Failed to fetch features from %s, %w", arcgis_url, err)
	}

	count, err := arcgis.WriteLineDelimitedFile(ctx, body, ldgeojson_path)

	if err != nil {
		return fmt.Errorf("Failed to write line-delimited features, %w", err)
	}

	slog.Info("Wrote line-delimited features", "path", ldgeojson_path, "count", count)

	_, err = mb_client.CreateOrUpdateSource(ctx, username, source_id, ldgeojson_path)

	if err != nil {
		return fmt.Errorf("Failed to create or update tileset source, %w", err)
	}

	_, err = mb_client.CreateOrUpdateTileset(ctx, tileset_id, tileset_name, recipe)

	if err != nil {
		return fmt.Errorf("Failed to create or update tileset, %w", err)
	}

	_, err = mb_client.PublishTileset(ctx, tileset_id)

	if err != nil {
		return fmt.Errorf("Failed to publish tileset, %w", err)
	}

	poll_ctx := ctx

	if timeout > 0 {
		c, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		poll_ctx = c
	}

	poll_opts := mapbox.DefaultPollOptions()
	poll_opts.Interval = poll_interval
	poll_opts.MaxAttempts = max_attempts

	if len(pending_statuses) > 0 {
		poll_opts.PendingStatuses = pending_statuses
	}

	ok, err := mapbox.WaitForTileset(poll_ctx, mb_client, tileset_id, poll_opts)

	if err != nil {
		return fmt.Errorf("Failed to determine status of tileset %s, %w", tileset_id, err)
	}

	if !ok {
		return fmt.Errorf("There was an issue processing tileset %s. Check the Mapbox Studio interface for details.", tileset_id)
	}

	slog.Info("Tileset created and published", "tileset", tileset_id, "style_url", fmt.Sprintf("mapbox://styles/%s/{STYLE_ID}", username))

	return nil
}

func deriveQueryParameters(params multi.MultiString) (url.Values, error) {

	if len(params) == 0 {
		return arcgis.DefaultQueryParameters(), nil
	}

	query_params := url.Values{}

	for _, p := range params {

		// Split on the first "=" only so that values like "1=1" survive
		k, v, ok := strings.Cut(p, "=")

		if !ok || k == "" {
			return nil, fmt.Errorf("Invalid parameter '%s', expected key=value", p)
		}

		query_params.Add(k, v)
	}

	return query_params, nil
}

func defaultRecipe(username string, source_id string, layer string, min_zoom int, max_zoom int) ([]byte, error) {

	r, err := mapbox.NewRecipe(username, source_id, layer, min_zoom, max_zoom)

	if err != nil {
		return nil, err
	}

	return json.Marshal(r)
}

// loadRecipe reads the recipe template 'path' from 'reader_uri'. If 'reader_uri' is empty 'path' is a
// local file and is read from its parent directory.
func loadRecipe(ctx context.Context, reader_uri string, path string, username string, source_id string, layer string) ([]byte, error) {

	if reader_uri == "" {

		abs_path, err := filepath.Abs(path)

		if err != nil {
			return nil, fmt.Errorf("Failed to derive absolute path for %s, %w", path, err)
		}

		reader_uri = fmt.Sprintf("fs://%s", filepath.Dir(abs_path))
		path = filepath.Base(abs_path)
	}

	r, err := reader.NewReader(ctx, reader_uri)

	if err != nil {
		return nil, fmt.Errorf("Failed to create recipe reader, %w", err)
	}

	return mapbox.LoadRecipe(ctx, r, path, username, source_id, layer)
}
