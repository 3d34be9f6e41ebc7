// regions fetches the boundary for a place from the OpenStreetMap Nominatim API and writes an AccessMap
// region descriptor ("regions.geojson") for it.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sfomuseum/go-flags/flagset"
	"github.com/sidewalk-pitt/go-sidewalk-maps"
	"github.com/sidewalk-pitt/go-sidewalk-maps/accessmap"
	"github.com/sidewalk-pitt/go-sidewalk-maps/nominatim"
	"github.com/whosonfirst/go-writer/v3"
)

func main() {

	var place string
	var key string
	var name string
	var zoom int
	var nominatim_endpoint string
	var user_agent string
	var writer_uri string
	var target string
	var verbose bool

	fs := flagset.NewFlagSet("regions")

	fs.StringVar(&place, "place", "Pittsburgh, Pennsylvania, USA", "The place to geocode.")
	fs.StringVar(&key, "key", "pa.pittsburgh", "The unique key for the region.")
	fs.StringVar(&name, "name", "Pittsburgh", "The display name for the region.")
	fs.IntVar(&zoom, "zoom", accessmap.DEFAULT_ZOOM, "The initial map zoom level for the region.")
	fs.StringVar(&nominatim_endpoint, "nominatim-endpoint", nominatim.DEFAULT_ENDPOINT, "The root URL of the Nominatim API.")
	fs.StringVar(&user_agent, "user-agent", nominatim.DEFAULT_USER_AGENT, "The User-Agent header to send to the Nominatim API.")
	fs.StringVar(&writer_uri, "writer-uri", "", "A valid whosonfirst/go-writer URI. If empty the \"accessmap/data\" directory in the current working directory is used.")
	fs.StringVar(&target, "target", "regions.geojson", "The name of the regions file to write.")
	fs.BoolVar(&verbose, "verbose", false, "Enable verbose (debug) logging.")

	flagset.Parse(fs)

	if verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	err := flagset.SetFlagsFromEnvVars(fs, "REGIONS")

	if err != nil {
		log.Fatalf("Failed to assign flags from environment variables, %v", err)
	}

	if writer_uri == "" {

		cwd, err := os.Getwd()

		if err != nil {
			log.Fatalf("Failed to derive current working directory, %v", err)
		}

		root := filepath.Join(cwd, "accessmap", "data")

		err = os.MkdirAll(root, 0755)

		if err != nil {
			log.Fatalf("Failed to create %s, %v", root, err)
		}

		writer_uri = fmt.Sprintf("fs://%s", root)
	}

	ctx := context.Background()

	wr, err := writer.NewWriter(ctx, writer_uri)

	if err != nil {
		log.Fatalf("Failed to create writer, %v", err)
	}

	slog.Info("Fetching boundary", "place", place)

	g := nominatim.NewGeocoder(nil, nominatim_endpoint, user_agent)

	boundaries, err := g.Geocode(ctx, place)

	if err != nil {
		log.Fatalf("Failed to fetch boundary for '%s', %v", place, err)
	}

	regions, err := accessmap.DeriveRegions(boundaries, key, name, zoom)

	if err != nil {
		log.Fatalf("Failed to derive regions, %v", err)
	}

	slog.Info("Writing AccessMap regions", "uri", writer_uri, "target", target)

	_, err = sidewalks.WriteFeatureCollection(ctx, wr, target, regions)

	if err != nil {
		log.Fatalf("Failed to write regions, %v", err)
	}

	err = wr.Close(ctx)

	if err != nil {
		log.Fatalf("Failed to close writer, %v", err)
	}
}
