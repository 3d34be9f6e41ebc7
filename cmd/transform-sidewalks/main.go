// transform-sidewalks normalizes one or more raw sidewalk GeoJSON exports in to a single OpenSidewalks
// "transportation.geojson" file.
package main

/*

$> go run cmd/transform-sidewalks/main.go -writer-uri fs:///usr/local/data/accessmap /usr/local/data/Sidewalks.geojson
2025/07/14 10:41:03 INFO Transforming sidewalks path=/usr/local/data/Sidewalks.geojson
2025/07/14 10:41:04 INFO Wrote transportation features target=transportation.geojson count=1873

*/

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/paulmach/orb/geojson"
	"github.com/sfomuseum/go-flags/flagset"
	"github.com/sidewalk-pitt/go-sidewalk-maps"
	"github.com/sidewalk-pitt/go-sidewalk-maps/opensidewalks"
	"github.com/whosonfirst/go-whosonfirst-iterate/v3"
	"github.com/whosonfirst/go-writer/v3"
)

func main() {

	var iterator_uri string
	var writer_uri string
	var target string
	var verbose bool

	fs := flagset.NewFlagSet("transform-sidewalks")

	fs.StringVar(&iterator_uri, "iterator-uri", "file://", "A valid whosonfirst/go-whosonfirst-iterate/v3 URI used to read the raw sidewalk exports passed as arguments.")
	fs.StringVar(&writer_uri, "writer-uri", "", "A valid whosonfirst/go-writer URI. If empty the current working directory is used.")
	fs.StringVar(&target, "target", "transportation.geojson", "The name of the OpenSidewalks file to write.")
	fs.BoolVar(&verbose, "verbose", false, "Enable verbose (debug) logging.")

	flagset.Parse(fs)

	if verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	err := flagset.SetFlagsFromEnvVars(fs, "SIDEWALKS")

	if err != nil {
		log.Fatalf("Failed to assign flags from environment variables, %v", err)
	}

	sources := fs.Args()

	if len(sources) == 0 {
		log.Fatalf("Missing raw sidewalk sources to transform")
	}

	if writer_uri == "" {

		cwd, err := os.Getwd()

		if err != nil {
			log.Fatalf("Failed to derive current working directory, %v", err)
		}

		writer_uri = fmt.Sprintf("fs://%s", cwd)
	}

	ctx := context.Background()

	wr, err := writer.NewWriter(ctx, writer_uri)

	if err != nil {
		log.Fatalf("Failed to create writer, %v", err)
	}

	iter, err := iterate.NewIterator(ctx, iterator_uri)

	if err != nil {
		log.Fatalf("Failed to create new iterator, %v", err)
	}

	fc, err := transformSources(ctx, iter, sources)

	if err != nil {
		log.Fatalf("Failed to transform sidewalks, %v", err)
	}

	_, err = sidewalks.WriteFeatureCollection(ctx, wr, target, fc)

	if err != nil {
		log.Fatalf("Failed to write %s, %v", target, err)
	}

	err = wr.Close(ctx)

	if err != nil {
		log.Fatalf("Failed to close writer, %v", err)
	}

	slog.Info("Wrote transportation features", "target", target, "count", len(fc.Features))
}

// transformSources appends the features of each source to a single OpenSidewalks feature collection. Sources
// are iterated one at a time so that the output preserves the order in which they were passed.
func transformSources(ctx context.Context, iter iterate.Iterator, sources []string) (*geojson.FeatureCollection, error) {

	fc := opensidewalks.NewFeatureCollection()

	for _, src := range sources {

		for rec, err := range iter.Iterate(ctx, src) {

			if err != nil {
				return nil, fmt.Errorf("Iterator yielded an error for %s, %w", src, err)
			}

			slog.Info("Transforming sidewalks", "path", rec.Path)

			body, err := io.ReadAll(rec.Body)
			rec.Body.Close()

			if err != nil {
				return nil, fmt.Errorf("Failed to read %s, %w", rec.Path, err)
			}

			err = opensidewalks.Append(ctx, fc, body)

			if err != nil {
				return nil, fmt.Errorf("Failed to transform %s, %w", rec.Path, err)
			}
		}
	}

	return fc, nil
}
