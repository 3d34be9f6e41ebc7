package sidewalks

import (
	"bytes"
	"context"
	"fmt"

	"github.com/paulmach/orb/geojson"
	"github.com/tidwall/pretty"
	"github.com/whosonfirst/go-writer/v3"
)

// WriteFeatureCollection writes 'fc' as indented JSON to 'key' using 'wr'.
func WriteFeatureCollection(ctx context.Context, wr writer.Writer, key string, fc *geojson.FeatureCollection) (int64, error) {

	enc, err := fc.MarshalJSON()

	if err != nil {
		return 0, fmt.Errorf("Failed to marshal feature collection, %w", err)
	}

	enc = pretty.Pretty(enc)

	n, err := wr.Write(ctx, key, bytes.NewReader(enc))

	if err != nil {
		return 0, fmt.Errorf("Failed to write %s, %w", key, err)
	}

	return n, nil
}
