// Package opensidewalks transforms raw sidewalk GeoJSON exports in to FeatureCollections that
// conform to the OpenSidewalks (0.2) transportation schema.
package opensidewalks

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sidewalk-pitt/go-sidewalk-maps"
	"github.com/tidwall/gjson"
)

const SCHEMA_URI string = "https://sidewalks.washington.edu/opensidewalks/0.2/schema.json"

// NewFeatureCollection returns an empty FeatureCollection with the "$schema" member assigned.
func NewFeatureCollection() *geojson.FeatureCollection {

	fc := geojson.NewFeatureCollection()

	fc.ExtraMembers = geojson.Properties{
		"$schema": SCHEMA_URI,
	}

	return fc
}

// Transform normalizes every feature in 'body', a raw sidewalks FeatureCollection.
func Transform(ctx context.Context, body []byte) (*geojson.FeatureCollection, error) {

	fc := NewFeatureCollection()

	err := Append(ctx, fc, body)

	if err != nil {
		return nil, err
	}

	return fc, nil
}

// Append normalizes every feature in 'body' and appends the results to 'fc'.
func Append(ctx context.Context, fc *geojson.FeatureCollection, body []byte) error {

	if !gjson.ValidBytes(body) {
		return fmt.Errorf("Invalid JSON")
	}

	features_rsp := gjson.GetBytes(body, "features")

	if !features_rsp.Exists() {
		return nil
	}

	if !features_rsp.IsArray() {
		return fmt.Errorf("Invalid features member")
	}

	for idx, f_rsp := range features_rsp.Array() {

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			// pass
		}

		f, err := TransformFeature([]byte(f_rsp.Raw))

		if err != nil {
			return fmt.Errorf("Failed to transform feature at offset %d, %w", idx, err)
		}

		fc.Append(f)
	}

	return nil
}

// TransformFeature maps a single raw sidewalk feature on to the OpenSidewalks property names and
// drops any elevation component from its coordinates.
func TransformFeature(body []byte) (*geojson.Feature, error) {

	id, err := sidewalks.DeriveId(body)

	if err != nil {
		return nil, err
	}

	var incline any

	v := sidewalks.DeriveIncline(body)

	if v != nil {
		incline = *v
	}

	geom, err := deriveLineString(body)

	if err != nil {
		return nil, err
	}

	f := geojson.NewFeature(geom)

	f.Properties = geojson.Properties{
		"_id":     id,
		"incline": incline,
		"width":   sidewalks.DeriveWidth(body),
		"surface": sidewalks.DeriveSurface(body),
	}

	return f, nil
}

func deriveLineString(body []byte) (orb.LineString, error) {

	geom_rsp := gjson.GetBytes(body, "geometry")

	if !geom_rsp.Exists() || geom_rsp.Type == gjson.Null {
		return nil, fmt.Errorf("Missing geometry")
	}

	coords_rsp := geom_rsp.Get("coordinates")

	if !coords_rsp.IsArray() {
		return nil, fmt.Errorf("Missing coordinates")
	}

	var vertices []gjson.Result

	// Anything with a flat list of vertices is retagged as a LineString. ArcGIS emits MultiLineString
	// for polylines with more than one path; their parts are concatenated in order.
	switch geom_rsp.Get("type").String() {
	case "LineString", "MultiPoint", "":
		vertices = coords_rsp.Array()
	case "MultiLineString":

		for _, part := range coords_rsp.Array() {

			if !part.IsArray() {
				return nil, fmt.Errorf("Invalid MultiLineString part")
			}

			vertices = append(vertices, part.Array()...)
		}

	default:
		return nil, fmt.Errorf("Unsupported geometry type '%s'", geom_rsp.Get("type").String())
	}

	ls := make(orb.LineString, len(vertices))

	for i, v := range vertices {

		pt := v.Array()

		if len(pt) < 2 {
			return nil, fmt.Errorf("Invalid vertex at offset %d", i)
		}

		ls[i] = orb.Point{pt[0].Float(), pt[1].Float()}
	}

	return ls, nil
}
