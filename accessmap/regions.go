// Package accessmap derives the region descriptor ("regions.geojson") the AccessMap web application
// uses to list its supported areas.
package accessmap

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const DEFAULT_ZOOM int = 11

// DeriveRegions returns a FeatureCollection with one region feature for each boundary feature in 'boundaries'.
// Every region shares the same 'key', 'name', 'zoom' and the combined bounds of all the boundaries; its
// "lon" and "lat" properties are the first vertex of the outer ring of its geometry.
func DeriveRegions(boundaries *geojson.FeatureCollection, key string, name string, zoom int) (*geojson.FeatureCollection, error) {

	if len(boundaries.Features) == 0 {
		return nil, fmt.Errorf("No boundary features")
	}

	var bounds orb.Bound

	for idx, f := range boundaries.Features {

		if f.Geometry == nil {
			return nil, fmt.Errorf("Feature at offset %d has no geometry", idx)
		}

		if idx == 0 {
			bounds = f.Geometry.Bound()
		} else {
			bounds = bounds.Union(f.Geometry.Bound())
		}
	}

	regions := geojson.NewFeatureCollection()

	for idx, f := range boundaries.Features {

		pt, err := firstVertex(f.Geometry)

		if err != nil {
			return nil, fmt.Errorf("Failed to derive center for feature at offset %d, %w", idx, err)
		}

		r := geojson.NewFeature(f.Geometry)

		r.Properties = geojson.Properties{
			"key":    key,
			"name":   name,
			"bounds": []float64{bounds.Left(), bounds.Bottom(), bounds.Right(), bounds.Top()},
			"lon":    pt.Lon(),
			"lat":    pt.Lat(),
			"zoom":   zoom,
		}

		regions.Append(r)
	}

	return regions, nil
}

func firstVertex(geom orb.Geometry) (orb.Point, error) {

	var poly orb.Polygon

	switch g := geom.(type) {
	case orb.Polygon:
		poly = g
	case orb.MultiPolygon:

		if len(g) == 0 {
			return orb.Point{}, fmt.Errorf("Empty multipolygon")
		}

		poly = g[0]
	default:
		return orb.Point{}, fmt.Errorf("Unsupported geometry type %s", geom.GeoJSONType())
	}

	if len(poly) == 0 || len(poly[0]) == 0 {
		return orb.Point{}, fmt.Errorf("Empty polygon")
	}

	return poly[0][0], nil
}
