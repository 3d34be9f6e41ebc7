package mapbox

import (
	"context"
	"fmt"
	"io"

	"github.com/sidewalk-pitt/go-sidewalk-maps"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"github.com/whosonfirst/go-reader/v2"
)

const DEFAULT_LAYER string = "sidewalks"
const DEFAULT_MIN_ZOOM int = 12
const DEFAULT_MAX_ZOOM int = 18

// Mapbox Tiling Service limits
const MIN_ZOOM int = 0
const MAX_ZOOM int = 22

type Recipe struct {
	Version int                    `json:"version"`
	Layers  map[string]RecipeLayer `json:"layers"`
}

type RecipeLayer struct {
	Source  string `json:"source"`
	MinZoom int    `json:"minzoom"`
	MaxZoom int    `json:"maxzoom"`
}

// NewRecipe returns a single layer recipe reading from the tileset source '{username}/{source_id}'.
func NewRecipe(username string, source_id string, layer string, min_zoom int, max_zoom int) (*Recipe, error) {

	if layer == "" {
		layer = DEFAULT_LAYER
	}

	err := validateZoomRange(min_zoom, max_zoom)

	if err != nil {
		return nil, err
	}

	r := &Recipe{
		Version: 1,
		Layers: map[string]RecipeLayer{
			layer: {
				Source:  SourceURI(username, source_id),
				MinZoom: min_zoom,
				MaxZoom: max_zoom,
			},
		},
	}

	return r, nil
}

// LoadRecipe reads the recipe template 'path' from 'r' and points 'layer' at the tileset source
// '{username}/{source_id}'. Any other recipe options in the template are left untouched.
func LoadRecipe(ctx context.Context, r reader.Reader, path string, username string, source_id string, layer string) ([]byte, error) {

	fh, err := r.Read(ctx, path)

	if err != nil {
		return nil, fmt.Errorf("Failed to open recipe %s, %w", path, err)
	}

	defer fh.Close()

	body, err := io.ReadAll(fh)

	if err != nil {
		return nil, fmt.Errorf("Failed to read recipe %s, %w", path, err)
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("Recipe %s is not valid JSON", path)
	}

	if !gjson.GetBytes(body, "version").Exists() {

		body, err = sjson.SetBytes(body, "version", 1)

		if err != nil {
			return nil, fmt.Errorf("Failed to assign recipe version, %w", err)
		}
	}

	source_path := fmt.Sprintf("layers.%s.source", gjson.Escape(layer))

	body, err = sjson.SetBytes(body, source_path, SourceURI(username, source_id))

	if err != nil {
		return nil, fmt.Errorf("Failed to assign recipe source, %w", err)
	}

	min_zoom, max_zoom, err := sidewalks.DeriveRecipeZoomLevels(body, layer)

	if err != nil {
		return nil, fmt.Errorf("Invalid recipe %s, %w", path, err)
	}

	err = validateZoomRange(min_zoom, max_zoom)

	if err != nil {
		return nil, fmt.Errorf("Invalid recipe %s, %w", path, err)
	}

	return body, nil
}

func validateZoomRange(min_zoom int, max_zoom int) error {

	if min_zoom < MIN_ZOOM || max_zoom > MAX_ZOOM {
		return fmt.Errorf("Zoom range %d-%d outside of %d-%d", min_zoom, max_zoom, MIN_ZOOM, MAX_ZOOM)
	}

	if min_zoom > max_zoom {
		return fmt.Errorf("Invalid zoom range %d-%d", min_zoom, max_zoom)
	}

	return nil
}
