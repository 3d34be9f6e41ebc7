package sidewalks

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// DeriveRecipeZoomLevels returns the minzoom and maxzoom values for 'layer' in a Mapbox tileset recipe.
func DeriveRecipeZoomLevels(recipe []byte, layer string) (int, int, error) {

	layer_path := fmt.Sprintf("layers.%s", gjson.Escape(layer))

	layer_rsp := gjson.GetBytes(recipe, layer_path)

	if !layer_rsp.Exists() {
		return 0, 0, fmt.Errorf("Missing layer %s", layer)
	}

	min_rsp := layer_rsp.Get("minzoom")

	if !min_rsp.Exists() {
		return 0, 0, fmt.Errorf("Missing minzoom")
	}

	max_rsp := layer_rsp.Get("maxzoom")

	if !max_rsp.Exists() {
		return 0, 0, fmt.Errorf("Missing maxzoom")
	}

	min_zoom := int(min_rsp.Int())
	max_zoom := int(max_rsp.Int())

	if min_zoom > max_zoom {
		return 0, 0, fmt.Errorf("Invalid zoom range %d-%d", min_zoom, max_zoom)
	}

	return min_zoom, max_zoom, nil
}
