package sidewalks

import (
	"strings"

	"github.com/tidwall/gjson"
)

const UNKNOWN_SURFACE string = "unknown"

func DeriveSurface(body []byte) string {

	mat_rsp := gjson.GetBytes(body, "properties.Material")

	if !mat_rsp.Exists() || mat_rsp.Type == gjson.Null {
		return UNKNOWN_SURFACE
	}

	mat := strings.TrimSpace(mat_rsp.String())

	if mat == "" {
		return UNKNOWN_SURFACE
	}

	return strings.ToLower(mat)
}
