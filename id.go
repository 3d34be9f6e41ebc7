package sidewalks

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// DeriveId returns the identifier for a raw sidewalk feature: its GlobalID property if present and
// non-empty, otherwise its OBJECTID property rendered as a string.
func DeriveId(body []byte) (string, error) {

	global_rsp := gjson.GetBytes(body, "properties.GlobalID")

	if global_rsp.Exists() && global_rsp.Type != gjson.Null && global_rsp.String() != "" {
		return global_rsp.String(), nil
	}

	object_rsp := gjson.GetBytes(body, "properties.OBJECTID")

	if !object_rsp.Exists() || object_rsp.Type == gjson.Null {
		return "", fmt.Errorf("Missing GlobalID and OBJECTID")
	}

	// Raw preserves the source number formatting (42 rather than 42.000000)
	if object_rsp.Type == gjson.Number {
		return object_rsp.Raw, nil
	}

	return object_rsp.String(), nil
}
