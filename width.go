package sidewalks

import (
	"github.com/tidwall/gjson"
)

// DeriveWidth returns the "Width" property as-is (float64, string, bool or nil).
func DeriveWidth(body []byte) any {
	return gjson.GetBytes(body, "properties.Width").Value()
}
